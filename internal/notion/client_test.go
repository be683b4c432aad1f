package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{APIKey: "secret-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestRetrieveBlockSendsHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		fmt.Fprint(w, `{"object":"block","id":"b1","type":"paragraph","paragraph":{"rich_text":[]}}`)
	}))

	block, err := client.RetrieveBlock(context.Background(), "b1")
	if err != nil {
		t.Fatalf("RetrieveBlock: %v", err)
	}
	if block.ID != "b1" {
		t.Errorf("block ID = %q", block.ID)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotVersion != DefaultVersion {
		t.Errorf("Notion-Version = %q, want %q", gotVersion, DefaultVersion)
	}
}

func TestRetrieveBlockNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find block"}`)
	}))

	_, err := client.RetrieveBlock(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error %v should match ErrNotFound", err)
	}
}

func TestRetrieveBlockServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"code":"service_unavailable","message":"down"}`)
	}))

	_, err := client.RetrieveBlock(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("503 must not map to ErrNotFound")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v should be an *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Code != "service_unavailable" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
}

func TestListAllChildrenFollowsCursor(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page_size") != "100" {
			t.Errorf("page_size = %q", r.URL.Query().Get("page_size"))
		}
		switch r.URL.Query().Get("start_cursor") {
		case "":
			fmt.Fprint(w, `{"results":[{"id":"b1","type":"paragraph","paragraph":{"rich_text":[]}}],"has_more":true,"next_cursor":"cur-2"}`)
		case "cur-2":
			fmt.Fprint(w, `{"results":[{"id":"b2","type":"quote","quote":{"rich_text":[]}}],"has_more":false}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("start_cursor"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	blocks, err := client.ListAllChildren(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("ListAllChildren: %v", err)
	}
	if calls != 2 {
		t.Errorf("made %d requests, want 2", calls)
	}
	if len(blocks) != 2 || blocks[0].ID != "b1" || blocks[1].ID != "b2" {
		t.Errorf("unexpected blocks: %+v", blocks)
	}
}

func TestAppendChildrenBatches(t *testing.T) {
	var batchSizes []int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Children []map[string]any `json:"children"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode append body: %v", err)
		}
		batchSizes = append(batchSizes, len(body.Children))
		fmt.Fprint(w, `{"results":[]}`)
	}))

	children := make([]map[string]any, 150)
	for i := range children {
		children[i] = map[string]any{"type": "paragraph"}
	}
	if err := client.AppendChildren(context.Background(), "page-1", children, ""); err != nil {
		t.Fatalf("AppendChildren: %v", err)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 100 || batchSizes[1] != 50 {
		t.Errorf("batch sizes = %v, want [100 50]", batchSizes)
	}
}

func TestAppendChildrenAfterChains(t *testing.T) {
	var afters []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Children []map[string]any `json:"children"`
			After    string           `json:"after"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode append body: %v", err)
		}
		afters = append(afters, body.After)
		last := fmt.Sprintf("created-%d", len(afters)*100)
		fmt.Fprintf(w, `{"results":[{"id":%q,"type":"paragraph","paragraph":{"rich_text":[]}}]}`, last)
	}))

	children := make([]map[string]any, 150)
	for i := range children {
		children[i] = map[string]any{"type": "paragraph"}
	}
	if err := client.AppendChildren(context.Background(), "page-1", children, "marker-1"); err != nil {
		t.Fatalf("AppendChildren: %v", err)
	}
	if len(afters) != 2 || afters[0] != "marker-1" || afters[1] != "created-100" {
		t.Errorf("after chain = %v, want [marker-1 created-100]", afters)
	}
}

func TestFetchDescendantsRecursesAndSkipsSynced(t *testing.T) {
	// page-1 has a paragraph with children, a synced block that claims
	// children, and a child page. Only the paragraph is descended into.
	pages := map[string]string{
		"page-1": `{"results":[
			{"id":"b1","type":"paragraph","has_children":true,"paragraph":{"rich_text":[]}},
			{"id":"s1","type":"synced_block","has_children":true,"synced_block":{"synced_from":null}},
			{"id":"cp1","type":"child_page","has_children":true,"child_page":{"title":"Sub"}}
		],"has_more":false}`,
		"b1": `{"results":[
			{"id":"b1-1","type":"bulleted_list_item","bulleted_list_item":{"rich_text":[]}}
		],"has_more":false}`,
	}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for id, body := range pages {
			if r.URL.Path == "/blocks/"+id+"/children" {
				fmt.Fprint(w, body)
				return
			}
		}
		t.Errorf("unexpected children request: %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code":"object_not_found","message":"nope"}`)
	}))

	blocks, err := client.FetchDescendants(context.Background(), "page-1", FetchOptions{})
	if err != nil {
		t.Fatalf("FetchDescendants: %v", err)
	}

	var ids []string
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	want := []string{"b1", "b1-1", "s1", "cp1"}
	if len(ids) != len(want) {
		t.Fatalf("got ids %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q (document order)", i, ids[i], want[i])
		}
	}
}

func TestFetchDescendantsProbesContainers(t *testing.T) {
	requested := map[string]bool{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested[r.URL.Path] = true
		switch r.URL.Path {
		case "/blocks/root/children":
			// has_children is wrong here: the toggle really has a child.
			fmt.Fprint(w, `{"results":[{"id":"t1","type":"toggle","has_children":false,"toggle":{"rich_text":[]}}],"has_more":false}`)
		case "/blocks/t1/children":
			fmt.Fprint(w, `{"results":[{"id":"t1-1","type":"paragraph","paragraph":{"rich_text":[]}}],"has_more":false}`)
		default:
			fmt.Fprint(w, `{"results":[],"has_more":false}`)
		}
	}))

	blocks, err := client.FetchDescendants(context.Background(), "root", FetchOptions{ProbeContainers: true})
	if err != nil {
		t.Fatalf("FetchDescendants: %v", err)
	}
	if !requested["/blocks/t1/children"] {
		t.Error("container probe did not re-check the toggle")
	}
	if len(blocks) != 2 {
		t.Errorf("got %d blocks, want 2 (probe should find the hidden child)", len(blocks))
	}
}
