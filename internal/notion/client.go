package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the public Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"
	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"

	// maxPageSize is the API's documented children page-size ceiling.
	maxPageSize = 100
	// appendBatchPause spaces out consecutive append batches.
	appendBatchPause = 100 * time.Millisecond
)

// ErrNotFound is returned when the API reports the object does not exist
// or is not shared with the integration. Callers distinguish it from
// transient failures with errors.Is.
var ErrNotFound = errors.New("notion: object not found")

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notion: status %d: %s", e.StatusCode, e.Message)
}

// Config holds the client settings. Zero values fall back to defaults.
type Config struct {
	APIKey  string
	BaseURL string
	Version string
}

// Client is a minimal typed Notion API client covering the block and page
// operations the tool needs.
type Client struct {
	apiKey     string
	baseURL    string
	version    string
	httpClient *http.Client
}

// NewClient builds a client from config. The API key must be set.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("notion API key not configured. Set NOTION_API_KEY or add to config")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		version: version,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// doRequest makes an authenticated request and returns the response body.
// Status 404 (and the API's object_not_found code) map to ErrNotFound so
// callers never have to match on message strings.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			apiErr.Message = string(respBody)
		}
		if resp.StatusCode == http.StatusNotFound || apiErr.Code == "object_not_found" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		}
		return nil, apiErr
	}

	return respBody, nil
}

// RetrieveBlock fetches one block by ID.
func (c *Client) RetrieveBlock(ctx context.Context, blockID string) (*Block, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/blocks/"+blockID, nil)
	if err != nil {
		return nil, err
	}
	var block Block
	if err := json.Unmarshal(body, &block); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return &block, nil
}

// RetrievePage fetches page metadata (identity and title).
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/pages/"+pageID, nil)
	if err != nil {
		return nil, err
	}
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &page, nil
}

// ChildrenPage is one page of a block-children listing.
type ChildrenPage struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

// ListChildren fetches one page of a block's direct children. Pass an
// empty cursor for the first page.
func (c *Client) ListChildren(ctx context.Context, blockID, cursor string) (*ChildrenPage, error) {
	q := url.Values{}
	q.Set("page_size", fmt.Sprintf("%d", maxPageSize))
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	body, err := c.doRequest(ctx, http.MethodGet, "/blocks/"+blockID+"/children?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var page ChildrenPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	return &page, nil
}

// ListAllChildren follows the cursor until every direct child is fetched.
func (c *Client) ListAllChildren(ctx context.Context, blockID string) ([]Block, error) {
	var all []Block
	cursor := ""
	for {
		page, err := c.ListChildren(ctx, blockID, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		if !page.HasMore {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// UpdateBlock patches a block with the given update body and returns the
// updated block.
func (c *Client) UpdateBlock(ctx context.Context, blockID string, body any) (*Block, error) {
	respBody, err := c.doRequest(ctx, http.MethodPatch, "/blocks/"+blockID, body)
	if err != nil {
		return nil, err
	}
	var block Block
	if err := json.Unmarshal(respBody, &block); err != nil {
		return nil, fmt.Errorf("decode updated block: %w", err)
	}
	return &block, nil
}

// DeleteBlock archives a block.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/blocks/"+blockID, nil)
	return err
}

// AppendChildren appends child blocks under a parent, batching to the
// API's 100-block limit with a short pause between batches. A non-empty
// after places the blocks after that direct child; follow-up batches chain
// after the last block of the batch before so order holds.
func (c *Client) AppendChildren(ctx context.Context, parentID string, children []map[string]any, after string) error {
	for i := 0; i < len(children); i += maxPageSize {
		end := i + maxPageSize
		if end > len(children) {
			end = len(children)
		}
		body := map[string]any{"children": children[i:end]}
		if after != "" {
			body["after"] = after
		}
		data, err := c.doRequest(ctx, http.MethodPatch, "/blocks/"+parentID+"/children", body)
		if err != nil {
			return fmt.Errorf("append batch %d: %w", i/maxPageSize+1, err)
		}
		if after != "" && end < len(children) {
			var page ChildrenPage
			if err := json.Unmarshal(data, &page); err != nil || len(page.Results) == 0 {
				return fmt.Errorf("append batch %d: no created blocks to chain after", i/maxPageSize+1)
			}
			after = page.Results[len(page.Results)-1].ID
		}
		if end < len(children) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(appendBatchPause):
			}
		}
	}
	return nil
}
