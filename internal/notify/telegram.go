// Package notify sends run completion messages through the Telegram
// Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier posts messages to one Telegram chat. A nil Notifier skips
// sending, so callers can thread one through unconditionally and only
// construct it when notifications are configured.
type Notifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

// New returns a Notifier for the given bot token and chat, or nil when
// either is missing.
func New(token, chatID string) *Notifier {
	if token == "" || chatID == "" {
		return nil
	}
	return &Notifier{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Send posts one message to the configured chat.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if n == nil {
		return nil
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: n.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(data))
	}
	if !result.OK {
		return fmt.Errorf("telegram: %s", result.Description)
	}
	return nil
}

// PageMessage renders the per-page progress notification for a batch.
func PageMessage(title string, current, total int, success bool, model string, runErr error) string {
	progress := fmt.Sprintf("(%d/%d)", current, total)
	short := truncate(title, 40)

	if success {
		return fmt.Sprintf("✅ %s %s\nCompleted using %s", progress, short, model)
	}
	msg := fmt.Sprintf("❌ %s FAILED %s", progress, short)
	if runErr != nil {
		msg += "\n" + truncate(runErr.Error(), 60)
	}
	return msg
}

// BatchMessage renders the end-of-batch summary notification.
func BatchMessage(completed, failed, total int, model string) string {
	if failed == 0 {
		return fmt.Sprintf("🎉 Batch complete: %d/%d success\nAll pages processed using %s",
			completed, total, model)
	}
	return fmt.Sprintf("⚠️ Batch complete: %d/%d (%d failed)", completed, total, failed)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
