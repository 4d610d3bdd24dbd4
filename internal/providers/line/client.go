package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/marugo/torioki/internal/config"
)

const pushPath = "/v2/bot/message/push"

// Client talks to the LINE Messaging API push endpoint. One call per
// Push invocation; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.LineConfig) *Client {
	return &Client{
		baseURL:    cfg.APIBaseURL,
		token:      cfg.AccessToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

func (c *Client) Push(ctx context.Context, to string, messages []Message) error {
	body, err := json.Marshal(pushRequest{To: to, Messages: messages})
	if err != nil {
		return fmt.Errorf("encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pushPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("line api: status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
