package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/itohio/goscale/pkg/sample"
)

// DefaultTimeout bounds one HTTP report.
const DefaultTimeout = 10 * time.Second

// payload is the JSON body of an HTTP report.
type payload struct {
	Content string `json:"content"`
}

// HTTP posts samples as JSON to a REST endpoint authenticated with an API key.
type HTTP struct {
	url    string
	key    string
	client *http.Client
}

// NewHTTP creates an HTTP reporter. A nil client uses one with DefaultTimeout.
func NewHTTP(url, key string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTP{url: url, key: key, client: client}
}

// Report posts {"content": "Weight: N g"}. Any non-2xx status is an error.
func (h *HTTP) Report(ctx context.Context, s sample.Sample) error {
	body, err := json.Marshal(payload{Content: Message(s)})
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", h.key)
	req.Header.Set("Authorization", "Bearer "+h.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", h.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("POST %s: unexpected status %s", h.url, resp.Status)
	}
	return nil
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
