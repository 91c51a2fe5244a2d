package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/samvad-asset-loader/pkg/httpclient"
)

const maxErrorSnippet = 512

// httpPublisher posts each event as JSON to a webhook. Non-2xx replies are
// delivery failures.
type httpPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    Logger
}

// newHTTPPublisher creates a webhook publisher; method and timeout fall back
// to POST and five seconds.
func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	c := cfg.HTTP

	timeout := c.TimeoutSeconds
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds
	}
	method := c.Method
	if method == "" {
		method = httpDefaultMethod
	}

	client := httpclient.NewRestyHTTPClient(httpclient.WithTimeout(time.Duration(timeout) * time.Second))
	client.SetHeader("Content-Type", "application/json")
	for k, v := range c.Headers {
		client.SetHeader(k, v)
	}

	return &httpPublisher{
		id:     cfg.ID,
		method: method,
		url:    c.URL,
		client: client,
		log:    ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish posts the encoded event to the configured URL.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req := h.client.R().SetContext(ctx).SetBody(body)
	if evt.Kind != "" {
		req.SetHeader("X-Asset-Kind", evt.Kind)
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}
	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"path":         evt.Path,
		"status":       resp.StatusCode(),
	})
	return nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(body))
}
