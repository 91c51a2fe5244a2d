package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Option tunes the underlying resty client.
type Option func(*resty.Client)

// WithTimeout bounds each request. Zero leaves requests bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

// WithRedirectLimit caps how many redirects a GET may follow. Zero keeps
// the net/http default of ten.
func WithRedirectLimit(n int) Option {
	return func(c *resty.Client) {
		if n > 0 {
			c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(n))
		}
	}
}

// WithHeader sets a header sent on every request unless the call overrides it.
func WithHeader(key, value string) Option {
	return func(c *resty.Client) {
		if key != "" && value != "" {
			c.SetHeader(key, value)
		}
	}
}

// RestyClient adapts resty.Client to the Client interface. It never retries.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient builds the GET client used by the asset sources.
func NewRestyClient(opts ...Option) *RestyClient {
	return &RestyClient{client: NewRestyHTTPClient(opts...)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing other verbs.
func NewRestyHTTPClient(opts ...Option) *resty.Client {
	c := resty.New().SetRetryCount(0)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a single GET. Any completed response is returned, whatever
// its status; only transport failures are errors.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

var _ Response = (*resty.Response)(nil)
