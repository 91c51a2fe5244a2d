package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/samvad-hq/samvad-asset-loader/pkg/httpclient"
)

// DefaultHTTPClient returns the resty-backed client used when callers provide none.
// No timeout is set; requests are bounded by the caller's context.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient() }

// httpSource implements Source with a single GET per fetch.
type httpSource struct {
	client  HTTPClient
	headers map[string]string
}

// NewHTTPSource builds an http source sending headers with every request.
func NewHTTPSource(client HTTPClient, headers map[string]string) Source {
	if client == nil {
		client = DefaultHTTPClient()
	}
	cp := make(map[string]string, len(headers))
	for k, v := range headers {
		cp[k] = v
	}
	return &httpSource{client: client, headers: cp}
}

func (s *httpSource) Scheme() string { return SchemeHTTP }

// Fetch issues the GET. Completed responses are returned whatever their status.
func (s *httpSource) Fetch(ctx context.Context, loc *url.URL) (httpclient.Response, error) {
	if loc == nil {
		return nil, fmt.Errorf("location is nil")
	}
	resp, err := s.client.Get(ctx, loc.String(), s.headers)
	if err != nil {
		return nil, fmt.Errorf("http get %s: %w", loc.Redacted(), err)
	}
	return resp, nil
}
