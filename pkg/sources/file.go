package sources

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/samvad-hq/samvad-asset-loader/pkg/httpclient"
)

// fileSource reads resources from the local filesystem.
type fileSource struct{}

// NewFileSource builds the file:// source.
func NewFileSource() Source { return fileSource{} }

func (fileSource) Scheme() string { return SchemeFile }

func (fileSource) Fetch(ctx context.Context, loc *url.URL) (httpclient.Response, error) {
	if loc == nil {
		return nil, fmt.Errorf("location is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := loc.Path
	if loc.Opaque != "" {
		p = loc.Opaque
	}
	name := filepath.FromSlash(p)

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", name, err)
	}
	return newStaticResponse(data, contentTypeFor(name, data)), nil
}

// contentTypeFor picks the type from the extension, falling back to sniffing the content.
func contentTypeFor(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// staticResponse adapts an in-memory body to httpclient.Response.
type staticResponse struct {
	body   []byte
	header http.Header
}

func newStaticResponse(body []byte, contentType string) *staticResponse {
	h := make(http.Header, 1)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &staticResponse{body: body, header: h}
}

func (s *staticResponse) Body() []byte        { return s.body }
func (s *staticResponse) StatusCode() int     { return http.StatusOK }
func (s *staticResponse) Header() http.Header { return s.header }
