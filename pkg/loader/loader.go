package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/samvad-hq/samvad-asset-loader/internal/logger"
	"github.com/samvad-hq/samvad-asset-loader/pkg/httpclient"
	"github.com/samvad-hq/samvad-asset-loader/pkg/sources"
)

var (
	jsonAPI      = jsoniter.ConfigCompatibleWithStandardLibrary
	errEmptyBody = errors.New("empty body")

	utf8BOM         = []byte("\xEF\xBB\xBF")
	replacementChar = []byte("\uFFFD")
)

// Loader fetches resources through a source registry and decodes them.
// It keeps no per-call state and is safe for concurrent use.
type Loader struct {
	sources sources.Registry
	log     logger.Logger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for debug-level fetch traces.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// New builds a loader over the given source registry.
func New(reg sources.Registry, opts ...Option) *Loader {
	l := &Loader{sources: reg}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logger.Ensure(l.log)
	return l
}

var defaultLoader = sync.OnceValue(func() *Loader {
	reg, err := sources.DefaultRegistry("", nil, nil)
	if err != nil {
		// An empty base never fails to parse.
		panic(fmt.Sprintf("default source registry: %v", err))
	}
	return New(reg)
})

// Default returns the process-wide loader: http(s) and file sources, no base.
func Default() *Loader { return defaultLoader() }

// LoadJSON fetches path with the default loader and decodes it as JSON.
func LoadJSON(ctx context.Context, path string) (any, error) {
	return Default().LoadJSON(ctx, path)
}

// LoadBinary fetches path with the default loader and returns the raw body.
func LoadBinary(ctx context.Context, path string) (Blob, error) {
	return Default().LoadBinary(ctx, path)
}

// LoadJSON fetches path and decodes the body into an arbitrary JSON value
// (map[string]any, []any, float64, string, bool or nil).
func (l *Loader) LoadJSON(ctx context.Context, path string) (any, error) {
	var v any
	if err := l.DecodeJSON(ctx, path, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeJSON fetches path and decodes the body into v.
func (l *Loader) DecodeJSON(ctx context.Context, path string, v any) error {
	_, err := l.LoadJSONBlob(ctx, path, v)
	return err
}

// LoadJSONBlob fetches path once, decodes the body into v and returns the
// fetched blob so callers can report what was actually received.
func (l *Loader) LoadJSONBlob(ctx context.Context, path string, v any) (Blob, error) {
	blob, err := l.LoadBinary(ctx, path)
	if err != nil {
		return Blob{}, err
	}
	if err := UnmarshalJSON(path, blob.Data, v); err != nil {
		return Blob{}, err
	}
	return blob, nil
}

// UnmarshalJSON decodes a JSON body read as UTF-8 text: a leading byte order
// mark is dropped and invalid sequences become U+FFFD. Empty bodies and
// malformed JSON are reported as *ParseError.
func UnmarshalJSON(path string, body []byte, v any) error {
	body = bytes.TrimPrefix(body, utf8BOM)
	if len(bytes.TrimSpace(body)) == 0 {
		return &ParseError{Path: path, Err: errEmptyBody}
	}
	if !utf8.Valid(body) {
		body = bytes.ToValidUTF8(body, replacementChar)
	}
	if err := jsonAPI.Unmarshal(body, v); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// LoadBinary fetches path and returns the body untouched with its content type.
func (l *Loader) LoadBinary(ctx context.Context, path string) (Blob, error) {
	resp, loc, err := l.fetch(ctx, path)
	if err != nil {
		return Blob{}, err
	}

	return Blob{
		Data:     resp.Body(),
		Type:     resp.Header().Get("Content-Type"),
		Status:   resp.StatusCode(),
		Location: loc,
	}, nil
}

// fetch performs the single source round trip. Every failure is a NetworkError.
// The status code is deliberately not inspected.
func (l *Loader) fetch(ctx context.Context, path string) (httpclient.Response, string, error) {
	if l == nil || l.sources == nil {
		return nil, "", &NetworkError{Path: path, Err: fmt.Errorf("loader is not initialized")}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loc, err := l.sources.Resolve(path)
	if err != nil {
		return nil, "", &NetworkError{Path: path, Err: err}
	}
	src, err := l.sources.SourceFor(loc)
	if err != nil {
		return nil, "", &NetworkError{Path: path, Err: err}
	}

	resp, err := src.Fetch(ctx, loc)
	if err != nil {
		return nil, "", &NetworkError{Path: path, Err: err}
	}
	if resp == nil {
		return nil, "", &NetworkError{Path: path, Err: fmt.Errorf("source %s returned no response", src.Scheme())}
	}

	location := loc.Redacted()
	l.log.DebugObj("asset fetched", "asset_fetch", map[string]any{
		"path":     path,
		"location": location,
		"status":   resp.StatusCode(),
		"bytes":    len(resp.Body()),
	})
	return resp, location, nil
}
