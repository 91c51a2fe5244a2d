package sources

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

const (
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
	SchemeFile   = "file"
	SchemeBundle = "bundle"
)

// registry implements Registry.
type registry struct {
	base    *url.URL
	sources map[string]Source
	mu      sync.RWMutex
}

// NewRegistry builds a registry resolving relative paths against base.
// An empty base resolves relative paths to files under the working directory.
func NewRegistry(base string, srcs ...Source) (Registry, error) {
	baseURL, err := parseBase(base)
	if err != nil {
		return nil, err
	}

	reg := &registry{
		base:    baseURL,
		sources: make(map[string]Source),
	}
	for _, s := range srcs {
		reg.register(s)
	}
	return reg, nil
}

// DefaultRegistry wires the http, https and file sources.
func DefaultRegistry(base string, client HTTPClient, headers map[string]string) (Registry, error) {
	if client == nil {
		client = DefaultHTTPClient()
	}
	httpSrc := NewHTTPSource(client, headers)
	return NewRegistry(base,
		httpSrc,
		&schemeAlias{Source: httpSrc, scheme: SchemeHTTPS},
		NewFileSource(),
	)
}

// WithSources returns a registry sharing reg's base with extra sources registered on top.
func WithSources(reg Registry, srcs ...Source) Registry {
	r, ok := reg.(*registry)
	if !ok || r == nil {
		return reg
	}

	r.mu.RLock()
	cp := &registry{base: r.base, sources: make(map[string]Source, len(r.sources)+len(srcs))}
	for k, v := range r.sources {
		cp.sources[k] = v
	}
	r.mu.RUnlock()

	for _, s := range srcs {
		cp.register(s)
	}
	return cp
}

// register registers a source by its scheme.
func (r *registry) register(s Source) {
	if s == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(s.Scheme()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.sources[key] = s
	r.mu.Unlock()
}

// Resolve turns a resource path into an absolute location.
func (r *registry) Resolve(p string) (*url.URL, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return nil, fmt.Errorf("parse resource path %q: %w", p, err)
	}
	if ref.Scheme != "" {
		return ref, nil
	}

	if r.base == nil {
		return &url.URL{Scheme: SchemeFile, Path: ref.Path, RawQuery: ref.RawQuery}, nil
	}
	if r.base.Scheme == SchemeBundle {
		return &url.URL{Scheme: SchemeBundle, Opaque: BundleKey(ref.Path)}, nil
	}
	return r.base.ResolveReference(ref), nil
}

// SourceFor selects the source for the location's scheme.
func (r *registry) SourceFor(loc *url.URL) (Source, error) {
	if r == nil {
		return nil, fmt.Errorf("source registry is nil")
	}
	if loc == nil {
		return nil, fmt.Errorf("location is nil")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.sources[strings.ToLower(loc.Scheme)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no source registered for scheme %q", loc.Scheme)
}

// parseBase normalizes the configured base into a URL. Bare directories become file URLs.
func parseBase(base string) (*url.URL, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, nil
	}

	u, err := url.Parse(base)
	if err == nil && u.Scheme != "" && !isDriveLetter(u.Scheme) {
		return u, nil
	}

	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory %q: %w", base, err)
	}
	dir := filepath.ToSlash(abs)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return &url.URL{Scheme: SchemeFile, Path: dir}, nil
}

func isDriveLetter(scheme string) bool {
	return len(scheme) == 1
}

// BundleKey normalizes a resource path into the key used inside asset bundles.
func BundleKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// schemeAlias serves an extra scheme with an existing source.
type schemeAlias struct {
	Source
	scheme string
}

func (s *schemeAlias) Scheme() string { return s.scheme }
