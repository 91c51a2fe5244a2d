package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-asset-loader/pkg/sources"
)

func newTestLoader(t *testing.T, base string) *Loader {
	t.Helper()
	reg, err := sources.DefaultRegistry(base, nil, nil)
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return New(reg)
}

func TestLoadJSONRoundTrip(t *testing.T) {
	values := []any{
		map[string]any{
			"width":  10,
			"height": 8,
			"layers": []any{map[string]any{"type": "tilelayer", "data": []any{1, 2, 0}}},
			"name":   "level-1",
			"hidden": false,
			"meta":   nil,
		},
		[]any{"a", 1.5, true, nil},
		"just a string",
		42,
		nil,
	}

	for i, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %d: %v", i, err)
		}
		var want any
		if err := json.Unmarshal(raw, &want); err != nil {
			t.Fatalf("unmarshal %d: %v", i, err)
		}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(raw)
		}))

		got, err := newTestLoader(t, "").LoadJSON(context.Background(), srv.URL+"/value.json")
		srv.Close()
		if err != nil {
			t.Fatalf("LoadJSON %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("value %d: got %#v, want %#v", i, got, want)
		}
	}
}

func TestLoadBinaryPassThrough(t *testing.T) {
	payload := []byte{0x00, 0xff, 0x10, 'P', 'N', 'G', 0x00}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-tileset")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	blob, err := newTestLoader(t, srv.URL+"/").LoadBinary(context.Background(), "resources/tiles.bin")
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if !bytes.Equal(blob.Data, payload) {
		t.Fatalf("bytes differ: %v", blob.Data)
	}
	if blob.Type != "application/x-tileset" {
		t.Fatalf("unexpected type %q", blob.Type)
	}
	if blob.Size() != len(payload) {
		t.Fatalf("unexpected size %d", blob.Size())
	}
	if blob.Location != srv.URL+"/resources/tiles.bin" {
		t.Fatalf("unexpected location %q", blob.Location)
	}
}

func TestLoadersFailWithNetworkErrorWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	l := newTestLoader(t, "")

	_, err := l.LoadJSON(context.Background(), addr+"/map.json")
	if !IsNetworkError(err) || IsParseError(err) {
		t.Fatalf("LoadJSON: expected NetworkError, got %v", err)
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Path != addr+"/map.json" {
		t.Fatalf("expected *NetworkError with path, got %#v", err)
	}

	if _, err := l.LoadBinary(context.Background(), addr+"/tiles.png"); !IsNetworkError(err) {
		t.Fatalf("LoadBinary: expected NetworkError, got %v", err)
	}
}

func TestLoadersFailWithNetworkErrorOnUnknownScheme(t *testing.T) {
	if _, err := newTestLoader(t, "").LoadBinary(context.Background(), "gopher://example.com/x"); !IsNetworkError(err) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestLoadJSONReadsBodyAsUTF8Text(t *testing.T) {
	cases := []struct {
		name string
		body []byte
		want any
	}{
		{"byte order mark", []byte("\xEF\xBB\xBF{\"a\":1}"), map[string]any{"a": float64(1)}},
		{"byte order mark before whitespace", []byte("\xEF\xBB\xBF  [true]"), []any{true}},
		{"invalid sequence", []byte("{\"a\":\"x\xffy\"}"), map[string]any{"a": "x\uFFFDy"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write(tc.body)
			}))
			defer srv.Close()

			got, err := newTestLoader(t, "").LoadJSON(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("LoadJSON: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}

	if err := UnmarshalJSON("bom-only.json", []byte("\xEF\xBB\xBF"), new(any)); !IsParseError(err) {
		t.Fatalf("a lone byte order mark is an empty body, got %v", err)
	}
}

func TestLoadJSONBlobReportsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var v map[string]bool
	blob, err := newTestLoader(t, srv.URL+"/").LoadJSONBlob(context.Background(), "doc.json", &v)
	if err != nil {
		t.Fatalf("LoadJSONBlob: %v", err)
	}
	if !v["ok"] {
		t.Fatalf("unexpected value %#v", v)
	}
	if blob.Status != http.StatusAccepted || blob.Type != "application/json; charset=utf-8" ||
		blob.Size() != len(`{"ok":true}`) || blob.Location != srv.URL+"/doc.json" {
		t.Fatalf("unexpected blob %+v", blob)
	}
}

func TestLoadJSONParseErrors(t *testing.T) {
	bodies := []string{"not json", "", "   ", `{"a":1} trailing`, `{"a":`}
	for _, body := range bodies {
		body := body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newTestLoader(t, "").LoadJSON(context.Background(), srv.URL)
		srv.Close()
		if !IsParseError(err) || IsNetworkError(err) {
			t.Fatalf("body %q: expected ParseError, got %v", body, err)
		}
	}
}

func TestLoadIgnoresStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"missing"}`))
	}))
	defer srv.Close()

	l := newTestLoader(t, "")
	v, err := l.LoadJSON(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("LoadJSON on 404 body: %v", err)
	}
	if m, ok := v.(map[string]any); !ok || m["error"] != "missing" {
		t.Fatalf("unexpected value %#v", v)
	}

	blob, err := l.LoadBinary(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("LoadBinary on 404: %v", err)
	}
	if blob.Status != http.StatusNotFound {
		t.Fatalf("expected status to be carried, got %d", blob.Status)
	}
}

func TestConcurrentLoadsAreIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Earlier paths answer later so completion order differs from call order.
		if r.URL.Path == "/0" {
			time.Sleep(50 * time.Millisecond)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	defer srv.Close()

	l := newTestLoader(t, srv.URL+"/")
	const n = 8

	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			p := fmt.Sprintf("%d", i)
			v, err := l.LoadJSON(context.Background(), p)
			if err != nil {
				errs <- err
				return
			}
			if got := v.(map[string]any)["path"]; got != "/"+p {
				errs <- fmt.Errorf("json %s: got %v", p, got)
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			p := fmt.Sprintf("%d", i)
			blob, err := l.LoadBinary(context.Background(), p)
			if err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprintf(`{"path":"/%s"}`, p); string(blob.Data) != want {
				errs <- fmt.Errorf("binary %s: got %s", p, blob.Data)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNoImplicitCaching(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := hits.Add(1)
		_, _ = fmt.Fprintf(w, `{"version":%d}`, n)
	}))
	defer srv.Close()

	l := newTestLoader(t, "")
	first, err := l.LoadJSON(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("first LoadJSON: %v", err)
	}
	second, err := l.LoadJSON(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second LoadJSON: %v", err)
	}
	if reflect.DeepEqual(first, second) {
		t.Fatalf("second load returned cached content %v", second)
	}

	b1, _ := l.LoadBinary(context.Background(), srv.URL)
	b2, _ := l.LoadBinary(context.Background(), srv.URL)
	if bytes.Equal(b1.Data, b2.Data) {
		t.Fatalf("binary loads returned identical content %s", b1.Data)
	}
	if got := hits.Load(); got != 4 {
		t.Fatalf("expected one request per call (4), got %d", got)
	}
}

func TestLoadFromFilesystem(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "level.json"), []byte(`{"width":3}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := newTestLoader(t, dir)
	v, err := l.LoadJSON(context.Background(), "level.json")
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if v.(map[string]any)["width"] != float64(3) {
		t.Fatalf("unexpected value %#v", v)
	}

	if _, err := l.LoadBinary(context.Background(), "missing.png"); !IsNetworkError(err) {
		t.Fatalf("expected NetworkError for missing file, got %v", err)
	}
}

func TestDecodeJSONIntoStruct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"width":4,"height":2}`))
	}))
	defer srv.Close()

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := newTestLoader(t, "").DecodeJSON(context.Background(), srv.URL, &dims); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if dims.Width != 4 || dims.Height != 2 {
		t.Fatalf("unexpected dims %+v", dims)
	}
}

func TestUninitializedLoader(t *testing.T) {
	var l *Loader
	if _, err := l.LoadJSON(context.Background(), "x"); !IsNetworkError(err) {
		t.Fatalf("expected NetworkError from nil loader, got %v", err)
	}
}

func TestDefaultLoaderReadsFiles(t *testing.T) {
	name := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(name, []byte{1, 2}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	blob, err := LoadBinary(context.Background(), "file://"+filepath.ToSlash(name))
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if !bytes.Equal(blob.Data, []byte{1, 2}) {
		t.Fatalf("unexpected data %v", blob.Data)
	}
}
