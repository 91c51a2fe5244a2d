package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientReturnsErrorStatusesAsResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "asset-test" {
			t.Errorf("missing user agent, got %q", got)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	defer srv.Close()

	client := NewRestyClient()
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"User-Agent": "asset-test"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode())
	}
	if string(resp.Body()) != "missing" {
		t.Fatalf("unexpected body %q", resp.Body())
	}
	if got := resp.Header().Get("Content-Type"); got != "text/plain" {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestRestyClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	if _, err := NewRestyClient().Get(context.Background(), addr, nil); err == nil {
		t.Fatalf("expected error for closed server")
	}
}

func TestRestyClientRedirectLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/b", http.StatusFound) })
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/c", http.StatusFound) })
	mux.HandleFunc("/c", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("done")) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := NewRestyClient(WithRedirectLimit(5)).Get(context.Background(), srv.URL+"/a", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body()) != "done" {
		t.Fatalf("unexpected body %q", resp.Body())
	}

	if _, err := NewRestyClient(WithRedirectLimit(1)).Get(context.Background(), srv.URL+"/a", nil); err == nil {
		t.Fatalf("expected redirect limit error")
	}
}

func TestRestyClientDefaultHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	client := NewRestyClient(WithHeader("User-Agent", "loader/1"), WithTimeout(time.Second))
	resp, err := client.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body()) != "loader/1" {
		t.Fatalf("default header not sent, got %q", resp.Body())
	}
}
