package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := NewFetcher("test-agent", 5*time.Second)
	defer f.Close()

	result, failure := f.Fetch(context.Background(), server.URL)
	if failure != nil {
		t.Fatalf("Fetch failed: %v", failure)
	}
	if result.Status != http.StatusOK {
		t.Errorf("Status = %d", result.Status)
	}
	if len(result.Body) == 0 {
		t.Error("empty body")
	}
	if result.Metrics.Size != int64(len(result.Body)) {
		t.Errorf("Size = %d, body is %d bytes", result.Metrics.Size, len(result.Body))
	}
	if result.Metrics.Duration <= 0 {
		t.Error("Duration not measured")
	}
	if result.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", result.ContentType)
	}
}

func TestFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewFetcher("test-agent", 5*time.Second)
	defer f.Close()

	result, failure := f.Fetch(context.Background(), server.URL+"/missing")
	if result != nil {
		t.Fatal("non-2xx must not produce a result")
	}
	if failure.Kind != FailHTTPError || failure.Status != http.StatusNotFound {
		t.Errorf("failure = %+v", failure)
	}
	if failure.Metrics.Status != http.StatusNotFound {
		t.Errorf("metrics must carry the status, got %d", failure.Metrics.Status)
	}
	if failure.Metrics.Duration <= 0 {
		t.Error("metrics must be populated on failure")
	}
}

func TestFetcherConnectionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f := NewFetcher("test-agent", 2*time.Second)
	defer f.Close()

	result, failure := f.Fetch(context.Background(), url)
	if result != nil || failure == nil {
		t.Fatal("expected a failure against a closed server")
	}
	if failure.Kind != FailConnection {
		t.Errorf("Kind = %q, expected connection_failed", failure.Kind)
	}
}

func TestFetcherTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	f := NewFetcher("test-agent", 50*time.Millisecond)
	defer f.Close()

	result, failure := f.Fetch(context.Background(), server.URL)
	if result != nil || failure == nil {
		t.Fatal("expected a timeout failure")
	}
	if failure.Kind != FailTimeout {
		t.Errorf("Kind = %q, expected timeout", failure.Kind)
	}
}

func TestFetcherTooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/loop", http.StatusFound)
	}))
	defer server.Close()

	f := NewFetcher("test-agent", 5*time.Second)
	defer f.Close()

	result, failure := f.Fetch(context.Background(), server.URL)
	if result != nil || failure == nil {
		t.Fatal("expected a redirect-loop failure")
	}
	if failure.Kind != FailTooManyRedirects {
		t.Errorf("Kind = %q, expected too_many_redirects", failure.Kind)
	}
}
