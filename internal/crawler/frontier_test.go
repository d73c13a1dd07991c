package crawler

import (
	"strings"
	"sync"
	"testing"
)

func TestFrontierSeedsItself(t *testing.T) {
	f, err := NewFrontier("https://example.com/start", 2)
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	if f.Size() != 1 {
		t.Fatalf("Size = %d, expected the seed entry", f.Size())
	}
	entry, ok := f.Dequeue()
	if !ok || entry.URL != "https://example.com/start" || entry.Depth != 0 {
		t.Errorf("seed entry = %+v", entry)
	}
	if !f.Visited("https://example.com/start") {
		t.Error("seed must be marked visited")
	}
}

func TestFrontierTryEnqueueRejections(t *testing.T) {
	f, err := NewFrontier("https://example.com/", 1)
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	tests := []struct {
		name  string
		url   string
		depth int
	}{
		{"off-domain", "https://other.com/page", 1},
		{"bad scheme", "ftp://example.com/file", 1},
		{"too deep", "https://example.com/deep", 2},
		{"overlong", "https://example.com/" + strings.Repeat("a", maxURLLength), 1},
		{"seed again", "https://example.com/", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f.TryEnqueue(tt.url, tt.depth, "https://example.com/") {
				t.Errorf("TryEnqueue(%q, %d) accepted", tt.url, tt.depth)
			}
		})
	}

	if f.Size() != 1 {
		t.Errorf("Size = %d, rejections must not enqueue", f.Size())
	}
}

func TestFrontierDedupAtEnqueueTime(t *testing.T) {
	f, err := NewFrontier("https://example.com/", 3)
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	if !f.TryEnqueue("https://example.com/page", 1, "https://example.com/") {
		t.Fatal("first enqueue rejected")
	}
	if f.TryEnqueue("https://example.com/page", 1, "https://example.com/other") {
		t.Error("duplicate enqueue accepted")
	}
	// Fragments are not distinct pages.
	if f.TryEnqueue("https://example.com/page#section", 1, "https://example.com/") {
		t.Error("fragment variant enqueued as a new page")
	}
}

func TestFrontierConcurrentDedup(t *testing.T) {
	f, err := NewFrontier("https://example.com/", 3)
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	const workers = 50
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.TryEnqueue("https://example.com/contested", 1, "https://example.com/")
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for ok := range results {
		if ok {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("URL enqueued %d times under concurrency, expected exactly once", accepted)
	}
}

func TestFrontierFIFO(t *testing.T) {
	f, err := NewFrontier("https://example.com/", 3)
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}
	// Drain the seed first.
	if _, ok := f.Dequeue(); !ok {
		t.Fatal("missing seed entry")
	}

	for _, p := range []string{"/a", "/b", "/c"} {
		f.TryEnqueue("https://example.com"+p, 1, "https://example.com/")
	}

	for _, want := range []string{"/a", "/b", "/c"} {
		entry, ok := f.Dequeue()
		if !ok || entry.URL != "https://example.com"+want {
			t.Errorf("dequeued %+v, expected %s", entry, want)
		}
	}
	if _, ok := f.Dequeue(); ok {
		t.Error("frontier should be empty")
	}
}
