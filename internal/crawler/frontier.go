package crawler

import (
	"fmt"
	"net/url"
	"sync"
)

// maxURLLength guards against pathological href values.
const maxURLLength = 2000

// Frontier is the per-job work queue plus visited set. A URL enters
// the visited set when it is accepted for enqueue, not when it is
// dequeued, so concurrent discovery of the same URL from two source
// pages enqueues it exactly once.
type Frontier struct {
	domain   string
	maxDepth int

	mu      sync.Mutex
	visited map[string]struct{}
	queue   []FrontierEntry
}

// NewFrontier builds a frontier for one job and seeds it with the seed
// URL at depth 0.
func NewFrontier(seedURL string, maxDepth int) (*Frontier, error) {
	u, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("seed URL has no host: %q", seedURL)
	}

	f := &Frontier{
		domain:   u.Host,
		maxDepth: maxDepth,
		visited:  make(map[string]struct{}),
	}

	seed := canonical(u)
	f.visited[seed] = struct{}{}
	f.queue = append(f.queue, FrontierEntry{URL: seed, Depth: 0})
	return f, nil
}

// Domain returns the job's crawl domain.
func (f *Frontier) Domain() string {
	return f.domain
}

// TryEnqueue validates and enqueues a discovered URL. It returns false,
// without error, for anything off-policy: already visited, off-domain,
// non-http(s), overlong, or deeper than the depth budget.
func (f *Frontier) TryEnqueue(rawURL string, depth int, sourceURL string) bool {
	if depth > f.maxDepth || len(rawURL) > maxURLLength {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host != f.domain {
		return false
	}

	key := canonical(u)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.visited[key]; seen {
		return false
	}
	f.visited[key] = struct{}{}
	f.queue = append(f.queue, FrontierEntry{URL: key, Depth: depth, SourceURL: sourceURL})
	return true
}

// Dequeue pops the oldest entry. Depth increases monotonically across
// rounds because children are only discovered at parent depth + 1.
func (f *Frontier) Dequeue() (FrontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return FrontierEntry{}, false
	}
	entry := f.queue[0]
	f.queue = f.queue[1:]
	return entry, true
}

// Size returns the number of pending entries.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Visited reports whether a URL has ever been accepted by this
// frontier. Unparsable URLs count as unvisited.
func (f *Frontier) Visited(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, seen := f.visited[canonical(u)]
	return seen
}

// canonical strips the fragment so dedup ignores in-page anchors.
func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	return c.String()
}
