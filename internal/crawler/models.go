package crawler

import (
	"fmt"
	"net/url"
	"time"

	"github.com/nishajoths/Data-Wizards/internal/page"
)

// JobStatus is the lifecycle state of a crawl job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusRunning     JobStatus = "running"
	StatusCompleted   JobStatus = "completed"
	StatusInterrupted JobStatus = "interrupted"
	StatusError       JobStatus = "error"
)

// Terminal reports whether the status is final. Terminal jobs never
// re-enter running.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusInterrupted || s == StatusError
}

// JobSpec holds the per-job crawl parameters supplied at submit time.
type JobSpec struct {
	SeedURL            string   `json:"seed_url"`
	MaxDepth           int      `json:"max_depth"`            // 0 = seed page only
	MaxPages           int      `json:"max_pages"`            // 0 = unbounded
	Keywords           []string `json:"keywords,omitempty"`   // Empty list retains every page
	IncludeMeta        bool     `json:"include_meta"`         // Also match against title/meta tags
	CardSelector       string   `json:"card_selector,omitempty"`       // Optional repeating-element selector
	PaginationSelector string   `json:"pagination_selector,omitempty"` // Optional pagination-region selector
}

// Validate checks the job parameters and returns the crawl domain derived from
// the seed URL.
func (s JobSpec) Validate() (string, error) {
	u, err := url.Parse(s.SeedURL)
	if err != nil {
		return "", fmt.Errorf("invalid seed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("seed URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("seed URL has no host: %q", s.SeedURL)
	}
	if s.MaxDepth < 0 {
		return "", fmt.Errorf("max depth must be >= 0, got %d", s.MaxDepth)
	}
	if s.MaxPages < 0 {
		return "", fmt.Errorf("max pages must be >= 0, got %d", s.MaxPages)
	}
	return u.Host, nil
}

// FrontierEntry is one discovered-but-unfetched URL.
type FrontierEntry struct {
	URL       string
	Depth     int
	SourceURL string // Page the URL was discovered on; empty for the seed
}

// FailKind classifies a fetch failure.
type FailKind string

const (
	FailTimeout          FailKind = "timeout"
	FailConnection       FailKind = "connection_failed"
	FailHTTPError        FailKind = "http_error"
	FailTooManyRedirects FailKind = "too_many_redirects"
)

// FetchMetrics holds per-request timing and size figures. Populated on
// failures too, with whatever was measured before the request died.
type FetchMetrics struct {
	TTFB     time.Duration // Time to first byte
	Duration time.Duration // Total request duration
	Size     int64         // Response body size in bytes
	Status   int           // HTTP status, 0 if the request never completed
}

// FetchFailure is a typed fetch error with the metrics gathered so far.
type FetchFailure struct {
	Kind    FailKind
	Status  int // Set for http_error
	Message string
	Metrics FetchMetrics
}

func (f *FetchFailure) Error() string {
	if f.Kind == FailHTTPError {
		return fmt.Sprintf("%s: status %d", f.Kind, f.Status)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// FetchResult is one successfully fetched page.
type FetchResult struct {
	URL         string
	FinalURL    string // After redirects
	Status      int
	Body        []byte
	ContentType string
	Metrics     FetchMetrics
}

// PageOutcome records one successful fetch: filter decision, extracted
// content when retained, and discovered children. Immutable once built.
type PageOutcome struct {
	URL             string            `json:"url"`
	Depth           int               `json:"depth"`
	SourceURL       string            `json:"source_url,omitempty"`
	Status          int               `json:"status"`
	Metrics         FetchMetrics      `json:"-"`
	Retained        bool              `json:"retained"`
	MatchedKeywords []string          `json:"matched_keywords,omitempty"`
	Contexts        map[string]string `json:"contexts,omitempty"`
	Record          *page.Record      `json:"record,omitempty"`
	CardRecords     []*page.Record    `json:"card_records,omitempty"`
	ChildLinks      []string          `json:"child_links,omitempty"`
	FetchedAt       time.Time         `json:"fetched_at"`
}

// JobError is one accumulated page-level error. These never abort the
// job; they are surfaced through status queries.
type JobError struct {
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// JobSnapshot is a point-in-time view of a job's state and counters.
type JobSnapshot struct {
	ID           string        `json:"id"`
	Spec         JobSpec       `json:"spec"`
	Domain       string        `json:"domain"`
	Status       JobStatus     `json:"status"`
	PagesFound   int           `json:"pages_found"`   // Successful fetches
	PagesScraped int           `json:"pages_scraped"` // Retained pages
	ItemsFound   int           `json:"items_found"`   // Extracted records incl. cards
	Errors       []JobError    `json:"errors,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	Robots       *RobotsReport `json:"robots,omitempty"`
}
