package crawler

import "context"

// ProjectStore persists job lifecycle and per-page results. Result
// writes are idempotent on (jobID, url); retried submissions upsert.
type ProjectStore interface {
	CreateJob(snap JobSnapshot) error
	UpdateJobStatus(snap JobSnapshot) error
	AppendPageResult(jobID string, outcome *PageOutcome) error
	AppendJobError(jobID string, jobErr JobError) error
	GetJob(jobID string) (*JobSnapshot, error)
}

// PermissionChecker is the advisory pre-crawl gate, consulted once
// before the first fetch. A false verdict aborts the job; an error is
// treated as no answer, which defaults to allowed.
type PermissionChecker interface {
	CanCrawl(ctx context.Context, seedURL string, robots *RobotsReport) (bool, error)
}

// PermissiveChecker allows every crawl. It is the default gate when no
// external advisory service is wired in.
type PermissiveChecker struct{}

func (PermissiveChecker) CanCrawl(context.Context, string, *RobotsReport) (bool, error) {
	return true, nil
}
