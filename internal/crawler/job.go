package crawler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Job is one crawl run. The engine's worker goroutine owns all
// mutation; other goroutines observe it through Snapshot and signal it
// through RequestInterrupt.
type Job struct {
	ID     string
	Spec   JobSpec
	Domain string

	mu           sync.Mutex
	status       JobStatus
	pagesFound   int
	pagesScraped int
	itemsFound   int
	errors       []JobError
	errorMessage string
	startedAt    time.Time
	endedAt      time.Time
	robots       *RobotsReport

	interrupted atomic.Bool
	done        chan struct{}
}

func newJob(spec JobSpec, domain string) *Job {
	return &Job{
		ID:     uuid.NewString(),
		Spec:   spec,
		Domain: domain,
		status: StatusQueued,
		done:   make(chan struct{}),
	}
}

// RequestInterrupt raises the cooperative cancellation flag. The
// worker honors it at the next checkpoint; any in-flight fetch is
// allowed to finish.
func (j *Job) RequestInterrupt() {
	j.interrupted.Store(true)
}

// Interrupted reports whether cancellation has been requested.
func (j *Job) Interrupted() bool {
	return j.interrupted.Load()
}

// Done is closed when the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	return JobSnapshot{
		ID:           j.ID,
		Spec:         j.Spec,
		Domain:       j.Domain,
		Status:       j.status,
		PagesFound:   j.pagesFound,
		PagesScraped: j.pagesScraped,
		ItemsFound:   j.itemsFound,
		Errors:       append([]JobError(nil), j.errors...),
		ErrorMessage: j.errorMessage,
		StartedAt:    j.startedAt,
		EndedAt:      j.endedAt,
		Robots:       j.robots,
	}
}

// Status returns the current lifecycle state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) setRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = StatusRunning
	j.startedAt = time.Now().UTC()
}

// finish moves the job to a terminal status. Counters freeze at this
// point; a terminal job never transitions again.
func (j *Job) finish(status JobStatus, errorMessage string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = status
	j.errorMessage = errorMessage
	j.endedAt = time.Now().UTC()
	close(j.done)
}

func (j *Job) setRobots(report *RobotsReport) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.robots = report
}

func (j *Job) addError(jobErr JobError) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, jobErr)
}

func (j *Job) countFetched() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pagesFound++
	return j.pagesFound
}

func (j *Job) countScraped(items int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pagesScraped++
	j.itemsFound += items
}

func (j *Job) fetchedSoFar() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pagesFound
}
