// Package progress delivers per-job status events to a transport with
// a bounded backlog, so slow consumers never stall the crawl itself.
package progress

import "time"

// Event kinds, from routine notices to terminal completion.
const (
	KindInfo       = "info"
	KindDetail     = "detail"
	KindSuccess    = "success"
	KindWarning    = "warning"
	KindError      = "error"
	KindNetwork    = "network"
	KindCompletion = "completion"
)

// Event is one progress notification for a job.
type Event struct {
	Kind      string         `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(kind, message string, data map[string]any) Event {
	return Event{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Message:   message,
		Data:      data,
	}
}

// Transport carries events to their consumer. Send errors are treated
// as a temporarily unavailable consumer; the channel buffers and
// retries rather than propagating the failure to the producer.
type Transport interface {
	Send(jobID string, ev Event) error
}
