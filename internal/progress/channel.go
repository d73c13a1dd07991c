package progress

import (
	"sync"
	"sync/atomic"
)

// defaultBacklog bounds how many undelivered events a channel retains.
const defaultBacklog = 256

// Channel is the per-job event pipe. Publish never blocks the caller;
// when the backlog is full the oldest undelivered event is dropped.
type Channel struct {
	jobID     string
	transport Transport

	mu     sync.Mutex
	closed bool

	events  chan Event
	done    chan struct{}
	dropped atomic.Int64
}

// NewChannel starts the delivery pump for one job.
func NewChannel(jobID string, transport Transport) *Channel {
	c := &Channel{
		jobID:     jobID,
		transport: transport,
		events:    make(chan Event, defaultBacklog),
		done:      make(chan struct{}),
	}
	go c.run()
	return c
}

// Publish queues an event for delivery. Events published after Close
// are dropped.
func (c *Channel) Publish(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.dropped.Add(1)
		return
	}

	select {
	case c.events <- ev:
		return
	default:
	}

	// Backlog full: discard the oldest event to make room.
	select {
	case <-c.events:
		c.dropped.Add(1)
	default:
	}
	select {
	case c.events <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Close stops accepting events and waits until the pump has attempted
// delivery of everything still queued.
func (c *Channel) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	c.mu.Unlock()
	<-c.done
}

// Dropped reports how many events were discarded under backpressure.
func (c *Channel) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Channel) run() {
	defer close(c.done)

	var pending []Event
	for ev := range c.events {
		pending = append(pending, ev)
		if len(pending) > defaultBacklog {
			pending = pending[1:]
			c.dropped.Add(1)
		}
		pending = c.deliver(pending)
	}
	c.deliver(pending)
}

// deliver sends queued events in order, stopping at the first
// transport failure so order is preserved for the next attempt.
func (c *Channel) deliver(pending []Event) []Event {
	for len(pending) > 0 {
		if err := c.transport.Send(c.jobID, pending[0]); err != nil {
			return pending
		}
		pending = pending[1:]
	}
	return nil
}

// Info publishes an informational event.
func (c *Channel) Info(message string, data map[string]any) {
	c.Publish(NewEvent(KindInfo, message, data))
}

// Detail publishes a per-page detail event.
func (c *Channel) Detail(message string, data map[string]any) {
	c.Publish(NewEvent(KindDetail, message, data))
}

// Success publishes a success event.
func (c *Channel) Success(message string, data map[string]any) {
	c.Publish(NewEvent(KindSuccess, message, data))
}

// Warning publishes a warning event.
func (c *Channel) Warning(message string, data map[string]any) {
	c.Publish(NewEvent(KindWarning, message, data))
}

// Error publishes an error event.
func (c *Channel) Error(message string, data map[string]any) {
	c.Publish(NewEvent(KindError, message, data))
}

// Network publishes a network metrics event.
func (c *Channel) Network(message string, data map[string]any) {
	c.Publish(NewEvent(KindNetwork, message, data))
}

// Completion publishes the terminal event for the job.
func (c *Channel) Completion(message string, data map[string]any) {
	c.Publish(NewEvent(KindCompletion, message, data))
}
