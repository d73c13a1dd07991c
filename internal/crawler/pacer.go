package crawler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out requests per domain so concurrent jobs hitting the
// same site share one politeness budget.
type Pacer struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	delay    time.Duration
}

// NewPacer creates a pacer with the given default inter-request delay.
func NewPacer(defaultDelay time.Duration) *Pacer {
	return &Pacer{
		limiters: make(map[string]*rate.Limiter),
		delay:    defaultDelay,
	}
}

// Wait blocks until a request to the URL's domain may proceed, or the
// context is cancelled.
func (p *Pacer) Wait(ctx context.Context, urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return err
	}
	return p.getLimiter(u.Host).Wait(ctx)
}

// SetDomainDelay overrides the delay for one domain, e.g. from a
// robots.txt crawl-delay directive. Non-positive delays reset to the
// default.
func (p *Pacer) SetDomainDelay(domain string, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if delay <= 0 {
		delay = p.delay
	}
	p.limiters[domain] = rate.NewLimiter(rate.Every(delay), 1)
}

func (p *Pacer) getLimiter(domain string) *rate.Limiter {
	p.mu.RLock()
	limiter, exists := p.limiters[domain]
	p.mu.RUnlock()
	if exists {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists := p.limiters[domain]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Every(p.delay), 1)
	p.limiters[domain] = limiter
	return limiter
}
