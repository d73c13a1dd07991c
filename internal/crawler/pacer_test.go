package crawler

import (
	"context"
	"testing"
	"time"
)

func TestPacerSpacesRequestsPerDomain(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx, "https://example.com/page"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("three requests completed in %v, expected pacing gaps", elapsed)
	}
}

func TestPacerDomainsAreIndependent(t *testing.T) {
	p := NewPacer(200 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := p.Wait(ctx, "https://a.example.com/"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := p.Wait(ctx, "https://b.example.com/"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("different domains waited on each other: %v", elapsed)
	}
}

func TestPacerWaitCancelled(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx := context.Background()

	// Burn the initial token so the next wait blocks.
	if err := p.Wait(ctx, "https://example.com/"); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(cancelCtx, "https://example.com/"); err == nil {
		t.Error("expected a context error while pacing")
	}
}

func TestPacerSetDomainDelay(t *testing.T) {
	p := NewPacer(time.Hour)
	p.SetDomainDelay("example.com", time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx, "https://example.com/"); err != nil {
			t.Fatalf("Wait with per-domain delay: %v", err)
		}
	}
}
