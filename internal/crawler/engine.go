// Package crawler implements the frontier-driven crawl engine: a
// bounded pool of per-job workers that fetch pages sequentially,
// filter and extract content, follow same-domain links and pagination,
// and publish live progress, with cooperative interruption.
package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nishajoths/Data-Wizards/internal/config"
	"github.com/nishajoths/Data-Wizards/internal/page"
	"github.com/nishajoths/Data-Wizards/internal/parser"
	"github.com/nishajoths/Data-Wizards/internal/progress"
)

// maxChildLinks caps the per-page child link list recorded on a
// PageOutcome. Enqueueing is not capped; only the stored sample is.
const maxChildLinks = 50

// Engine runs crawl jobs. Each submitted job gets a dedicated worker
// goroutine; a slot pool bounds how many run at once, the rest stay
// queued. Within one job, fetches are sequential.
type Engine struct {
	cfg       *config.AppConfig
	store     ProjectStore
	transport progress.Transport
	checker   PermissionChecker

	fetcher  *Fetcher
	pacer    *Pacer
	robots   *RobotsFetcher
	registry *JobRegistry

	slots chan struct{}
	wg    sync.WaitGroup
}

// NewEngine wires an engine from configuration and collaborators. A
// nil transport falls back to structured logs; a nil checker allows
// every crawl.
func NewEngine(cfg *config.AppConfig, store ProjectStore, transport progress.Transport, checker PermissionChecker) *Engine {
	if transport == nil {
		transport = progress.NewLogTransport(nil)
	}
	if checker == nil {
		checker = PermissiveChecker{}
	}

	fetcher := NewFetcher(cfg.UserAgent, cfg.RequestTimeout)

	return &Engine{
		cfg:       cfg,
		store:     store,
		transport: transport,
		checker:   checker,
		fetcher:   fetcher,
		pacer:     NewPacer(cfg.RequestDelay),
		robots:    NewRobotsFetcher(fetcher, cfg.UserAgent),
		registry:  NewJobRegistry(),
		slots:     make(chan struct{}, cfg.MaxActiveJobs),
	}
}

// Submit validates a spec, persists the new job as queued, and starts
// its worker. The returned Job is the caller's control handle.
func (e *Engine) Submit(ctx context.Context, spec JobSpec) (*Job, error) {
	domain, err := spec.Validate()
	if err != nil {
		return nil, err
	}

	job := newJob(spec, domain)
	e.registry.Add(job)
	if err := e.store.CreateJob(job.Snapshot()); err != nil {
		e.registry.Delete(job.ID)
		return nil, err
	}

	slog.Info("Job submitted", "job_id", job.ID, "seed", spec.SeedURL, "max_depth", spec.MaxDepth, "max_pages", spec.MaxPages)

	e.wg.Add(1)
	go e.run(ctx, job)
	return job, nil
}

// RequestInterrupt raises the interrupt flag on a live job. It returns
// false when the job is unknown or already finished.
func (e *Engine) RequestInterrupt(jobID string) bool {
	job, ok := e.registry.Get(jobID)
	if !ok {
		return false
	}
	job.RequestInterrupt()
	slog.Info("Interrupt requested", "job_id", jobID)
	return true
}

// Snapshot returns a job's current state, falling back to the store
// for jobs that already finished.
func (e *Engine) Snapshot(jobID string) (*JobSnapshot, error) {
	if job, ok := e.registry.Get(jobID); ok {
		snap := job.Snapshot()
		return &snap, nil
	}
	return e.store.GetJob(jobID)
}

// Active returns the snapshots of all live jobs.
func (e *Engine) Active() []JobSnapshot {
	return e.registry.Snapshots()
}

// Wait blocks until every submitted job has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close releases pooled HTTP connections. Call after Wait.
func (e *Engine) Close() {
	e.fetcher.Close()
}

// run is the per-job worker. It holds a pool slot for the whole crawl
// and drives the frontier loop to a terminal status.
func (e *Engine) run(ctx context.Context, job *Job) {
	defer e.wg.Done()
	defer e.registry.Delete(job.ID)

	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		e.finish(job, nil, StatusInterrupted, "cancelled before start")
		return
	}
	defer func() { <-e.slots }()

	ch := progress.NewChannel(job.ID, e.transport)
	defer ch.Close()

	if job.Interrupted() || ctx.Err() != nil {
		e.finish(job, ch, StatusInterrupted, "")
		return
	}

	spec := job.Spec
	job.setRunning()
	e.persist(job)
	ch.Info("crawl started", map[string]any{
		"seed":      spec.SeedURL,
		"max_depth": spec.MaxDepth,
		"max_pages": spec.MaxPages,
		"keywords":  len(spec.Keywords),
	})

	if !e.cfg.IgnoreRobots {
		report := e.robots.Report(ctx, spec.SeedURL)
		job.setRobots(report)
		if report.CrawlDelay > 0 {
			e.pacer.SetDomainDelay(job.Domain, report.CrawlDelay)
		}
		ch.Info("robots.txt report", map[string]any{
			"fetched":        report.Fetched,
			"disallow_rules": len(report.Disallowed),
			"sitemaps":       len(report.Sitemaps),
		})

		allowed, err := e.checker.CanCrawl(ctx, spec.SeedURL, report)
		if err != nil {
			// No answer from the advisory service defaults to allowed.
			slog.Warn("Permission check unavailable", "job_id", job.ID, "error", err)
			allowed = true
		}
		if !allowed {
			e.finish(job, ch, StatusError, "crawl not permitted for "+spec.SeedURL)
			return
		}
	}

	frontier, err := NewFrontier(spec.SeedURL, spec.MaxDepth)
	if err != nil {
		e.finish(job, ch, StatusError, err.Error())
		return
	}

	for {
		if job.Interrupted() || ctx.Err() != nil {
			e.finish(job, ch, StatusInterrupted, "")
			return
		}
		if spec.MaxPages > 0 && job.fetchedSoFar() >= spec.MaxPages {
			e.finish(job, ch, StatusCompleted, "")
			return
		}

		entry, ok := frontier.Dequeue()
		if !ok {
			e.finish(job, ch, StatusCompleted, "")
			return
		}

		if err := e.pacer.Wait(ctx, entry.URL); err != nil {
			// Context cancelled while pacing; the loop top handles it.
			continue
		}

		ch.Info("fetching page", map[string]any{"url": entry.URL, "depth": entry.Depth})

		// The fetch context is deliberately detached: interruption never
		// kills an in-flight request, it only stops new work.
		result, failure := e.fetcher.Fetch(context.Background(), entry.URL)
		if failure != nil {
			e.recordFetchFailure(job, ch, entry, failure)
			if entry.Depth == 0 && entry.SourceURL == "" {
				e.finish(job, ch, StatusError, "seed fetch failed: "+failure.Error())
				return
			}
			continue
		}

		job.countFetched()
		ch.Network("fetch metrics", metricsData(entry.URL, result.Metrics))

		e.processPage(job, ch, frontier, entry, result)
		e.persist(job)
		if job.Status().Terminal() {
			return
		}
	}
}

// processPage runs the filter, traversal, and extraction stages for
// one fetched page and persists its outcome. Filtering controls what
// is stored, never what is traversed.
func (e *Engine) processPage(job *Job, ch *progress.Channel, frontier *Frontier, entry FrontierEntry, result *FetchResult) {
	spec := job.Spec
	htmlContent := string(result.Body)

	match, err := page.MatchKeywords(htmlContent, spec.Keywords, spec.IncludeMeta)
	if err != nil {
		e.recordPageError(job, ch, entry.URL, "parse_error", err.Error())
		return
	}

	outcome := &PageOutcome{
		URL:             entry.URL,
		Depth:           entry.Depth,
		SourceURL:       entry.SourceURL,
		Status:          result.Status,
		Metrics:         result.Metrics,
		Retained:        match.Matched,
		MatchedKeywords: match.Keywords,
		Contexts:        match.Contexts,
		FetchedAt:       time.Now().UTC(),
	}

	if entry.Depth < spec.MaxDepth {
		e.enqueueChildren(ch, frontier, entry, result.Body, outcome)
	}

	// Pagination is a same-level continuation, so it runs even at the
	// depth limit; the frontier's visited set breaks cycles.
	if next, ok := page.FindNextPage(page.NextPageQuery{
		HTML:           htmlContent,
		CurrentURL:     entry.URL,
		RegionSelector: spec.PaginationSelector,
		Visited:        frontier.Visited,
	}); ok {
		if frontier.TryEnqueue(next, entry.Depth, entry.URL) {
			ch.Detail("next page queued", map[string]any{"url": next})
		}
	}

	if match.Matched {
		items := 0
		if record, err := page.ExtractPage(htmlContent, entry.URL); err == nil {
			outcome.Record = record
			items++
		}
		if spec.CardSelector != "" {
			if cards, err := page.ExtractCards(htmlContent, spec.CardSelector, entry.URL); err == nil && len(cards) > 0 {
				outcome.CardRecords = cards
				items += len(cards)
			}
		}
		job.countScraped(items)

		ch.Success("page retained", map[string]any{"url": entry.URL, "keywords": match.Keywords})
		if outcome.Record != nil {
			ch.Detail("content extracted", map[string]any{
				"blocks": len(outcome.Record.Blocks),
				"links":  len(outcome.Record.Links),
				"images": len(outcome.Record.Images),
				"prices": len(outcome.Record.Prices),
				"cards":  len(outcome.CardRecords),
			})
		}
	} else {
		ch.Warning("page filtered out", map[string]any{"url": entry.URL})
	}

	if err := e.store.AppendPageResult(job.ID, outcome); err != nil {
		// The store is the system of record; without it the crawl has
		// nowhere to put results.
		e.finish(job, ch, StatusError, "store failure: "+err.Error())
	}
}

// enqueueChildren extracts same-domain links and feeds them to the
// frontier at depth+1.
func (e *Engine) enqueueChildren(ch *progress.Channel, frontier *Frontier, entry FrontierEntry, body []byte, outcome *PageOutcome) {
	extractor, err := parser.NewLinkExtractor(entry.URL)
	if err != nil {
		return
	}
	links, err := extractor.Extract(body)
	if err != nil {
		return
	}

	enqueued := 0
	for _, child := range links.Links {
		if frontier.TryEnqueue(child, entry.Depth+1, entry.URL) {
			enqueued++
		}
	}

	outcome.ChildLinks = links.Links
	if len(outcome.ChildLinks) > maxChildLinks {
		outcome.ChildLinks = outcome.ChildLinks[:maxChildLinks]
	}

	ch.Detail("links discovered", map[string]any{
		"url":      entry.URL,
		"found":    len(links.Links),
		"enqueued": enqueued,
	})
}

func (e *Engine) recordFetchFailure(job *Job, ch *progress.Channel, entry FrontierEntry, failure *FetchFailure) {
	jobErr := JobError{
		URL:        entry.URL,
		Kind:       string(failure.Kind),
		Message:    failure.Error(),
		OccurredAt: time.Now().UTC(),
	}
	job.addError(jobErr)
	if err := e.store.AppendJobError(job.ID, jobErr); err != nil {
		slog.Error("Failed to save job error", "job_id", job.ID, "error", err)
	}
	ch.Error("fetch failed", map[string]any{"url": entry.URL, "kind": string(failure.Kind), "status": failure.Status})
	ch.Network("fetch metrics", metricsData(entry.URL, failure.Metrics))
}

func (e *Engine) recordPageError(job *Job, ch *progress.Channel, url, kind, message string) {
	jobErr := JobError{URL: url, Kind: kind, Message: message, OccurredAt: time.Now().UTC()}
	job.addError(jobErr)
	if err := e.store.AppendJobError(job.ID, jobErr); err != nil {
		slog.Error("Failed to save job error", "job_id", job.ID, "error", err)
	}
	ch.Error("page processing failed", map[string]any{"url": url, "kind": kind})
}

// finish moves the job to a terminal status, persists it, and emits
// the completion event. Safe to call with a nil channel before the
// progress pipe exists.
func (e *Engine) finish(job *Job, ch *progress.Channel, status JobStatus, errorMessage string) {
	job.finish(status, errorMessage)
	snap := job.Snapshot()

	if err := e.store.UpdateJobStatus(snap); err != nil {
		slog.Error("Failed to persist final job status", "job_id", job.ID, "error", err)
	}

	if ch != nil {
		data := map[string]any{
			"status":        string(snap.Status),
			"pages_found":   snap.PagesFound,
			"pages_scraped": snap.PagesScraped,
			"items_found":   snap.ItemsFound,
		}
		if errorMessage != "" {
			data["error"] = errorMessage
		}
		ch.Completion("crawl finished", data)
	}

	slog.Info("Job finished", "job_id", job.ID, "status", string(snap.Status),
		"pages_found", snap.PagesFound, "pages_scraped", snap.PagesScraped, "errors", len(snap.Errors))
}

func (e *Engine) persist(job *Job) {
	if err := e.store.UpdateJobStatus(job.Snapshot()); err != nil {
		slog.Error("Failed to persist job status", "job_id", job.ID, "error", err)
	}
}

func metricsData(url string, m FetchMetrics) map[string]any {
	return map[string]any{
		"url":         url,
		"status":      m.Status,
		"ttfb_ms":     m.TTFB.Milliseconds(),
		"duration_ms": m.Duration.Milliseconds(),
		"bytes":       m.Size,
	}
}
