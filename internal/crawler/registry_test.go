package crawler

import "testing"

func TestJobRegistry(t *testing.T) {
	r := NewJobRegistry()

	job := newJob(JobSpec{SeedURL: "https://example.com/"}, "example.com")
	r.Add(job)

	if r.Len() != 1 {
		t.Fatalf("Len = %d", r.Len())
	}
	got, ok := r.Get(job.ID)
	if !ok || got != job {
		t.Fatal("Get did not return the registered job")
	}
	if _, ok := r.Get("nope"); ok {
		t.Error("Get returned a job for an unknown ID")
	}

	snaps := r.Snapshots()
	if len(snaps) != 1 || snaps[0].ID != job.ID || snaps[0].Status != StatusQueued {
		t.Errorf("Snapshots = %+v", snaps)
	}

	r.Delete(job.ID)
	if r.Len() != 0 {
		t.Errorf("Len after delete = %d", r.Len())
	}
}

func TestJobTerminalIsSticky(t *testing.T) {
	job := newJob(JobSpec{SeedURL: "https://example.com/"}, "example.com")

	job.setRunning()
	job.finish(StatusInterrupted, "")
	job.finish(StatusCompleted, "")
	job.setRunning()

	if got := job.Status(); got != StatusInterrupted {
		t.Errorf("Status = %q, terminal state must not change", got)
	}

	select {
	case <-job.Done():
	default:
		t.Error("Done must be closed after finish")
	}
}

func TestJobCounters(t *testing.T) {
	job := newJob(JobSpec{SeedURL: "https://example.com/"}, "example.com")

	job.countFetched()
	job.countFetched()
	job.countScraped(3)

	snap := job.Snapshot()
	if snap.PagesFound != 2 || snap.PagesScraped != 1 || snap.ItemsFound != 3 {
		t.Errorf("counters = %d/%d/%d", snap.PagesFound, snap.PagesScraped, snap.ItemsFound)
	}
	if snap.PagesScraped > snap.PagesFound {
		t.Error("pages scraped can never exceed pages found")
	}
}
