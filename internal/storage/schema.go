package storage

const schemaSQL = `
-- One row per crawl job; counters and status are updated in place as
-- the run progresses, then frozen at the terminal transition.
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    seed_url TEXT NOT NULL,
    domain TEXT NOT NULL,
    max_depth INTEGER NOT NULL DEFAULT 0,
    max_pages INTEGER NOT NULL DEFAULT 0,
    keywords TEXT,
    include_meta INTEGER NOT NULL DEFAULT 0,
    card_selector TEXT,
    pagination_selector TEXT,
    status TEXT NOT NULL DEFAULT 'queued' CHECK (status IN ('queued', 'running', 'completed', 'interrupted', 'error')),
    pages_found INTEGER NOT NULL DEFAULT 0,
    pages_scraped INTEGER NOT NULL DEFAULT 0,
    items_found INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    robots_report TEXT,
    started_at DATETIME,
    ended_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

-- One row per successfully fetched page. Result writes are idempotent
-- on (job_id, url); retried submissions overwrite the earlier row.
CREATE TABLE IF NOT EXISTS page_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL,
    url TEXT NOT NULL,
    depth INTEGER NOT NULL DEFAULT 0,
    source_url TEXT,
    status_code INTEGER,
    ttfb_ms INTEGER,
    duration_ms INTEGER,
    size_bytes INTEGER,
    retained INTEGER NOT NULL DEFAULT 0,
    matched_keywords TEXT,
    contexts TEXT,
    record TEXT,
    card_records TEXT,
    child_links TEXT,
    fetched_at DATETIME,
    UNIQUE(job_id, url)
);

CREATE INDEX IF NOT EXISTS idx_page_results_job ON page_results(job_id);
CREATE INDEX IF NOT EXISTS idx_page_results_retained ON page_results(job_id, retained);

-- Page-level errors accumulated during a run.
CREATE TABLE IF NOT EXISTS job_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL,
    url TEXT NOT NULL,
    error_type TEXT NOT NULL,
    error_message TEXT,
    occurred_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_job_errors_job ON job_errors(job_id);
`
