package config

import "errors"

var (
	// ErrInvalidMaxJobs is returned when max_active_jobs is not greater than 0
	ErrInvalidMaxJobs = errors.New("max_active_jobs must be greater than 0")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
)
