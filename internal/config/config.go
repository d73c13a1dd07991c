// Package config provides configuration management for the crawl service.
// It defines the runtime settings shared by every crawl job along with
// defaults and validation.
package config

import (
	"time"
)

// AppConfig holds service-wide settings. Per-job parameters (seed URL,
// depth, keywords) live on crawler.JobSpec and are supplied at submit time.
type AppConfig struct {
	// Job scheduling
	MaxActiveJobs int `mapstructure:"max_active_jobs" yaml:"max_active_jobs"` // Bounded pool of concurrently running jobs

	// HTTP behaviour
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // Per-fetch timeout
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"`     // Pacing delay between fetches of one job
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header

	// Robots / advisory gate
	IgnoreRobots bool `mapstructure:"ignore_robots" yaml:"ignore_robots"` // Skip robots.txt report and advisory check

	// Persistence
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // Path to SQLite database file

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug|info|warn|error
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`   // Optional log file path (rotated)
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		MaxActiveJobs:  5,
		RequestTimeout: 20 * time.Second,
		RequestDelay:   1 * time.Second,
		UserAgent:      "DataWizards/1.0",
		IgnoreRobots:   false,
		DatabasePath:   "./crawl.db",
		LogLevel:       "info",
	}
}

// Validate checks if the configuration is valid.
func (c *AppConfig) Validate() error {
	if c.MaxActiveJobs <= 0 {
		return ErrInvalidMaxJobs
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// Keep a floor on pacing so one job cannot hammer a site
	if c.RequestDelay < 100*time.Millisecond {
		c.RequestDelay = 100 * time.Millisecond
	}

	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}

	return nil
}
