package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFlagDefaults(t *testing.T) {
	flags := []struct {
		name string
		want string
	}{
		{"depth", "1"},
		{"max-pages", "0"},
		{"include-meta", "false"},
		{"card-selector", ""},
		{"pagination-selector", ""},
		{"max-active-jobs", "5"},
		{"timeout", "20s"},
		{"delay", "1s"},
		{"user-agent", "DataWizards/1.0"},
		{"ignore-robots", "false"},
		{"database", "./crawl.db"},
		{"log-level", "info"},
	}

	for _, tt := range flags {
		flag := rootCmd.Flags().Lookup(tt.name)
		if flag == nil {
			t.Errorf("flag --%s not registered", tt.name)
			continue
		}
		if flag.DefValue != tt.want {
			t.Errorf("flag --%s default = %q, expected %q", tt.name, flag.DefValue, tt.want)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	v := viper.New()
	v.Set("max_active_jobs", 2)
	v.Set("request_timeout", "7s")
	v.Set("user_agent", "custom/1.0")
	v.Set("database_path", "/tmp/other.db")

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MaxActiveJobs != 2 {
		t.Errorf("MaxActiveJobs = %d", cfg.MaxActiveJobs)
	}
	if cfg.RequestTimeout != 7*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.UserAgent != "custom/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.DatabasePath != "/tmp/other.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	cfg, err := loadConfig(viper.New())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.MaxActiveJobs != 5 || cfg.RequestTimeout != 20*time.Second {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestJobSpecFrom(t *testing.T) {
	v := viper.New()
	v.Set("max_depth", 3)
	v.Set("max_pages", 40)
	v.Set("keywords", []string{"intern", "jobs"})
	v.Set("include_meta", true)
	v.Set("card_selector", ".product-card")
	v.Set("pagination_selector", ".pager")

	spec := jobSpecFrom(v, "https://example.com/start")
	if spec.SeedURL != "https://example.com/start" {
		t.Errorf("SeedURL = %q", spec.SeedURL)
	}
	if spec.MaxDepth != 3 || spec.MaxPages != 40 {
		t.Errorf("bounds = %d/%d", spec.MaxDepth, spec.MaxPages)
	}
	if len(spec.Keywords) != 2 || !spec.IncludeMeta {
		t.Errorf("filter params = %v/%v", spec.Keywords, spec.IncludeMeta)
	}
	if spec.CardSelector != ".product-card" || spec.PaginationSelector != ".pager" {
		t.Errorf("selectors = %q/%q", spec.CardSelector, spec.PaginationSelector)
	}

	if _, err := spec.Validate(); err != nil {
		t.Errorf("spec should validate: %v", err)
	}
}

func TestRunCrawlRequiresSeedURL(t *testing.T) {
	err := runCrawl(rootCmd, nil)
	if err == nil {
		t.Fatal("expected an error without a seed URL")
	}
}
