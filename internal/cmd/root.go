// Package cmd provides the command-line interface for the crawl
// service. It handles flag and configuration loading, wires storage
// and the crawl engine together, and runs one job to completion.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nishajoths/Data-Wizards/internal/config"
	"github.com/nishajoths/Data-Wizards/internal/crawler"
	"github.com/nishajoths/Data-Wizards/internal/logging"
	"github.com/nishajoths/Data-Wizards/internal/progress"
	"github.com/nishajoths/Data-Wizards/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "crawler [URL]",
	Short: "A keyword-filtering site crawler with live progress",
	Long: `Data-Wizards crawls a site from a seed URL, follows same-domain
links within a depth budget, keeps pages that match the given keywords,
extracts structured content from them, and reports progress while the
crawl stays interruptible.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCrawl,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./crawler.yml)")
	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Per-job parameters
	rootCmd.Flags().IntP("depth", "D", 1, "Maximum link depth from the seed (0 = seed page only)")
	rootCmd.Flags().IntP("max-pages", "l", 0, "Stop after fetching N pages (0 = unlimited)")
	rootCmd.Flags().StringSliceP("keywords", "k", []string{}, "Keywords a page must match to be kept (empty = keep everything)")
	rootCmd.Flags().Bool("include-meta", false, "Also match keywords against title and meta tags")
	rootCmd.Flags().String("card-selector", "", "CSS selector for repeating card elements to extract individually")
	rootCmd.Flags().String("pagination-selector", "", "CSS selector for the pagination region")

	// Service settings
	rootCmd.Flags().IntP("max-active-jobs", "c", 5, "Number of concurrently running crawl jobs")
	rootCmd.Flags().DurationP("timeout", "t", 20*time.Second, "HTTP request timeout")
	rootCmd.Flags().DurationP("delay", "r", time.Second, "Delay between fetches on one domain")
	rootCmd.Flags().StringP("user-agent", "u", "DataWizards/1.0", "HTTP User-Agent header")
	rootCmd.Flags().Bool("ignore-robots", false, "Skip the robots.txt report and advisory check")
	rootCmd.Flags().StringP("database", "d", "./crawl.db", "Path to SQLite database file")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-file", "", "Optional log file path (size-rotated)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"max_depth", "depth"},
		{"max_pages", "max-pages"},
		{"keywords", "keywords"},
		{"include_meta", "include-meta"},
		{"card_selector", "card-selector"},
		{"pagination_selector", "pagination-selector"},
		{"max_active_jobs", "max-active-jobs"},
		{"request_timeout", "timeout"},
		{"request_delay", "delay"},
		{"user_agent", "user-agent"},
		{"ignore_robots", "ignore-robots"},
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("crawler")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the service configuration from defaults overlaid
// with viper values.
func loadConfig(v *viper.Viper) (*config.AppConfig, error) {
	cfg := config.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// jobSpecFrom builds the submit-time job parameters.
func jobSpecFrom(v *viper.Viper, seedURL string) crawler.JobSpec {
	return crawler.JobSpec{
		SeedURL:            seedURL,
		MaxDepth:           v.GetInt("max_depth"),
		MaxPages:           v.GetInt("max_pages"),
		Keywords:           v.GetStringSlice("keywords"),
		IncludeMeta:        v.GetBool("include_meta"),
		CardSelector:       v.GetString("card_selector"),
		PaginationSelector: v.GetString("pagination_selector"),
	}
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("DataWizards/%s", version)
	}
	return "DataWizards/dev"
}

func showCurrentConfig(cfg *config.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: configuration validation failed: %v\n\n", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current Data-Wizards configuration\n")
	fmt.Printf("# Config file search path: ./crawler.yml\n")
	fmt.Printf("# Environment variable prefix: DW_\n\n")
	fmt.Print(string(yamlData))
	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("user-agent") && cfg.UserAgent == "DataWizards/1.0" {
		cfg.UserAgent = generateUserAgent()
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if len(args) != 1 {
		return fmt.Errorf("expected exactly one seed URL argument\nUsage: %s [URL]", os.Args[0])
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCloser, err := logging.Setup(logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if logCloser != nil {
		defer func() { _ = logCloser.Close() }()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	engine := crawler.NewEngine(cfg, store, progress.NewLogTransport(nil), nil)
	defer engine.Close()

	spec := jobSpecFrom(viper.GetViper(), args[0])
	job, err := engine.Submit(cmd.Context(), spec)
	if err != nil {
		return fmt.Errorf("failed to submit crawl job: %w", err)
	}

	// First SIGINT asks the job to stop at the next checkpoint; a
	// second one exits immediately.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Interrupt requested, finishing the in-flight page...")
		engine.RequestInterrupt(job.ID)
		<-sigCh
		os.Exit(1)
	}()

	engine.Wait()

	snap := job.Snapshot()
	fmt.Printf("Crawl %s: %s\n", job.ID, snap.Status)
	fmt.Printf("  Pages fetched:  %d\n", snap.PagesFound)
	fmt.Printf("  Pages retained: %d\n", snap.PagesScraped)
	fmt.Printf("  Items found:    %d\n", snap.ItemsFound)
	fmt.Printf("  Errors:         %d\n", len(snap.Errors))
	if snap.Status == crawler.StatusError {
		return fmt.Errorf("crawl failed: %s", snap.ErrorMessage)
	}
	return nil
}
