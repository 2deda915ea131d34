package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/privacy-lens/internal/config"
	"github.com/jonathan/privacy-lens/internal/crawling"
	"github.com/jonathan/privacy-lens/internal/db"
	"github.com/jonathan/privacy-lens/internal/fetch"
	"github.com/jonathan/privacy-lens/internal/llm"
	"github.com/jonathan/privacy-lens/internal/pipeline"
	"github.com/jonathan/privacy-lens/internal/policy"
	"github.com/jonathan/privacy-lens/internal/summary"
)

// detectGrace covers the settle delay and interaction simulation on top of
// navigation.
const detectGrace = 30 * time.Second

// detectTimeout bounds a whole detection, which keeps running for joined
// callers after the first one goes away.
func detectTimeout(cfg config.Config) time.Duration {
	return cfg.NavigationTimeout + detectGrace
}

// resolveConfig merges, in decreasing priority: explicitly set flags (applied
// by the caller afterwards), the config file, the environment, then defaults.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if verbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", configPath)
		}
	}

	env, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	cfg = cfg.MergeWithDefaults(*env)
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}

	return cfg, nil
}

// newLauncher returns the configured browser driver.
func newLauncher(cfg config.Config) crawling.Launcher {
	if cfg.BrowserDriver == config.DriverRod {
		return &crawling.RodLauncher{BinPath: cfg.BrowserPath, ControlURL: cfg.BrowserControlURL}
	}
	return &crawling.ChromeLauncher{ExecPath: cfg.BrowserPath, ControlURL: cfg.BrowserControlURL}
}

func newDetector(cfg config.Config) *crawling.Detector {
	return crawling.NewDetector(newLauncher(cfg), crawling.WithVerbose(cfg.Verbose))
}

func detectOptions(cfg config.Config) crawling.Options {
	return crawling.Options{
		Timeout:              cfg.NavigationTimeout,
		SimulateInteractions: cfg.SimulateInteractions,
		IncludeFirstParty:    cfg.IncludeFirstParty,
		Verbose:              cfg.Verbose,
	}
}

// openStore opens Postgres when DATABASE_URL is set, else SQLite, else
// memory. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (pipeline.Store, func(), error) {
	switch {
	case cfg.MemoryStore:
		return db.NewMemoryStore(), func() {}, nil

	case cfg.DatabaseURL != "":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		if cfg.Verbose {
			log.Printf("[STORE] Using PostgreSQL")
		}
		return database, database.Close, nil

	case cfg.SQLitePath != "":
		sqlite, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Verbose {
			log.Printf("[STORE] Using SQLite at %s", cfg.SQLitePath)
		}
		return sqlite, func() { _ = sqlite.Close() }, nil

	default:
		if cfg.Verbose {
			log.Printf("[STORE] No database configured, results are kept in memory")
		}
		return db.NewMemoryStore(), func() {}, nil
	}
}

// newSynthesizer builds the summary synthesizer. Without an API key the
// synthesizer still works and returns rule-based summaries.
func newSynthesizer(ctx context.Context, cfg config.Config) (*summary.Synthesizer, func(), error) {
	opts := []summary.Option{summary.WithVerbose(cfg.Verbose)}
	if cfg.APIKey == "" {
		if cfg.Verbose {
			log.Printf("[SUMMARY] GEMINI_API_KEY not set, AI summaries unavailable")
		}
		return summary.New(opts...), func() {}, nil
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	opts = append(opts, summary.WithCompleter(client))
	return summary.New(opts...), func() { _ = client.Close() }, nil
}

func newPolicyFetcher(cfg config.Config) *policy.Fetcher {
	return policy.NewFetcher(fetch.NewCachedFetcher(nil), policy.BrowserRenderer(newLauncher(cfg), cfg.NavigationTimeout, cfg.Verbose), cfg.Verbose)
}

// newAnalyzer wires the full analysis pipeline. The returned func releases
// every collaborator.
func newAnalyzer(ctx context.Context, cfg config.Config, st pipeline.Store) (*pipeline.Analyzer, *crawling.Detector, func(), error) {
	synth, closeSynth, err := newSynthesizer(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	detector := newDetector(cfg)
	analyzer := pipeline.NewAnalyzer(detector, synth,
		pipeline.WithStore(st),
		pipeline.WithPolicyFetcher(newPolicyFetcher(cfg)),
		pipeline.WithDetectOptions(detectOptions(cfg)),
		pipeline.WithDetectTimeout(detectTimeout(cfg)),
		pipeline.WithVerbose(cfg.Verbose),
	)
	return analyzer, detector, closeSynth, nil
}
