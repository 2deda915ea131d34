package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/privacy-lens/internal/observability"
	"github.com/jonathan/privacy-lens/internal/types"
)

var (
	analyzePolicyFile string
	analyzePolicyURL  string
	analyzeForce      bool
	analyzeJSON       bool
	analyzeSimulate   bool
	analyzeDiscover   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze a website and print its privacy score",
	Long: `Loads the site in a headless browser, records trackers, summarizes data practices and scores it.
Stored results are reused while fresh (48h after a successful AI summary, 30 minutes otherwise) unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePolicyFile, "policy-file", "", "Read privacy policy text from a file")
	analyzeCmd.Flags().StringVar(&analyzePolicyURL, "policy-url", "", "Fetch privacy policy text from a URL")
	analyzeCmd.Flags().BoolVarP(&analyzeForce, "force", "f", false, "Ignore any stored result")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeSimulate, "simulate", false, "Simulate user interactions (scroll, consent click)")
	analyzeCmd.Flags().BoolVar(&analyzeDiscover, "discover-policy", false, "Look for a privacy policy link on the site when no policy is given")
	analyzeCmd.MarkFlagsMutuallyExclusive("policy-file", "policy-url")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("simulate") {
		cfg.SimulateInteractions = analyzeSimulate
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	req := types.AnalysisRequest{
		URL:          args[0],
		PolicyURL:    analyzePolicyURL,
		ForceRefresh: analyzeForce,
	}
	if analyzePolicyFile != "" {
		data, err := os.ReadFile(analyzePolicyFile)
		if err != nil {
			return fmt.Errorf("failed to read policy file: %w", err)
		}
		req.PolicyText = string(data)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStore()

	if analyzeDiscover && req.PolicyText == "" && req.PolicyURL == "" {
		link, derr := newPolicyFetcher(cfg).Discover(ctx, req.URL)
		if derr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", derr)
		} else {
			req.PolicyURL = link
		}
	}

	analyzer, _, closeAnalyzer, err := newAnalyzer(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer closeAnalyzer()

	out, err := analyzer.AnalyzeSite(ctx, req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if analyzeJSON {
		return encodeJSON(w, out)
	}

	p := observability.NewPrinter(w)
	p.PrintSite(out.Site, out.Cached, out.Warning)
	p.PrintSummary(out.Site.AISummary)
	p.PrintTrackers(out.Site.Trackers)
	return nil
}
