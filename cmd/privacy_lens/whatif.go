package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/privacy-lens/internal/observability"
	"github.com/jonathan/privacy-lens/internal/scoring"
	"github.com/jonathan/privacy-lens/internal/types"
)

var (
	whatIfBlocked []string
	whatIfJSON    bool
)

var whatIfCmd = &cobra.Command{
	Use:   "whatif <url>",
	Short: "Rescore a stored analysis as if tracker categories were blocked",
	Long: fmt.Sprintf(`Loads the stored analysis for <url> and recomputes its score with the lenient what-if model,
dropping trackers in every --block category. Categories: %s.`, categoryList()),
	Args: cobra.ExactArgs(1),
	RunE: runWhatIf,
}

func init() {
	whatIfCmd.Flags().StringSliceVar(&whatIfBlocked, "block", nil, "Tracker category to block (repeatable)")
	whatIfCmd.Flags().BoolVar(&whatIfJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(whatIfCmd)
}

func categoryList() string {
	names := make([]string, 0, len(types.AllTrackerCategories()))
	for _, c := range types.AllTrackerCategories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func parseCategories(values []string) ([]types.TrackerCategory, error) {
	out := make([]types.TrackerCategory, 0, len(values))
	for _, v := range values {
		matched := false
		for _, c := range types.AllTrackerCategories() {
			if strings.EqualFold(strings.TrimSpace(v), string(c)) {
				out = append(out, c)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown tracker category %q (want one of: %s)", v, categoryList())
		}
	}
	return out, nil
}

func runWhatIf(cmd *cobra.Command, args []string) error {
	blocked, err := parseCategories(whatIfBlocked)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStore()

	site, err := st.FindByURL(ctx, args[0])
	if err != nil {
		return err
	}
	if site == nil {
		return fmt.Errorf("no stored analysis for %s; run 'privacy_lens analyze %s' first", args[0], args[0])
	}

	result := scoring.WhatIf(scoring.Input{
		URL:        site.URL,
		PolicyText: site.PolicyText,
		Trackers:   site.Trackers,
		Summary:    site.AISummary,
	}, blocked)

	if whatIfJSON {
		return encodeJSON(cmd.OutOrStdout(), result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintScore(result)
	return nil
}
