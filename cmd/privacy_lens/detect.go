package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/privacy-lens/internal/observability"
)

var (
	detectJSON      bool
	detectSimulate  bool
	detectFirstPart bool
)

var detectCmd = &cobra.Command{
	Use:   "detect <url> [url...]",
	Short: "List the trackers contacted by one or more websites",
	Long:  `Runs raw tracker detection without summarizing, scoring or storing. Several URLs are visited one after another.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Print the result as JSON")
	detectCmd.Flags().BoolVar(&detectSimulate, "simulate", false, "Simulate user interactions (scroll, consent click)")
	detectCmd.Flags().BoolVar(&detectFirstPart, "include-first-party", false, "Keep trackers served from the page's own hostname")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := detectOptions(cfg)
	if cmd.Flags().Changed("simulate") {
		opts.SimulateInteractions = detectSimulate
	}
	if cmd.Flags().Changed("include-first-party") {
		opts.IncludeFirstParty = detectFirstPart
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	detector := newDetector(cfg)
	w := cmd.OutOrStdout()
	p := observability.NewPrinter(w)

	if len(args) == 1 {
		res, err := detector.Detect(ctx, args[0], opts)
		if err != nil {
			return err
		}
		if detectJSON {
			return encodeJSON(w, res)
		}
		p.PrintDetection(res)
		return nil
	}

	records := detector.DetectBatch(ctx, args, opts)
	if detectJSON {
		return encodeJSON(w, records)
	}
	p.PrintBatch(records)
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
