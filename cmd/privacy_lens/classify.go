package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/privacy-lens/internal/classify"
	"github.com/jonathan/privacy-lens/internal/observability"
	"github.com/jonathan/privacy-lens/internal/types"
)

var (
	classifySite string
	classifyJSON bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <hostname>",
	Short: "Attribute a tracker hostname to a product, category and company",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifySite, "site", "", "Classify relative to this site (hosts under its domain are first-party)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	var c types.TrackerClassification
	if classifySite != "" {
		c = classify.ClassifyForSite(args[0], classifySite)
	} else {
		c = classify.Classify(args[0])
	}

	if classifyJSON {
		return encodeJSON(cmd.OutOrStdout(), c)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintClassification(c)
	return nil
}
