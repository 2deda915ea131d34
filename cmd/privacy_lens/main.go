// Package main provides the entry point for the privacy-lens CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "privacy_lens",
	Short: "Website privacy analysis",
	Long: `privacy_lens loads websites in a headless browser, records the third-party trackers they contact,
summarizes their data practices and computes a reproducible privacy score and grade.

Configuration is read from a JSON or YAML file (--config), then the environment
(GEMINI_API_KEY, DATABASE_URL, SQLITE_PATH, PORT, BROWSER_DRIVER, NAV_TIMEOUT). Flags override both.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
