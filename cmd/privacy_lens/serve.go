package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/privacy-lens/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the analysis, detection, scoring and classification endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = strconv.Itoa(servePort)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	port, _ := strconv.Atoi(cfg.Port)

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	analyzer, detector, closeAnalyzer, err := newAnalyzer(ctx, cfg, st)
	if err != nil {
		closeStore()
		return err
	}

	srv, err := server.New(server.Config{
		Port:          port,
		Analyzer:      analyzer,
		Sites:         st,
		Detector:      detector,
		DetectOptions: detectOptions(cfg),
		Closers:       []func(){closeAnalyzer, closeStore},
	})
	if err != nil {
		closeAnalyzer()
		closeStore()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
