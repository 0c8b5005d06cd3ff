package main

import (
	"ExpressionAPI/internal/config"
	"ExpressionAPI/pkg/log"
	"ExpressionAPI/pkg/tmpstore"
	"time"

	"github.com/spf13/cobra"
)

var orphanAge time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().DurationVar(&orphanAge, "orphan-age", time.Hour, "Remove temporary uploads older than this at startup")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := log.NewLogger()

	store, err := tmpstore.New(logger)
	if err != nil {
		return err
	}

	if removed, err := store.Sweep(orphanAge); err != nil {
		logger.Warnf("Failed to sweep temp dir %s: %v", store.Dir(), err)
	} else if removed > 0 {
		logger.Infof("Removed %d orphaned temp files from %s", removed, store.Dir())
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithMiddleware(),
		config.WithTempStore(store),
		config.WithS3Client(),
		config.WithRedisCache(),
		config.WithUtils(),
	)
	if err != nil {
		return err
	}

	server.RegisterHandler()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	logger.Info("Server started successfully")

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	logger.Info("Shutting down server...")
	return server.Shutdown()
}
