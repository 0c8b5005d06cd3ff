package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "expressionapi",
	Short:   "Facial expression and landmark analysis API",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Loaded before the logger is built so LOG_LEVEL from .env applies.
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: no .env file loaded: %v\n", err)
		}
	},
	RunE: runServe,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, extractCmd, sweepCmd)
}
