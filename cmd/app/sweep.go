package main

import (
	"ExpressionAPI/pkg/log"
	"ExpressionAPI/pkg/tmpstore"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepOlderThan time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphaned temporary uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := tmpstore.New(log.NewLogger())
		if err != nil {
			return err
		}

		removed, err := store.Sweep(sweepOlderThan)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed %d files from %s\n", removed, store.Dir())
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", time.Hour, "Only remove files last modified before this long ago")
}
