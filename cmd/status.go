package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/ranktest-cli/internal/source"
	"github.com/sells-group/ranktest-cli/internal/store"
)

var statusInput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backlog progress and recent run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		results, err := store.NewFileStore(cfg.Results.Dir)
		if err != nil {
			return err
		}
		processed, err := results.ListProcessed()
		if err != nil {
			return err
		}

		inputPath := cfg.Input.Path
		if statusInput != "" {
			inputPath = statusInput
		}
		if inputPath != "" {
			items, err := source.Load(inputPath, cfg.Input.Sheet)
			if err != nil {
				return err
			}
			remaining := 0
			for _, item := range items {
				if _, done := processed[item.Index]; !done {
					remaining++
				}
			}
			fmt.Printf("Backlog: %d of %d items remaining (%d processed)\n",
				remaining, len(items), len(items)-remaining)
		} else {
			fmt.Printf("Processed result files: %d (no input spreadsheet configured)\n", len(processed))
		}

		history, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer history.Close() //nolint:errcheck

		runs, err := history.RecentRuns(ctx, 10)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		fmt.Println("\nRecent runs:")
		for _, r := range runs {
			duration := "running"
			if !r.FinishedAt.IsZero() {
				duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
			}
			fmt.Printf("  %s  %-8s  workers=%d  processed=%d/%d  failed=%d  %s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.Status, r.Workers, r.Processed, r.TotalItems, r.Failed, duration)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusInput, "input", "", "path to the input spreadsheet")
	rootCmd.AddCommand(statusCmd)
}
