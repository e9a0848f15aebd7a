package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ranktest-cli/internal/capture"
	"github.com/sells-group/ranktest-cli/internal/classifier"
	"github.com/sells-group/ranktest-cli/internal/model"
	"github.com/sells-group/ranktest-cli/internal/resilience"
	"github.com/sells-group/ranktest-cli/internal/runner"
	"github.com/sells-group/ranktest-cli/internal/source"
	"github.com/sells-group/ranktest-cli/internal/store"
	"github.com/sells-group/ranktest-cli/pkg/anthropic"
)

var (
	runInput          string
	runWorkers        int
	runLimit          int
	runStartFrom      int
	runDeadline       int
	runResultsDir     string
	runScreenshotsDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the URL backlog in parallel and compile results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		inputPath := cfg.Input.Path
		if runInput != "" {
			inputPath = runInput
		}
		if inputPath == "" {
			return eris.New("no input spreadsheet: set --input or input.path")
		}
		if cfg.Anthropic.Key == "" {
			return eris.New("no Anthropic API key: set RANKTEST_ANTHROPIC_KEY or anthropic.key")
		}

		workers := cfg.Run.Workers
		if runWorkers > 0 {
			workers = runWorkers
		}
		deadlineMins := cfg.Run.DeadlineMins
		if runDeadline > 0 {
			deadlineMins = runDeadline
		}

		items, err := source.Load(inputPath, cfg.Input.Sheet)
		if err != nil {
			return err
		}
		items = source.Window(items, runStartFrom, runLimit)
		if len(items) == 0 {
			zap.L().Info("no work items selected", zap.String("input", inputPath))
			return nil
		}

		selectors, err := capture.LoadSelectors(cfg.Capture.SelectorsFile)
		if err != nil {
			return err
		}

		resultsDir := cfg.Results.Dir
		if runResultsDir != "" {
			resultsDir = runResultsDir
		}
		screenshotsDir := cfg.Results.ScreenshotsDir
		if runScreenshotsDir != "" {
			screenshotsDir = runScreenshotsDir
		}

		results, err := store.NewFileStore(resultsDir)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(screenshotsDir, 0o755); err != nil {
			return eris.Wrap(err, "create screenshots dir")
		}

		history, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer history.Close() //nolint:errcheck

		run, err := history.CreateRun(ctx, workers, len(items))
		if err != nil {
			return err
		}

		judge := classifier.NewClaude(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
		)

		workerCfg := runner.WorkerConfig{
			Param:          cfg.Variants.Param,
			ValueA:         cfg.Variants.ValueA,
			ValueB:         cfg.Variants.ValueB,
			ScreenshotsDir: screenshotsDir,
			Selectors:      selectors,
			Retry: resilience.RetryConfig{
				MaxAttempts:    cfg.Capture.MaxAttempts,
				InitialBackoff: time.Duration(cfg.Capture.RetryDelayMs) * time.Millisecond,
			},
		}
		sessionCfg := capture.Config{
			WindowWidth:  cfg.Capture.WindowWidth,
			WindowHeight: cfg.Capture.WindowHeight,
			NavTimeout:   time.Duration(cfg.Capture.NavTimeoutSecs) * time.Second,
			Settle:       time.Duration(cfg.Capture.SettleMs) * time.Millisecond,
			NavPerSecond: cfg.Capture.NavPerSecond,
			UserAgent:    cfg.Capture.UserAgent,
		}

		coord := runner.NewCoordinator(
			runner.CoordinatorConfig{
				Workers:  workers,
				Deadline: time.Duration(deadlineMins) * time.Minute,
			},
			results,
			func(id int) (*runner.Worker, error) {
				return runner.NewWorker(id, workerCfg, capture.NewSession(sessionCfg), judge, results), nil
			},
		)

		summary, err := coord.Run(ctx, items)
		if err != nil {
			finishRun(ctx, history, run.ID, model.RunStatusFailed, nil, "", "")
			return err
		}

		// Compile whatever is on disk, partial runs included.
		compiledPath, reportPath, err := compileAndReport(results)
		status := runStatus(summary)
		finishRun(ctx, history, run.ID, status, summary, compiledPath, reportPath)
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "path to the input spreadsheet")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "parallel browser sessions (default from config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max number of items to submit")
	runCmd.Flags().IntVar(&runStartFrom, "start-from", 0, "first item index to submit")
	runCmd.Flags().IntVar(&runDeadline, "deadline", 0, "stop submitting new items after this many minutes")
	runCmd.Flags().StringVar(&runResultsDir, "results-dir", "", "directory for result files and artifacts")
	runCmd.Flags().StringVar(&runScreenshotsDir, "screenshots-dir", "", "directory for captured screenshots")
	rootCmd.AddCommand(runCmd)
}

func openHistory(ctx context.Context) (*store.History, error) {
	history, err := store.NewHistory(cfg.Results.HistoryDB)
	if err != nil {
		return nil, err
	}
	if err := history.Migrate(ctx); err != nil {
		history.Close() //nolint:errcheck
		return nil, err
	}
	return history, nil
}

func runStatus(summary *runner.RunSummary) model.RunStatus {
	if summary.Failed > 0 {
		return model.RunStatusPartial
	}
	return model.RunStatusComplete
}

// finishRun is best effort: a history write failure never masks the run
// outcome.
func finishRun(ctx context.Context, history *store.History, id string, status model.RunStatus, summary *runner.RunSummary, compiledPath, reportPath string) {
	processed, failed := 0, 0
	if summary != nil {
		processed, failed = summary.Processed, summary.Failed
	}
	if err := history.FinishRun(ctx, id, status, processed, failed, compiledPath, reportPath); err != nil {
		zap.L().Warn("record run history", zap.Error(err))
	}
}
