package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ranktest-cli/internal/report"
	"github.com/sells-group/ranktest-cli/internal/stats"
	"github.com/sells-group/ranktest-cli/internal/store"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Recompile results, statistics and the report from files on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := store.NewFileStore(cfg.Results.Dir)
		if err != nil {
			return err
		}
		_, _, err = compileAndReport(results)
		return err
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

// compileAndReport rebuilds every derived artifact from the per-item
// result files: compiled results, statistics and the markdown report.
func compileAndReport(results *store.FileStore) (compiledPath, reportPath string, err error) {
	records, err := results.Compile()
	if err != nil {
		return "", "", err
	}

	compiledPath, err = results.WriteCompiled(records)
	if err != nil {
		return "", "", err
	}

	summary := stats.Compute(records)
	if _, err := results.WriteStatistics(summary); err != nil {
		return compiledPath, "", err
	}

	// A report failure never suppresses the statistics the run produced.
	reportPath, err = report.Write(results.Dir(), summary, records)
	if err != nil {
		zap.L().Error("report generation failed", zap.Error(err))
		reportPath = ""
	}

	zap.L().Info("artifacts compiled",
		zap.Int("records", len(records)),
		zap.String("compiled", compiledPath),
		zap.String("report", reportPath),
	)
	report.PrintSummary(summary)
	return compiledPath, reportPath, nil
}
