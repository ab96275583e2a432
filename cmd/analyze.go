package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lavai-rg/telegram-automation/core/analyze"
	"github.com/lavai-rg/telegram-automation/db"
	"github.com/lavai-rg/telegram-automation/logger"
	"github.com/lavai-rg/telegram-automation/repository"
)

var (
	analyzeInput  string
	analyzeOutput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate archive statistics into a JSON report",
	Long: `Analyze aggregates temporal distribution, top artists, file size
buckets, format counts and per-status totals, either over the tracker
database or over a previously exported items JSON file. The full report is
written as JSON and a short digest is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		var report *analyze.Report
		if analyzeInput != "" {
			items, err := analyze.ReadItemsFile(analyzeInput)
			if err != nil {
				return err
			}
			report = analyze.ReportFromItems(items)
		} else {
			gdb, err := db.Connect(cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to tracker database: %w", err)
			}
			defer db.Close(gdb)

			analyzer := analyze.NewAnalyzer(repository.NewMySQLTrackRepository(gdb))
			report, err = analyzer.Run(cmd.Context())
			if err != nil {
				return err
			}
		}

		if err := report.WriteJSON(analyzeOutput); err != nil {
			return err
		}
		logger.Info("analysis report written", logger.String("path", analyzeOutput))

		fmt.Print(report.Summary())
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "exported items JSON file (defaults to the tracker database)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "reports/archive_report.json", "report output path")
	rootCmd.AddCommand(analyzeCmd)
}
