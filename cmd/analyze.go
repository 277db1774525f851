package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/analyzer"
	"github.com/pricelens/pricewatch/internal/model"
)

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <records-file>",
	Short: "Run a full price analysis over collected records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		records, err := loadRecords(args[0])
		if err != nil {
			return err
		}

		result, err := analyzer.NewPriceAnalyzer(newStatsEngine()).Analyze(model.NewTable(records))
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis complete",
			zap.Int("records", len(records)),
			zap.Int("warnings", len(result.Warnings)))
		return writeResult(analyzeOutput, result)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write result to file (json, md, or html)")
	rootCmd.AddCommand(analyzeCmd)
}
