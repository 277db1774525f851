package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/model"
)

var statsOutput string

var statsCmd = &cobra.Command{
	Use:   "stats <records-file>",
	Short: "Run the statistical engine over record prices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("stats"); err != nil {
			return err
		}

		records, err := loadRecords(args[0])
		if err != nil {
			return err
		}
		table := model.NewTable(records)

		result, err := newStatsEngine().AnalyzeTable(table)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		zap.L().Info("statistical analysis complete",
			zap.Int("prices", len(table.ValidPrices())),
			zap.Int("warnings", len(result.Warnings)))
		return writeResult(statsOutput, result)
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "", "write result to file (json, md, or html)")
	rootCmd.AddCommand(statsCmd)
}
