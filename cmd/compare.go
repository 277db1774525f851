package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/analyzer"
	"github.com/pricelens/pricewatch/internal/match"
	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/textnorm"
)

var (
	compareThreshold float64
	compareOutput    string
)

var compareCmd = &cobra.Command{
	Use:   "compare <records-file>",
	Short: "Match products across platforms and compare prices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("compare"); err != nil {
			return err
		}

		records, err := loadRecords(args[0])
		if err != nil {
			return err
		}

		norm, err := textnorm.New()
		if err != nil {
			return eris.Wrap(err, "init normalizer")
		}

		threshold := compareThreshold
		if threshold == 0 {
			threshold = cfg.Match.Threshold
		}
		matcher := match.NewMatcher(norm, match.WithThreshold(threshold))

		result, err := analyzer.NewComparisonAnalyzer(matcher).Analyze(model.NewTable(records))
		if err != nil {
			return eris.Wrap(err, "compare")
		}

		zap.L().Info("comparison complete",
			zap.Int("records", len(records)),
			zap.Float64("threshold", matcher.Threshold()))
		return writeResult(compareOutput, result)
	},
}

func init() {
	compareCmd.Flags().Float64Var(&compareThreshold, "threshold", 0, "similarity threshold in (0,1] (default from config)")
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "write result to file (json, md, or html)")
	rootCmd.AddCommand(compareCmd)
}
