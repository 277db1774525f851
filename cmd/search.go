package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/collector"
	"github.com/pricelens/pricewatch/internal/export"
)

var (
	searchPlatforms []string
	searchLimit     int
	searchSave      bool
	searchOutput    string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search platforms for product listings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := args[0]

		if err := cfg.Validate("search"); err != nil {
			return err
		}

		collectors, err := initCollectors(searchPlatforms)
		if err != nil {
			return err
		}

		limit := searchLimit
		if limit <= 0 {
			limit = cfg.Collector.Limit
		}

		result, err := collector.SearchAll(ctx, collectors, query, limit, cfg.Collector.Concurrency)
		if err != nil {
			return eris.Wrap(err, "search")
		}
		for platform, ferr := range result.Failures {
			zap.L().Warn("platform returned no results",
				zap.String("platform", platform),
				zap.Error(ferr))
		}
		zap.L().Info("search complete",
			zap.String("query", query),
			zap.Int("records", len(result.Records)),
			zap.Int("failed_platforms", len(result.Failures)))

		if searchSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			saved, err := st.SaveRecords(ctx, result.Records)
			if err != nil {
				return eris.Wrap(err, "save records")
			}
			names := make([]string, 0, len(collectors))
			for _, c := range collectors {
				names = append(names, c.Platform().Name())
			}
			if err := st.LogSearch(ctx, query, names, len(result.Records)); err != nil {
				return eris.Wrap(err, "log search")
			}
			zap.L().Info("records saved", zap.Int("count", saved))
		}

		if searchOutput != "" {
			return export.RecordsToFile(searchOutput, result.Records)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Records)
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchPlatforms, "platforms", nil, "platforms to search (default from config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max records per platform (default from config)")
	searchCmd.Flags().BoolVar(&searchSave, "save", false, "persist results to the store")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "write results to file (format from extension)")
	rootCmd.AddCommand(searchCmd)
}
