package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/analyzer"
)

var (
	historyLimit  int
	historyTrend  bool
	historyOutput string
	pruneDays     int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored price and search history",
}

var historyPricesCmd = &cobra.Command{
	Use:   "prices <platform> <product-id>",
	Short: "Show the stored price history for one listing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		points, err := st.PriceHistory(ctx, args[0], args[1], historyLimit)
		if err != nil {
			return eris.Wrap(err, "price history")
		}

		if historyTrend {
			result, err := analyzer.NewTrendAnalyzer().Analyze(points)
			if err != nil {
				return eris.Wrap(err, "trend analysis")
			}
			return writeResult(historyOutput, result)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	},
}

var historySearchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "List recent search log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		entries, err := st.RecentSearches(ctx, historyLimit)
		if err != nil {
			return eris.Wrap(err, "recent searches")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete price observations older than a cutoff",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}
		if pruneDays <= 0 {
			return eris.New("--days must be > 0")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -pruneDays)
		deleted, err := st.DeleteHistoryBefore(ctx, cutoff)
		if err != nil {
			return eris.Wrap(err, "prune history")
		}

		zap.L().Info("history pruned",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
		return nil
	},
}

func init() {
	historyPricesCmd.Flags().IntVar(&historyLimit, "limit", 0, "max observations to load")
	historyPricesCmd.Flags().BoolVar(&historyTrend, "trend", false, "run trend analysis over the history")
	historyPricesCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "write trend result to file")
	historySearchesCmd.Flags().IntVar(&historyLimit, "limit", 0, "max entries to list")
	historyPruneCmd.Flags().IntVar(&pruneDays, "days", 90, "delete observations older than this many days")

	historyCmd.AddCommand(historyPricesCmd, historySearchesCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
