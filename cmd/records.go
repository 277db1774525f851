package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/export"
	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/stats"
)

// newStatsEngine builds the engine from the stats section of the config.
func newStatsEngine() *stats.Engine {
	opts := []stats.EngineOption{
		stats.WithConfidence(cfg.Stats.Confidence),
		stats.WithSeed(cfg.Stats.Seed),
	}
	if cfg.Stats.OutlierMethod != "" {
		opts = append(opts, stats.WithOutlierMethod(cfg.Stats.OutlierMethod))
	}
	if cfg.Stats.ZThreshold > 0 {
		opts = append(opts, stats.WithZThreshold(cfg.Stats.ZThreshold))
	}
	return stats.NewEngine(opts...)
}

// loadRecords reads product records from a CSV or JSON file.
func loadRecords(path string) ([]model.ProductRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open records file")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return export.ReadRecordsCSV(f)
	case ".json":
		return export.ReadRecordsJSON(f)
	default:
		return nil, eris.Errorf("unsupported records file type: %s", filepath.Ext(path))
	}
}

// writeResult sends an analysis result to a file when path is set,
// otherwise as JSON to stdout.
func writeResult(path string, result *model.AnalysisResult) error {
	if path != "" {
		return export.ResultToFile(path, result)
	}
	return export.WriteResultJSON(os.Stdout, result)
}
