// Package stats implements the statistical engine behind price analysis:
// descriptive summaries, normality tests, distribution fitting, outlier
// detection, correlation, interval estimation, and hypothesis tests.
package stats

import (
	"fmt"
	"sort"

	gslstat "github.com/grd/stat"

	"github.com/pricelens/pricewatch/internal/model"
)

// Dispersion labels derived from the coefficient of variation.
const (
	DispersionLow      = "low"
	DispersionModerate = "moderate"
	DispersionHigh     = "high"

	cvLowCutoff      = 0.15
	cvModerateCutoff = 0.30
)

// percentileLevels are the quantiles reported in every summary.
var percentileLevels = []int{5, 10, 25, 50, 75, 90, 95}

// Summarize computes the descriptive block over values. At least two
// values are required; sample (n-1) variance is used throughout.
func Summarize(values []float64) (*model.StatisticalSummary, error) {
	if len(values) < 2 {
		return nil, &model.ComputationWarning{
			Section: "descriptive",
			Reason:  fmt.Sprintf("need at least 2 values, got %d", len(values)),
		}
	}

	data := gslstat.Float64Slice(values)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	sortedData := gslstat.Float64Slice(sorted)

	mean := gslstat.Mean(data)
	variance := gslstat.Variance(data)
	sd := gslstat.Sd(data)
	minV, _ := gslstat.Min(data)
	maxV, _ := gslstat.Max(data)

	percentiles := make(map[string]float64, len(percentileLevels))
	for _, p := range percentileLevels {
		percentiles[fmt.Sprintf("p%d", p)] = gslstat.QuantileFromSortedData(sortedData, float64(p)/100)
	}
	q1 := percentiles["p25"]
	q3 := percentiles["p75"]

	summary := &model.StatisticalSummary{
		Count:                 len(values),
		Mean:                  mean,
		Median:                gslstat.MedianFromSortedData(sortedData),
		Mode:                  mode(sorted),
		Std:                   sd,
		Variance:              variance,
		Min:                   minV,
		Max:                   maxV,
		Range:                 maxV - minV,
		Percentiles:           percentiles,
		Skewness:              gslstat.Skew(data),
		Kurtosis:              gslstat.Kurtosis(data),
		IQR:                   q3 - q1,
		QuartileDeviation:     (q3 - q1) / 2,
		MeanAbsoluteDeviation: gslstat.Absdev(data),
	}
	if mean != 0 {
		summary.CoefficientOfVariation = sd / mean
	}
	return summary, nil
}

// mode returns the most frequent value; ties break toward the smaller
// value. Input must be sorted.
func mode(sorted []float64) float64 {
	best := sorted[0]
	bestCount := 0
	cur := sorted[0]
	count := 0
	for _, v := range sorted {
		if v == cur {
			count++
		} else {
			cur = v
			count = 1
		}
		if count > bestCount {
			bestCount = count
			best = cur
		}
	}
	return best
}

// DispersionLabel buckets a coefficient of variation.
func DispersionLabel(cv float64) string {
	switch {
	case cv < cvLowCutoff:
		return DispersionLow
	case cv < cvModerateCutoff:
		return DispersionModerate
	default:
		return DispersionHigh
	}
}
