package analyzer

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	gonumstat "gonum.org/v1/gonum/stat"

	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/stats"
)

// Trend direction labels.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// trendChangeCutoff is the relative overall change below which a history
// counts as stable.
const trendChangeCutoff = 0.05

// trendWindow is the moving-average and rolling-volatility window in
// observations.
const trendWindow = 7

// forecastPeriods is how many days ahead the naive extrapolation runs.
const forecastPeriods = 3

// TrendAnalyzer reports how a product's price developed over time.
type TrendAnalyzer struct{}

// NewTrendAnalyzer returns a TrendAnalyzer.
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// Analyze fits a linear trend over the price history. At least three
// observations are required; points are sorted by timestamp first.
func (a *TrendAnalyzer) Analyze(history []model.PricePoint) (*model.AnalysisResult, error) {
	if len(history) < 3 {
		return nil, &model.ValidationError{Reason: "trend analysis needs at least 3 price points"}
	}
	points := append([]model.PricePoint(nil), history...)
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	origin := points[0].Timestamp
	for i, p := range points {
		if p.Price <= 0 {
			return nil, &model.ValidationError{Reason: "trend analysis needs positive prices", Index: i}
		}
		xs[i] = p.Timestamp.Sub(origin).Hours() / 24
		ys[i] = p.Price
	}

	alpha, beta := gonumstat.LinearRegression(xs, ys, nil, false)
	r2 := gonumstat.RSquared(xs, ys, nil, alpha, beta)

	first, last := ys[0], ys[len(ys)-1]
	change := last - first
	changePct := change / first * 100

	result := model.NewAnalysisResult(model.AnalysisTypeTrend, nil, map[string]any{
		"points": len(points),
		"from":   points[0].Timestamp.Format(time.RFC3339),
		"to":     points[len(points)-1].Timestamp.Format(time.RFC3339),
	})
	result.Data["direction"] = trendDirection(change / first)
	result.Data["slope_per_day"] = beta
	result.Data["intercept"] = alpha
	result.Data["r_squared"] = r2
	result.Data["first_price"] = first
	result.Data["last_price"] = last
	result.Data["change"] = change
	result.Data["change_percent"] = changePct

	if summary, err := stats.Summarize(ys); err == nil {
		result.Data["mean"] = summary.Mean
		result.Data["min"] = summary.Min
		result.Data["max"] = summary.Max
		result.Data["volatility"] = summary.CoefficientOfVariation
		result.Data["dispersion"] = stats.DispersionLabel(summary.CoefficientOfVariation)
	} else {
		result.Warnings = append(result.Warnings, model.Warning{
			Section: "volatility",
			Message: err.Error(),
		})
	}

	result.Data["moving_averages"] = movingAverages(ys)
	result.Data["volatility_analysis"] = volatilityAnalysis(ys)
	result.Data["seasonality"] = seasonality(points)
	result.Data["peaks_troughs"] = peaksTroughs(points, ys)
	result.Data["forecast"] = forecast(xs, ys)

	zap.L().Debug("trend analysis complete",
		zap.Int("points", len(points)),
		zap.String("direction", result.Data["direction"].(string)))
	return result, nil
}

func trendDirection(relativeChange float64) string {
	switch {
	case relativeChange > trendChangeCutoff:
		return TrendRising
	case relativeChange < -trendChangeCutoff:
		return TrendFalling
	default:
		return TrendStable
	}
}

// movingAverages computes simple and exponential moving averages plus the
// current price's position relative to each.
func movingAverages(prices []float64) map[string]any {
	smaVals := sma(prices, trendWindow)
	emaVals := ema(prices, trendWindow)

	current := prices[len(prices)-1]
	currentSMA := smaVals[len(smaVals)-1]
	currentEMA := emaVals[len(emaVals)-1]

	return map[string]any{
		"simple_moving_average": map[string]any{
			"current":      currentSMA,
			"values":       smaVals,
			"price_vs_sma": percentChange(currentSMA, current),
		},
		"exponential_moving_average": map[string]any{
			"current":      currentEMA,
			"values":       emaVals,
			"price_vs_ema": percentChange(currentEMA, current),
		},
	}
}

// sma is a rolling mean over at most window trailing observations. Early
// positions average whatever history exists.
func sma(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	var sum float64
	for i, p := range prices {
		sum += p
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= prices[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// ema is a recursive exponential moving average with alpha 2/(window+1).
func ema(prices []float64, window int) []float64 {
	alpha := 2.0 / (float64(window) + 1)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}

// volatilityAnalysis reports return volatility, a 95% value-at-risk figure,
// and the maximum drawdown over the history.
func volatilityAnalysis(prices []float64) map[string]any {
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}

	avg := 0.0
	var95 := 0.0
	if len(returns) > 1 {
		avg = math.Sqrt(gonumstat.Variance(returns, nil))
		sorted := append([]float64(nil), returns...)
		sort.Float64s(sorted)
		var95 = gonumstat.Quantile(0.05, gonumstat.Empirical, sorted, nil)
	}

	level := "low"
	switch {
	case avg > 0.1:
		level = "high"
	case avg > 0.05:
		level = "medium"
	}

	return map[string]any{
		"average_volatility": avg,
		"volatility_level":   level,
		"value_at_risk_95":   var95,
		"max_drawdown":       maxDrawdown(prices),
	}
}

// maxDrawdown is the largest relative drop from a running maximum, as a
// non-positive fraction.
func maxDrawdown(prices []float64) float64 {
	runningMax := prices[0]
	worst := 0.0
	for _, p := range prices {
		if p > runningMax {
			runningMax = p
		}
		dd := (p - runningMax) / runningMax
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// seasonality looks for recurring day-of-week and monthly price patterns.
// Best means cheapest.
func seasonality(points []model.PricePoint) map[string]any {
	if len(points) < 7 {
		return map[string]any{"detected": false, "reason": "insufficient data"}
	}

	out := map[string]any{}

	daySums := map[time.Weekday]float64{}
	dayCounts := map[time.Weekday]int{}
	monthSums := map[time.Month]float64{}
	monthCounts := map[time.Month]int{}
	for _, p := range points {
		daySums[p.Timestamp.Weekday()] += p.Price
		dayCounts[p.Timestamp.Weekday()]++
		monthSums[p.Timestamp.Month()] += p.Price
		monthCounts[p.Timestamp.Month()]++
	}

	if len(dayCounts) > 1 {
		byDay := map[string]float64{}
		var bestDay, worstDay string
		bestAvg, worstAvg := math.Inf(1), math.Inf(-1)
		for d := time.Sunday; d <= time.Saturday; d++ {
			if dayCounts[d] == 0 {
				continue
			}
			avg := daySums[d] / float64(dayCounts[d])
			byDay[d.String()] = avg
			if avg < bestAvg {
				bestAvg, bestDay = avg, d.String()
			}
			if avg > worstAvg {
				worstAvg, worstDay = avg, d.String()
			}
		}
		out["day_of_week"] = map[string]any{
			"average_by_day": byDay,
			"best_day":       bestDay,
			"worst_day":      worstDay,
		}
	}

	if len(monthCounts) > 1 {
		byMonth := map[string]float64{}
		var bestMonth, worstMonth string
		bestAvg, worstAvg := math.Inf(1), math.Inf(-1)
		for m := time.January; m <= time.December; m++ {
			if monthCounts[m] == 0 {
				continue
			}
			avg := monthSums[m] / float64(monthCounts[m])
			byMonth[m.String()] = avg
			if avg < bestAvg {
				bestAvg, bestMonth = avg, m.String()
			}
			if avg > worstAvg {
				worstAvg, worstMonth = avg, m.String()
			}
		}
		out["monthly"] = map[string]any{
			"average_by_month": byMonth,
			"best_month":       bestMonth,
			"worst_month":      worstMonth,
		}
	}

	out["detected"] = len(out) > 0
	return out
}

// peaksTroughs flags local maxima in the upper price quartile and local
// minima in the lower quartile.
func peaksTroughs(points []model.PricePoint, prices []float64) map[string]any {
	if len(prices) < 5 {
		return map[string]any{"peaks": []any{}, "troughs": []any{}, "peak_count": 0, "trough_count": 0}
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	p75 := gonumstat.Quantile(0.75, gonumstat.Empirical, sorted, nil)
	p25 := gonumstat.Quantile(0.25, gonumstat.Empirical, sorted, nil)

	peaks := []any{}
	troughs := []any{}
	for i := 1; i < len(prices)-1; i++ {
		switch {
		case prices[i] > prices[i-1] && prices[i] > prices[i+1] && prices[i] >= p75:
			peaks = append(peaks, extremum(points[i], i))
		case prices[i] < prices[i-1] && prices[i] < prices[i+1] && prices[i] <= p25:
			troughs = append(troughs, extremum(points[i], i))
		}
	}

	return map[string]any{
		"peaks":        peaks,
		"troughs":      troughs,
		"peak_count":   len(peaks),
		"trough_count": len(troughs),
	}
}

// percentChange is the relative change from prev to cur in percent, 0 when
// prev is 0.
func percentChange(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

func extremum(p model.PricePoint, idx int) map[string]any {
	return map[string]any{
		"timestamp": p.Timestamp.Format(time.RFC3339),
		"price":     p.Price,
		"index":     idx,
	}
}

// forecast extrapolates the recent linear trend a few days ahead. This is
// a naive projection, not a price model.
func forecast(xs, ys []float64) map[string]any {
	recent := len(xs)
	if recent > 10 {
		recent = 10
	}
	rx := xs[len(xs)-recent:]
	ry := ys[len(ys)-recent:]

	alpha, beta := gonumstat.LinearRegression(rx, ry, nil, false)
	r := gonumstat.Correlation(rx, ry, nil)
	if math.IsNaN(r) {
		r = 0
	}

	lastX := rx[len(rx)-1]
	predictions := make([]map[string]any, 0, forecastPeriods)
	for i := 1; i <= forecastPeriods; i++ {
		predicted := alpha + beta*(lastX+float64(i))
		if predicted < 0 {
			predicted = 0
		}
		predictions = append(predictions, map[string]any{
			"day_ahead":       i,
			"predicted_price": predicted,
			"confidence":      math.Abs(r),
		})
	}

	return map[string]any{
		"trend_direction":  forecastDirection(beta),
		"predictions":      predictions,
		"model_confidence": math.Abs(r),
	}
}

// forecastDirection uses a tighter slope cutoff than the overall trend
// label since it reflects only the recent window.
func forecastDirection(slope float64) string {
	switch {
	case slope > 0.01:
		return TrendRising
	case slope < -0.01:
		return TrendFalling
	default:
		return TrendStable
	}
}
