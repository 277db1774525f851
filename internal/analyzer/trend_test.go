package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/pricewatch/internal/model"
)

func TestSMA(t *testing.T) {
	got := sma([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{1, 1.5, 2, 3, 4}
	require.Len(t, got, 5)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func TestEMAConstantSeries(t *testing.T) {
	got := ema([]float64{10, 10, 10, 10}, 7)
	for _, v := range got {
		assert.InDelta(t, 10.0, v, 1e-9)
	}
}

func TestEMATracksDirection(t *testing.T) {
	got := ema([]float64{10, 20, 30, 40}, 3)
	// ema lags the raw series but rises monotonically
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
		assert.Less(t, got[i], 10.0*float64(i+1))
	}
}

func TestMaxDrawdown(t *testing.T) {
	// peak 100, low 60: drawdown -0.4
	assert.InDelta(t, -0.4, maxDrawdown([]float64{80, 100, 90, 60, 70}), 1e-9)
	// monotonic rise has no drawdown
	assert.Zero(t, maxDrawdown([]float64{10, 20, 30}))
}

func TestVolatilityAnalysisLevels(t *testing.T) {
	calm := volatilityAnalysis([]float64{100, 100.5, 100.2, 100.8, 100.4})
	assert.Equal(t, "low", calm["volatility_level"])

	wild := volatilityAnalysis([]float64{100, 150, 80, 160, 90})
	assert.Equal(t, "high", wild["volatility_level"])
	assert.Less(t, wild["max_drawdown"].(float64), -0.4)
}

func TestSeasonalityDayOfWeek(t *testing.T) {
	// two weeks of daily points, Mondays always cheapest
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC) // a Monday
	var points []model.PricePoint
	for i := 0; i < 14; i++ {
		price := 100.0
		ts := base.AddDate(0, 0, i)
		if ts.Weekday() == time.Monday {
			price = 80.0
		}
		if ts.Weekday() == time.Saturday {
			price = 120.0
		}
		points = append(points, model.PricePoint{Timestamp: ts, Price: price})
	}

	got := seasonality(points)
	assert.Equal(t, true, got["detected"])

	dow, ok := got["day_of_week"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Monday", dow["best_day"])
	assert.Equal(t, "Saturday", dow["worst_day"])
}

func TestSeasonalityInsufficientData(t *testing.T) {
	points := []model.PricePoint{
		{Timestamp: time.Now(), Price: 10},
		{Timestamp: time.Now(), Price: 11},
	}
	got := seasonality(points)
	assert.Equal(t, false, got["detected"])
}

func TestPeaksTroughs(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	prices := []float64{100, 100, 140, 100, 100, 60, 100, 100}
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{Timestamp: base.AddDate(0, 0, i), Price: p}
	}

	got := peaksTroughs(points, prices)
	assert.Equal(t, 1, got["peak_count"])
	assert.Equal(t, 1, got["trough_count"])

	peaks := got["peaks"].([]any)
	peak := peaks[0].(map[string]any)
	assert.Equal(t, 140.0, peak["price"])
	assert.Equal(t, 2, peak["index"])
}

func TestPeaksTroughsTooFewPoints(t *testing.T) {
	got := peaksTroughs(nil, []float64{1, 2, 3})
	assert.Equal(t, 0, got["peak_count"])
	assert.Equal(t, 0, got["trough_count"])
}

func TestForecastLinearSeries(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{100, 110, 120, 130}

	got := forecast(xs, ys)
	assert.Equal(t, TrendRising, got["trend_direction"])
	assert.InDelta(t, 1.0, got["model_confidence"].(float64), 1e-9)

	predictions := got["predictions"].([]map[string]any)
	require.Len(t, predictions, 3)
	assert.InDelta(t, 140.0, predictions[0]["predicted_price"].(float64), 1e-6)
	assert.InDelta(t, 160.0, predictions[2]["predicted_price"].(float64), 1e-6)
}

func TestForecastClampsNegativePrices(t *testing.T) {
	xs := []float64{0, 1, 2}
	ys := []float64{20, 10, 0.5}

	got := forecast(xs, ys)
	predictions := got["predictions"].([]map[string]any)
	assert.Zero(t, predictions[2]["predicted_price"].(float64))
}

func TestTrendAnalyzerIncludesSeriesSections(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var points []model.PricePoint
	for i := 0; i < 10; i++ {
		points = append(points, model.PricePoint{
			Timestamp: base.AddDate(0, 0, i),
			Price:     100 + float64(i)*2,
		})
	}

	res, err := NewTrendAnalyzer().Analyze(points)
	require.NoError(t, err)
	assert.Contains(t, res.Data, "moving_averages")
	assert.Contains(t, res.Data, "volatility_analysis")
	assert.Contains(t, res.Data, "seasonality")
	assert.Contains(t, res.Data, "peaks_troughs")
	assert.Contains(t, res.Data, "forecast")
}
