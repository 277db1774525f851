package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/pricewatch/internal/model"
)

func TestEngineAnalyze(t *testing.T) {
	values := []float64{99, 105, 101, 98, 110, 102, 97, 104, 100, 103, 99, 106}
	engine := NewEngine(WithSeed(42))

	result, err := engine.Analyze(values)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisTypeStatistical, result.AnalysisType)
	assert.Equal(t, 12, result.Metadata["sample_size"])

	assert.Contains(t, result.Data, SectionDescriptive)
	assert.Contains(t, result.Data, SectionNormality)
	assert.Contains(t, result.Data, SectionFit)
	assert.Contains(t, result.Data, SectionOutliers)
	assert.Contains(t, result.Data, SectionIntervals)
	assert.Equal(t, DispersionLow, result.Data["dispersion"])
	assert.Empty(t, result.Warnings)
}

func TestEngineAnalyzeEmptyInput(t *testing.T) {
	_, err := NewEngine().Analyze(nil)
	require.Error(t, err)
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestEngineAnalyzeDegradesSections(t *testing.T) {
	// Three points: descriptive, normality, and outlier detection work,
	// distribution fitting cannot.
	result, err := NewEngine().Analyze([]float64{10, 12, 14})
	require.NoError(t, err)

	assert.Contains(t, result.Data, SectionDescriptive)
	assert.Contains(t, result.Data, SectionOutliers)
	assert.NotContains(t, result.Data, SectionFit)
	assert.True(t, result.Degraded(SectionFit))
	assert.False(t, result.Degraded(SectionOutliers))
	assert.False(t, result.Degraded(SectionDescriptive))
}

func TestEngineOutlierMethodOption(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 100}

	result, err := NewEngine(WithOutlierMethod(MethodIQR)).Analyze(values)
	require.NoError(t, err)
	section, ok := result.Data[SectionOutliers].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, MethodIQR, section["method"])
	assert.Contains(t, section, "percentage")

	// The spike only trips the z-score once the cutoff is tightened.
	result, err = NewEngine(WithOutlierMethod(MethodZScore), WithZThreshold(1.5)).Analyze(values)
	require.NoError(t, err)
	section, ok = result.Data[SectionOutliers].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{100.0}, section["outliers"])

	// Unknown methods keep the combined report.
	result, err = NewEngine(WithOutlierMethod("tukey")).Analyze(values)
	require.NoError(t, err)
	section, ok = result.Data[SectionOutliers].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, section, "iqr")
	assert.Contains(t, section, "z_score")
}

func engineRecord(platform string, price, rating float64) model.ProductRecord {
	r := model.NewProductRecord(platform, "", "Standing Desk", price, "USD")
	r.Rating = &rating
	return r
}

func TestEngineAnalyzeTable(t *testing.T) {
	table := model.NewTable([]model.ProductRecord{
		engineRecord("amazon", 10, 2.0),
		engineRecord("amazon", 12, 2.4),
		engineRecord("amazon", 11, 2.2),
		engineRecord("amazon", 13, 2.6),
		engineRecord("ebay", 20, 4.0),
		engineRecord("ebay", 22, 4.4),
		engineRecord("ebay", 21, 4.2),
		engineRecord("ebay", 23, 4.6),
	})

	result, err := NewEngine(WithSeed(3)).AnalyzeTable(table)
	require.NoError(t, err)

	corr, ok := result.Data[SectionCorrelation].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, corr, "matrix")
	assert.NotEmpty(t, corr["notable_pairs"])

	tests, ok := result.Data[SectionHypothesis].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, tests, "mean_vs_median")
	assert.Contains(t, tests, "anova")
	assert.Contains(t, tests, "pairwise")

	// Platform means 11.5 vs 21.5 are far apart relative to the spread.
	anova, ok := tests["anova"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, anova["significant"])
}

func TestEngineAnalyzeTableDegradesTableSections(t *testing.T) {
	// One platform, no ratings: prices still analyze, but correlations
	// need a second numeric field and the battery needs platform groups.
	table := model.NewTable([]model.ProductRecord{
		model.NewProductRecord("amazon", "", "Desk Lamp", 5, "USD"),
		model.NewProductRecord("amazon", "", "Desk Lamp", 5, "USD"),
		model.NewProductRecord("amazon", "", "Desk Lamp", 5, "USD"),
	})

	result, err := NewEngine().AnalyzeTable(table)
	require.NoError(t, err)
	assert.NotContains(t, result.Data, SectionCorrelation)
	assert.True(t, result.Degraded(SectionCorrelation))
	assert.NotContains(t, result.Data, SectionHypothesis)
	assert.True(t, result.Degraded(SectionHypothesis))
}

func TestEngineAnalyzeReproducible(t *testing.T) {
	values := []float64{12, 15, 11, 19, 14, 13, 16, 18, 12, 17, 14, 15}
	engine := NewEngine(WithSeed(7))

	first, err := engine.Analyze(values)
	require.NoError(t, err)
	second, err := engine.Analyze(values)
	require.NoError(t, err)
	assert.Equal(t, first.Data[SectionIntervals], second.Data[SectionIntervals])
}

func TestEngineOptions(t *testing.T) {
	result, err := NewEngine(WithConfidence(0.9)).Analyze([]float64{5, 6, 7, 8, 9, 10, 11, 12, 13, 14})
	require.NoError(t, err)
	assert.Equal(t, 0.9, result.Metadata["confidence_level"])

	// Out-of-range levels keep the default.
	assert.Equal(t, DefaultConfidence, NewEngine(WithConfidence(2)).confidence)
}
