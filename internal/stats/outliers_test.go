package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectOutliers(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 100}

	report, err := DetectOutliers(values)
	require.NoError(t, err)

	// The IQR fence and the modified z-score catch the spike; the plain
	// z-score cannot, because the spike inflates the standard deviation.
	assert.Equal(t, []float64{100}, report.IQR.Outliers)
	assert.Equal(t, []int{5}, report.IQR.Indices)
	assert.InDelta(t, 100.0/6.0, report.IQR.Percentage, 1e-9)
	assert.Equal(t, []float64{100}, report.ModifiedZScore.Outliers)
	assert.Empty(t, report.ZScore.Outliers)
	assert.Zero(t, report.ZScore.Percentage)
}

func TestDetectOutliersClean(t *testing.T) {
	report, err := DetectOutliers([]float64{10, 11, 12, 13, 14, 15})
	require.NoError(t, err)
	assert.Empty(t, report.IQR.Outliers)
	assert.Empty(t, report.ZScore.Outliers)
	assert.Empty(t, report.ModifiedZScore.Outliers)
}

func TestDetectOutliersMADFallback(t *testing.T) {
	// MAD is zero; the mean absolute deviation stands in for it while the
	// 0.6745 scale stays in place.
	values := []float64{5, 5, 5, 5, 5, 50}

	report, err := DetectOutliers(values)
	require.NoError(t, err)
	assert.Equal(t, []float64{50}, report.ModifiedZScore.Outliers)
	assert.NotEmpty(t, report.ModifiedZScore.Note)

	// meanAD = 7.5, so the fence sits at 5 + 3.5*7.5/0.6745.
	assert.InDelta(t, 5+3.5*7.5/0.6745, report.ModifiedZScore.UpperBound, 1e-9)
}

func TestDetectOutliersConstant(t *testing.T) {
	report, err := DetectOutliers([]float64{7, 7, 7, 7})
	require.NoError(t, err)
	assert.Empty(t, report.IQR.Outliers)
	assert.Empty(t, report.ZScore.Outliers)
	assert.Empty(t, report.ModifiedZScore.Outliers)
	assert.NotEmpty(t, report.ZScore.Note)
	assert.NotEmpty(t, report.ModifiedZScore.Note)
}

func TestDetectOutliersDeterministic(t *testing.T) {
	values := []float64{3, 8, 5, 9, 4, 200, 6}
	first, err := DetectOutliers(values)
	require.NoError(t, err)
	second, err := DetectOutliers(values)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDetectOutliersSmallSample(t *testing.T) {
	// Any non-empty sample gets an IQR answer; only empty input fails.
	report, err := DetectOutliers([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, report.IQR.Outliers)
	assert.Less(t, report.IQR.LowerBound, 1.0)
	assert.Greater(t, report.IQR.UpperBound, 3.0)

	_, err = DetectOutliers(nil)
	require.Error(t, err)
}

func TestDetectOutliersBy(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 100}

	res, err := DetectOutliersBy(values, MethodIQR, 0)
	require.NoError(t, err)
	assert.Equal(t, MethodIQR, res.Method)
	assert.Equal(t, []float64{100}, res.Outliers)

	// At the default cutoff the z-score misses the spike; a tighter one
	// catches it.
	res, err = DetectOutliersBy(values, MethodZScore, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Outliers)

	res, err = DetectOutliersBy(values, MethodZScore, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, res.Outliers)
	assert.Equal(t, []int{5}, res.Indices)

	res, err = DetectOutliersBy(values, MethodModifiedZScore, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, res.Outliers)

	_, err = DetectOutliersBy(values, "tukey", 0)
	require.Error(t, err)

	_, err = DetectOutliersBy(nil, MethodIQR, 0)
	require.Error(t, err)
}
