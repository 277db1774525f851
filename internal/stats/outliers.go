package stats

import (
	"math"
	"sort"

	gslstat "github.com/grd/stat"
	"github.com/rotisserie/eris"
)

// Method names accepted by DetectOutliersBy.
const (
	MethodIQR            = "iqr"
	MethodZScore         = "z_score"
	MethodModifiedZScore = "modified_z_score"
)

// Fence and threshold constants for the three outlier methods.
const (
	iqrFenceFactor     = 1.5
	zScoreThreshold    = 3.0
	modZScoreThreshold = 3.5
	madScaleFactor     = 0.6745
)

// OutlierResult is the outcome of one detection method. Indices refer to
// positions in the input slice.
type OutlierResult struct {
	Method     string    `json:"method"`
	Outliers   []float64 `json:"outliers"`
	Indices    []int     `json:"indices"`
	Percentage float64   `json:"percentage"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
	Note       string    `json:"note,omitempty"`
}

// OutlierReport holds the three methods side by side.
type OutlierReport struct {
	IQR            OutlierResult `json:"iqr"`
	ZScore         OutlierResult `json:"z_score"`
	ModifiedZScore OutlierResult `json:"modified_z_score"`
}

// DetectOutliers runs the IQR fence, z-score, and modified z-score methods
// over values with their default thresholds.
func DetectOutliers(values []float64) (*OutlierReport, error) {
	if len(values) == 0 {
		return nil, eris.New("stats: outlier detection needs a non-empty sample")
	}
	return &OutlierReport{
		IQR:            iqrOutliers(values),
		ZScore:         zScoreOutliers(values, zScoreThreshold),
		ModifiedZScore: modifiedZScoreOutliers(values, modZScoreThreshold),
	}, nil
}

// DetectOutliersBy runs a single named method. A threshold of 0 keeps the
// method's default; the IQR fence ignores it.
func DetectOutliersBy(values []float64, method string, threshold float64) (*OutlierResult, error) {
	if len(values) == 0 {
		return nil, eris.New("stats: outlier detection needs a non-empty sample")
	}
	var res OutlierResult
	switch method {
	case MethodIQR:
		res = iqrOutliers(values)
	case MethodZScore:
		if threshold <= 0 {
			threshold = zScoreThreshold
		}
		res = zScoreOutliers(values, threshold)
	case MethodModifiedZScore:
		if threshold <= 0 {
			threshold = modZScoreThreshold
		}
		res = modifiedZScoreOutliers(values, threshold)
	default:
		return nil, eris.Errorf("stats: unknown outlier method %q", method)
	}
	return &res, nil
}

func finishOutliers(res *OutlierResult, n int) {
	res.Percentage = float64(len(res.Outliers)) / float64(n) * 100
}

func iqrOutliers(values []float64) OutlierResult {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	sortedData := gslstat.Float64Slice(sorted)
	q1 := gslstat.QuantileFromSortedData(sortedData, 0.25)
	q3 := gslstat.QuantileFromSortedData(sortedData, 0.75)
	iqr := q3 - q1

	res := OutlierResult{
		Method:     MethodIQR,
		LowerBound: q1 - iqrFenceFactor*iqr,
		UpperBound: q3 + iqrFenceFactor*iqr,
	}
	for i, v := range values {
		if v < res.LowerBound || v > res.UpperBound {
			res.Outliers = append(res.Outliers, v)
			res.Indices = append(res.Indices, i)
		}
	}
	finishOutliers(&res, len(values))
	return res
}

func zScoreOutliers(values []float64, threshold float64) OutlierResult {
	res := OutlierResult{Method: MethodZScore}
	data := gslstat.Float64Slice(values)
	mean := gslstat.Mean(data)
	if len(values) < 2 {
		res.Note = "sample too small for a standard deviation"
		res.LowerBound, res.UpperBound = mean, mean
		return res
	}
	sd := gslstat.Sd(data)
	if sd == 0 {
		res.Note = "zero standard deviation, no outliers detectable"
		res.LowerBound, res.UpperBound = mean, mean
		return res
	}
	res.LowerBound = mean - threshold*sd
	res.UpperBound = mean + threshold*sd
	for i, v := range values {
		if math.Abs((v-mean)/sd) > threshold {
			res.Outliers = append(res.Outliers, v)
			res.Indices = append(res.Indices, i)
		}
	}
	finishOutliers(&res, len(values))
	return res
}

// modifiedZScoreOutliers uses the median absolute deviation; when the MAD
// collapses to zero it substitutes the mean absolute deviation around the
// median, and reports no outliers when that is zero too.
func modifiedZScoreOutliers(values []float64, threshold float64) OutlierResult {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median := gslstat.MedianFromSortedData(gslstat.Float64Slice(sorted))

	devs := make([]float64, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - median)
	}
	sortedDevs := append([]float64(nil), devs...)
	sort.Float64s(sortedDevs)
	mad := gslstat.MedianFromSortedData(gslstat.Float64Slice(sortedDevs))

	res := OutlierResult{Method: MethodModifiedZScore}
	denom := mad
	if denom == 0 {
		meanAD := 0.0
		for _, d := range devs {
			meanAD += d
		}
		meanAD /= float64(len(devs))
		if meanAD == 0 {
			res.Note = "zero dispersion around median, no outliers detectable"
			res.LowerBound, res.UpperBound = median, median
			return res
		}
		denom = meanAD
		res.Note = "median absolute deviation is zero, fell back to mean absolute deviation"
	}

	half := threshold * denom / madScaleFactor
	res.LowerBound = median - half
	res.UpperBound = median + half
	for i, v := range values {
		if math.Abs(madScaleFactor*(v-median)/denom) > threshold {
			res.Outliers = append(res.Outliers, v)
			res.Indices = append(res.Indices, i)
		}
	}
	finishOutliers(&res, len(values))
	return res
}
