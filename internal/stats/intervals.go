package stats

import (
	"math"
	"math/rand/v2"
	"sort"

	gslstat "github.com/grd/stat"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat/distuv"
)

// bootstrapResamples is the number of bootstrap replicates for the median
// interval.
const bootstrapResamples = 1000

// ConfidenceInterval is an estimated interval at the given confidence
// level.
type ConfidenceInterval struct {
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Level  float64 `json:"level"`
	Method string  `json:"method"`
}

// MeanCI returns the t-based confidence interval for the mean.
func MeanCI(values []float64, level float64) (*ConfidenceInterval, error) {
	if len(values) < 2 {
		return nil, eris.Errorf("stats: mean interval needs n >= 2, got %d", len(values))
	}
	if level <= 0 || level >= 1 {
		return nil, eris.Errorf("stats: confidence level must be in (0, 1), got %g", level)
	}
	data := gslstat.Float64Slice(values)
	mean := gslstat.Mean(data)
	se := gslstat.Sd(data) / math.Sqrt(float64(len(values)))
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(values) - 1)}
	t := tdist.Quantile(1 - (1-level)/2)
	return &ConfidenceInterval{
		Lower:  mean - t*se,
		Upper:  mean + t*se,
		Level:  level,
		Method: "t",
	}, nil
}

// BootstrapMedianCI returns a percentile bootstrap interval for the
// median. The seed makes resampling reproducible; identical inputs and
// seeds give identical intervals.
func BootstrapMedianCI(values []float64, level float64, seed uint64) (*ConfidenceInterval, error) {
	if len(values) < 2 {
		return nil, eris.Errorf("stats: bootstrap interval needs n >= 2, got %d", len(values))
	}
	if level <= 0 || level >= 1 {
		return nil, eris.Errorf("stats: confidence level must be in (0, 1), got %g", level)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	n := len(values)
	resample := make([]float64, n)
	medians := make([]float64, bootstrapResamples)
	for b := 0; b < bootstrapResamples; b++ {
		for i := range resample {
			resample[i] = values[rng.IntN(n)]
		}
		sort.Float64s(resample)
		medians[b] = gslstat.MedianFromSortedData(gslstat.Float64Slice(resample))
	}
	sort.Float64s(medians)

	sortedMedians := gslstat.Float64Slice(medians)
	tail := (1 - level) / 2
	return &ConfidenceInterval{
		Lower:  gslstat.QuantileFromSortedData(sortedMedians, tail),
		Upper:  gslstat.QuantileFromSortedData(sortedMedians, 1-tail),
		Level:  level,
		Method: "bootstrap_percentile",
	}, nil
}
