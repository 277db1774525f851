package stats

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	gonumstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minFitSamples is the smallest sample the distribution fitter accepts;
// below it the KS p-values are too coarse to rank candidates.
const minFitSamples = 10

// FitResult is one candidate distribution with its method-of-moments
// parameters and KS goodness of fit.
type FitResult struct {
	Name      string             `json:"name"`
	Params    map[string]float64 `json:"params"`
	Statistic float64            `json:"ks_statistic"`
	PValue    float64            `json:"p_value"`
}

// FitReport lists every candidate tried and names the best fit, if any
// candidate's KS p-value exceeds the significance level.
type FitReport struct {
	Candidates []FitResult `json:"candidates"`
	BestFit    string      `json:"best_fit,omitempty"`
}

type cdfer interface {
	CDF(x float64) float64
}

// FitDistribution fits candidate distributions by the method of moments
// and ranks them with the one-sample KS test. Positive-only candidates
// are skipped when the data has non-positive values.
func FitDistribution(values []float64) (*FitReport, error) {
	n := len(values)
	if n < minFitSamples {
		return nil, eris.Errorf("stats: distribution fitting needs n >= %d, got %d", minFitSamples, n)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	minV, maxV := sorted[0], sorted[n-1]
	if minV == maxV {
		return nil, eris.New("stats: distribution fitting undefined for constant sample")
	}

	mean, variance := gonumstat.MeanVariance(values, nil)
	sd := math.Sqrt(variance)
	allPositive := minV > 0

	report := &FitReport{}
	try := func(name string, dist cdfer, params map[string]float64) {
		d := ksStatistic(sorted, dist)
		report.Candidates = append(report.Candidates, FitResult{
			Name:      name,
			Params:    params,
			Statistic: d,
			PValue:    ksPValue(d, n),
		})
	}

	try("normal", distuv.Normal{Mu: mean, Sigma: sd},
		map[string]float64{"mu": mean, "sigma": sd})

	try("uniform", distuv.Uniform{Min: minV, Max: maxV},
		map[string]float64{"min": minV, "max": maxV})

	if allPositive {
		logs := make([]float64, n)
		for i, v := range values {
			logs[i] = math.Log(v)
		}
		logMean, logVar := gonumstat.MeanVariance(logs, nil)
		logSd := math.Sqrt(logVar)
		if logSd > 0 {
			try("lognormal", distuv.LogNormal{Mu: logMean, Sigma: logSd},
				map[string]float64{"mu": logMean, "sigma": logSd})
		}

		if variance > 0 {
			shape := mean * mean / variance
			rate := mean / variance
			try("gamma", distuv.Gamma{Alpha: shape, Beta: rate},
				map[string]float64{"shape": shape, "rate": rate})
		}
	}

	if a, b, ok := betaMoments(values, minV, maxV); ok {
		try("beta", scaledBeta{dist: distuv.Beta{Alpha: a, Beta: b}, min: minV, max: maxV},
			map[string]float64{"alpha": a, "beta": b, "min": minV, "max": maxV})
	}

	best := ""
	bestP := alpha
	for _, c := range report.Candidates {
		if c.PValue > bestP {
			bestP = c.PValue
			best = c.Name
		}
	}
	report.BestFit = best
	return report, nil
}

// scaledBeta maps a beta distribution on [0, 1] onto the sample range.
type scaledBeta struct {
	dist distuv.Beta
	min  float64
	max  float64
}

func (s scaledBeta) CDF(x float64) float64 {
	return s.dist.CDF((x - s.min) / (s.max - s.min))
}

// betaMoments derives beta shape parameters from the scaled sample moments.
// ok is false when the moment condition fails.
func betaMoments(values []float64, minV, maxV float64) (a, b float64, ok bool) {
	span := maxV - minV
	scaled := make([]float64, len(values))
	for i, v := range values {
		scaled[i] = (v - minV) / span
	}
	m, v := gonumstat.MeanVariance(scaled, nil)
	if v <= 0 || v >= m*(1-m) {
		return 0, 0, false
	}
	common := m*(1-m)/v - 1
	return m * common, (1 - m) * common, true
}

// ksStatistic computes the one-sample Kolmogorov-Smirnov statistic of
// sorted data against a fitted CDF.
func ksStatistic(sorted []float64, dist cdfer) float64 {
	n := float64(len(sorted))
	d := 0.0
	for i, x := range sorted {
		f := dist.CDF(x)
		upper := float64(i+1)/n - f
		lower := f - float64(i)/n
		if upper > d {
			d = upper
		}
		if lower > d {
			d = lower
		}
	}
	return d
}

// ksPValue is the asymptotic Kolmogorov distribution tail, with the small
// sample correction from Numerical Recipes.
func ksPValue(d float64, n int) float64 {
	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d
	if lambda <= 0 {
		return 1
	}
	sum := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*lambda*lambda*float64(k)*float64(k))
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}
	return clamp01(2 * sum)
}
