package stats

import (
	"math"

	gslstat "github.com/grd/stat"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTestResult is a two-sided Welch t-test outcome.
type TTestResult struct {
	Statistic      float64 `json:"statistic"`
	PValue         float64 `json:"p_value"`
	DegreesFreedom float64 `json:"degrees_freedom"`
	MeanDifference float64 `json:"mean_difference"`
	Significant    bool    `json:"significant"`
}

// OneSampleTTest tests whether the sample mean differs from mu.
func OneSampleTTest(values []float64, mu float64) (*TTestResult, error) {
	if len(values) < 2 {
		return nil, eris.Errorf("stats: one-sample t-test needs n >= 2, got %d", len(values))
	}
	data := gslstat.Float64Slice(values)
	mean := gslstat.Mean(data)
	sd := gslstat.Sd(data)
	if sd == 0 {
		return nil, eris.New("stats: one-sample t-test undefined, constant sample")
	}
	n := float64(len(values))
	t := (mean - mu) / (sd / math.Sqrt(n))
	df := n - 1

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := clamp01(2 * (1 - tdist.CDF(math.Abs(t))))
	return &TTestResult{
		Statistic:      t,
		PValue:         p,
		DegreesFreedom: df,
		MeanDifference: mean - mu,
		Significant:    p < alpha,
	}, nil
}

// WelchTTest compares the means of two independent samples without
// assuming equal variances.
func WelchTTest(x, y []float64) (*TTestResult, error) {
	if len(x) < 2 || len(y) < 2 {
		return nil, eris.Errorf("stats: t-test needs n >= 2 per sample, got %d and %d", len(x), len(y))
	}
	dx := gslstat.Float64Slice(x)
	dy := gslstat.Float64Slice(y)
	m1, m2 := gslstat.Mean(dx), gslstat.Mean(dy)
	v1, v2 := gslstat.Variance(dx), gslstat.Variance(dy)
	n1, n2 := float64(len(x)), float64(len(y))

	se2 := v1/n1 + v2/n2
	if se2 == 0 {
		return nil, eris.New("stats: t-test undefined, both samples constant")
	}
	t := (m1 - m2) / math.Sqrt(se2)

	// Welch-Satterthwaite degrees of freedom.
	df := se2 * se2 / ((v1*v1)/(n1*n1*(n1-1)) + (v2*v2)/(n2*n2*(n2-1)))

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := clamp01(2 * (1 - tdist.CDF(math.Abs(t))))
	return &TTestResult{
		Statistic:      t,
		PValue:         p,
		DegreesFreedom: df,
		MeanDifference: m1 - m2,
		Significant:    p < alpha,
	}, nil
}

// ANOVAResult is a one-way analysis of variance outcome.
type ANOVAResult struct {
	Statistic     float64 `json:"statistic"`
	PValue        float64 `json:"p_value"`
	DFBetween     int     `json:"df_between"`
	DFWithin      int     `json:"df_within"`
	Significant   bool    `json:"significant"`
	GroupCount    int     `json:"group_count"`
	TotalObserved int     `json:"total_observed"`
}

// OneWayANOVA tests whether the group means differ. Groups may be as
// small as a single observation, as long as the pooled within-group
// degrees of freedom stay positive.
func OneWayANOVA(groups ...[]float64) (*ANOVAResult, error) {
	if len(groups) < 2 {
		return nil, eris.Errorf("stats: anova needs at least 2 groups, got %d", len(groups))
	}

	total := 0
	grand := 0.0
	for i, g := range groups {
		if len(g) == 0 {
			return nil, eris.Errorf("stats: anova group %d is empty", i)
		}
		total += len(g)
		for _, v := range g {
			grand += v
		}
	}
	if total-len(groups) < 1 {
		return nil, eris.Errorf("stats: anova needs more observations than groups, got %d across %d", total, len(groups))
	}
	grand /= float64(total)

	ssb, ssw := 0.0, 0.0
	for _, g := range groups {
		m := gslstat.Mean(gslstat.Float64Slice(g))
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}

	dfb := len(groups) - 1
	dfw := total - len(groups)
	if ssw == 0 {
		return nil, eris.New("stats: anova undefined, zero within-group variance")
	}
	f := (ssb / float64(dfb)) / (ssw / float64(dfw))

	fdist := distuv.F{D1: float64(dfb), D2: float64(dfw)}
	p := clamp01(1 - fdist.CDF(f))
	return &ANOVAResult{
		Statistic:     f,
		PValue:        p,
		DFBetween:     dfb,
		DFWithin:      dfw,
		Significant:   p < alpha,
		GroupCount:    len(groups),
		TotalObserved: total,
	}, nil
}
