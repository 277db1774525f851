package stats

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat/distuv"
)

var chi2df2 = distuv.ChiSquared{K: 2}

// alpha is the significance level shared by all normality decisions.
const alpha = 0.05

// TestResult is one normality test outcome.
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Normal    bool    `json:"normal"`
}

// NormalityReport aggregates the individual normality tests. DAgostino is
// nil when the sample is too small for the kurtosis transform.
type NormalityReport struct {
	ShapiroWilk *TestResult `json:"shapiro_wilk,omitempty"`
	JarqueBera  *TestResult `json:"jarque_bera,omitempty"`
	DAgostino   *TestResult `json:"dagostino_k2,omitempty"`
	Consensus   bool        `json:"consensus_normal"`
}

// Normality runs every applicable normality test and takes a majority vote.
func Normality(values []float64) (*NormalityReport, error) {
	if len(values) < 3 {
		return nil, eris.Errorf("stats: normality tests need n >= 3, got %d", len(values))
	}

	report := &NormalityReport{}
	votes, normal := 0, 0

	if w, p, err := ShapiroWilk(values); err == nil {
		report.ShapiroWilk = &TestResult{Statistic: w, PValue: p, Normal: p > alpha}
		votes++
		if p > alpha {
			normal++
		}
	}
	if jb, p, err := JarqueBera(values); err == nil {
		report.JarqueBera = &TestResult{Statistic: jb, PValue: p, Normal: p > alpha}
		votes++
		if p > alpha {
			normal++
		}
	}
	if k2, p, err := DAgostinoK2(values); err == nil {
		report.DAgostino = &TestResult{Statistic: k2, PValue: p, Normal: p > alpha}
		votes++
		if p > alpha {
			normal++
		}
	}

	if votes == 0 {
		return nil, eris.New("stats: no normality test applicable")
	}
	report.Consensus = normal*2 > votes
	return report, nil
}

// JarqueBera computes the Jarque-Bera statistic and its chi-squared (2 df)
// p-value.
func JarqueBera(values []float64) (jb, p float64, err error) {
	n := len(values)
	if n < 4 {
		return 0, 0, eris.Errorf("stats: jarque-bera needs n >= 4, got %d", n)
	}
	m2, m3, m4, ok := centralMoments(values)
	if !ok {
		return 0, 0, eris.New("stats: jarque-bera undefined for constant sample")
	}
	skew := m3 / math.Pow(m2, 1.5)
	exKurt := m4/(m2*m2) - 3
	jb = float64(n) / 6 * (skew*skew + exKurt*exKurt/4)
	return jb, clamp01(1 - chi2df2.CDF(jb)), nil
}

// DAgostinoK2 computes D'Agostino's K-squared omnibus statistic. The
// kurtosis transform is unstable below n = 8.
func DAgostinoK2(values []float64) (k2, p float64, err error) {
	n := len(values)
	if n < 8 {
		return 0, 0, eris.Errorf("stats: dagostino k2 needs n >= 8, got %d", n)
	}
	m2, m3, m4, ok := centralMoments(values)
	if !ok {
		return 0, 0, eris.New("stats: dagostino k2 undefined for constant sample")
	}
	fn := float64(n)

	// Skewness transform, D'Agostino (1970).
	g1 := m3 / math.Pow(m2, 1.5)
	y := g1 * math.Sqrt((fn+1)*(fn+3)/(6*(fn-2)))
	beta2 := 3 * (fn*fn + 27*fn - 70) * (fn + 1) * (fn + 3) /
		((fn - 2) * (fn + 5) * (fn + 7) * (fn + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(math.Log(math.Sqrt(w2)))
	a := math.Sqrt(2 / (w2 - 1))
	z1 := delta * math.Log(y/a+math.Sqrt(y*y/(a*a)+1))

	// Kurtosis transform, Anscombe and Glynn (1983).
	b2 := m4 / (m2 * m2)
	eb2 := 3 * (fn - 1) / (fn + 1)
	vb2 := 24 * fn * (fn - 2) * (fn - 3) / ((fn + 1) * (fn + 1) * (fn + 3) * (fn + 5))
	x := (b2 - eb2) / math.Sqrt(vb2)
	sqrtB1 := 6 * (fn*fn - 5*fn + 2) / ((fn + 7) * (fn + 9)) *
		math.Sqrt(6*(fn+3)*(fn+5)/(fn*(fn-2)*(fn-3)))
	aa := 6 + 8/sqrtB1*(2/sqrtB1+math.Sqrt(1+4/(sqrtB1*sqrtB1)))
	z2 := ((1 - 2/(9*aa)) -
		math.Cbrt((1-2/aa)/(1+x*math.Sqrt(2/(aa-2))))) /
		math.Sqrt(2/(9*aa))

	k2 = z1*z1 + z2*z2
	return k2, clamp01(1 - chi2df2.CDF(k2)), nil
}

// centralMoments returns the population central moments m2, m3, m4. ok is
// false for a constant sample.
func centralMoments(values []float64) (m2, m3, m4 float64, ok bool) {
	n := float64(len(values))
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m3 /= n
	m4 /= n
	return m2, m3, m4, m2 > 0
}
