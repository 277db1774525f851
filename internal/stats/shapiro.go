package stats

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ShapiroWilk runs the Shapiro-Wilk normality test using Royston's
// approximation for the weights and the p-value. Valid for sample sizes
// between 3 and 5000.
func ShapiroWilk(values []float64) (w, p float64, err error) {
	n := len(values)
	if n < 3 {
		return 0, 0, eris.Errorf("stats: shapiro-wilk needs n >= 3, got %d", n)
	}
	if n > 5000 {
		return 0, 0, eris.Errorf("stats: shapiro-wilk approximation unreliable beyond n = 5000, got %d", n)
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)
	if x[0] == x[n-1] {
		return 0, 0, eris.New("stats: shapiro-wilk undefined for constant sample")
	}

	// Expected normal order statistics via the Blom approximation.
	m := make([]float64, n)
	ss := 0.0
	for i := 0; i < n; i++ {
		m[i] = stdNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ss += m[i] * m[i]
	}

	a := make([]float64, n)
	rsn := 1 / math.Sqrt(float64(n))
	an := poly(rsn, -2.706056, 4.434685, -2.071190, -0.147981, 0.221157, 0) + m[n-1]/math.Sqrt(ss)
	var phi float64
	if n > 5 {
		an1 := poly(rsn, -3.582633, 5.682633, -1.752461, -0.293762, 0.042981, 0) + m[n-2]/math.Sqrt(ss)
		phi = (ss - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		a[n-1], a[0] = an, -an
		a[n-2], a[1] = an1, -an1
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	} else {
		phi = (ss - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		a[n-1], a[0] = an, -an
		for i := 1; i < n-1; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	num, den := 0.0, 0.0
	for i, v := range x {
		num += a[i] * v
		den += (v - mean) * (v - mean)
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	p = shapiroP(w, n)
	return w, p, nil
}

// shapiroP maps the W statistic to a p-value using Royston's normalizing
// transforms.
func shapiroP(w float64, n int) float64 {
	switch {
	case n == 3:
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return clamp01(p)
	case n <= 11:
		fn := float64(n)
		g := -2.273 + 0.459*fn
		mu := 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sigma := math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
		z := (-math.Log(g-math.Log(1-w)) - mu) / sigma
		return clamp01(1 - stdNormal.CDF(z))
	default:
		lnN := math.Log(float64(n))
		mu := 0.0038915*lnN*lnN*lnN - 0.083751*lnN*lnN - 0.31082*lnN - 1.5861
		sigma := math.Exp(0.0030302*lnN*lnN - 0.082676*lnN - 0.4803)
		z := (math.Log(1-w) - mu) / sigma
		return clamp01(1 - stdNormal.CDF(z))
	}
}

// poly evaluates c5*x^5 + c4*x^4 + c3*x^3 + c2*x^2 + c1*x + c0.
func poly(x, c5, c4, c3, c2, c1, c0 float64) float64 {
	return ((((c5*x+c4)*x+c3)*x+c2)*x+c1)*x + c0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
