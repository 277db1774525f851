package stats

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	gonumstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pricelens/pricewatch/internal/model"
)

// CorrelationResult carries a correlation coefficient with its two-sided
// significance.
type CorrelationResult struct {
	Coefficient float64 `json:"coefficient"`
	PValue      float64 `json:"p_value"`
	N           int     `json:"n"`
	Significant bool    `json:"significant"`
}

// Pearson computes the Pearson product-moment correlation of two paired
// samples.
func Pearson(x, y []float64) (*CorrelationResult, error) {
	if err := checkPaired(x, y); err != nil {
		return nil, err
	}
	r := gonumstat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil, eris.New("stats: correlation undefined for constant sample")
	}
	return corrResult(r, len(x)), nil
}

// Spearman computes the Spearman rank correlation, with average ranks for
// ties.
func Spearman(x, y []float64) (*CorrelationResult, error) {
	if err := checkPaired(x, y); err != nil {
		return nil, err
	}
	r := gonumstat.Correlation(ranks(x), ranks(y), nil)
	if math.IsNaN(r) {
		return nil, eris.New("stats: correlation undefined for constant sample")
	}
	return corrResult(r, len(x)), nil
}

func checkPaired(x, y []float64) error {
	if len(x) != len(y) {
		return eris.Errorf("stats: paired samples differ in length, %d vs %d", len(x), len(y))
	}
	if len(x) < 3 {
		return eris.Errorf("stats: correlation needs n >= 3, got %d", len(x))
	}
	return nil
}

func corrResult(r float64, n int) *CorrelationResult {
	res := &CorrelationResult{Coefficient: r, N: n}
	if math.Abs(r) >= 1 {
		res.PValue = 0
		res.Significant = true
		return res
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	res.PValue = clamp01(2 * (1 - tdist.CDF(math.Abs(t))))
	res.Significant = res.PValue < alpha
	return res
}

// Strength labels for notable field correlations, split at 0.5 and 0.7
// absolute coefficient.
const (
	CorrelationModerate = "moderate"
	CorrelationStrong   = "strong"
)

const (
	notableCorrelation = 0.5
	strongCorrelation  = 0.7
)

// Numeric record fields examined by FieldCorrelations, in report order.
var correlationFields = []struct {
	name string
	get  func(model.ProductRecord) (float64, bool)
}{
	{"price", func(r model.ProductRecord) (float64, bool) { return r.Price, r.HasPrice() }},
	{"rating", func(r model.ProductRecord) (float64, bool) { return r.RatingValue(), r.HasRating() }},
	{"review_count", func(r model.ProductRecord) (float64, bool) {
		if r.ReviewCount == nil {
			return 0, false
		}
		return float64(*r.ReviewCount), true
	}},
}

// CorrelationMatrix is the pairwise Pearson picture across the numeric
// record fields. A pair is absent from Matrix when it has too little
// joint data or is constant.
type CorrelationMatrix struct {
	Fields  []string                      `json:"fields"`
	Matrix  map[string]map[string]float64 `json:"matrix"`
	Notable []FieldCorrelation            `json:"notable_pairs,omitempty"`
}

// FieldCorrelation is one field pair whose correlation clears the
// moderate threshold.
type FieldCorrelation struct {
	Fields      []string `json:"fields"`
	Coefficient float64  `json:"coefficient"`
	PValue      float64  `json:"p_value"`
	Strength    string   `json:"strength"`
}

// FieldCorrelations correlates every pair of numeric record fields over
// the records carrying both. At least two fields must have enough data.
func FieldCorrelations(records []model.ProductRecord) (*CorrelationMatrix, error) {
	var present []int
	for idx, f := range correlationFields {
		n := 0
		for _, r := range records {
			if _, ok := f.get(r); ok {
				n++
			}
		}
		if n >= 3 {
			present = append(present, idx)
		}
	}
	if len(present) < 2 {
		return nil, eris.Errorf("stats: correlation needs at least 2 numeric fields with data, got %d", len(present))
	}

	matrix := &CorrelationMatrix{Matrix: map[string]map[string]float64{}}
	for _, idx := range present {
		name := correlationFields[idx].name
		matrix.Fields = append(matrix.Fields, name)
		matrix.Matrix[name] = map[string]float64{name: 1}
	}
	for a := 0; a < len(present); a++ {
		for b := a + 1; b < len(present); b++ {
			fa := correlationFields[present[a]]
			fb := correlationFields[present[b]]
			var xs, ys []float64
			for _, r := range records {
				x, okX := fa.get(r)
				y, okY := fb.get(r)
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			res, err := Pearson(xs, ys)
			if err != nil {
				continue
			}
			matrix.Matrix[fa.name][fb.name] = res.Coefficient
			matrix.Matrix[fb.name][fa.name] = res.Coefficient
			if abs := math.Abs(res.Coefficient); abs > notableCorrelation {
				strength := CorrelationModerate
				if abs > strongCorrelation {
					strength = CorrelationStrong
				}
				matrix.Notable = append(matrix.Notable, FieldCorrelation{
					Fields:      []string{fa.name, fb.name},
					Coefficient: res.Coefficient,
					PValue:      res.PValue,
					Strength:    strength,
				})
			}
		}
	}
	return matrix, nil
}

// ranks assigns 1-based ranks with ties receiving their average rank.
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && values[idx[j]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			out[idx[k]] = avg
		}
		i = j
	}
	return out
}
