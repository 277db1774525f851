package stats

import (
	"encoding/json"
	"sort"

	gslstat "github.com/grd/stat"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/model"
)

// Section names used in results and degradation warnings.
const (
	SectionDescriptive = "descriptive"
	SectionNormality   = "normality"
	SectionFit         = "distribution_fit"
	SectionOutliers    = "outliers"
	SectionIntervals   = "confidence_intervals"
	SectionCorrelation = "correlation"
	SectionHypothesis  = "hypothesis_tests"
)

// DefaultConfidence is the confidence level for interval estimates.
const DefaultConfidence = 0.95

// Engine runs the full statistical battery over a value column. Sections
// that cannot be computed for a given sample are recorded as warnings on
// the result instead of failing the whole analysis.
type Engine struct {
	confidence    float64
	seed          uint64
	outlierMethod string
	zThreshold    float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConfidence sets the confidence level for interval estimates.
func WithConfidence(level float64) EngineOption {
	return func(e *Engine) {
		if level > 0 && level < 1 {
			e.confidence = level
		}
	}
}

// WithSeed fixes the bootstrap seed for reproducible intervals.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) { e.seed = seed }
}

// WithOutlierMethod restricts outlier detection to one named method
// instead of reporting all three side by side. Unknown names are ignored.
func WithOutlierMethod(method string) EngineOption {
	return func(e *Engine) {
		switch method {
		case MethodIQR, MethodZScore, MethodModifiedZScore:
			e.outlierMethod = method
		}
	}
}

// WithZThreshold overrides the cutoff of the method selected with
// WithOutlierMethod; the combined three-method report keeps the defaults.
// Non-positive values keep the defaults.
func WithZThreshold(threshold float64) EngineOption {
	return func(e *Engine) {
		if threshold > 0 {
			e.zThreshold = threshold
		}
	}
}

// NewEngine returns an Engine with a 95% confidence level and a fixed
// default seed.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{confidence: DefaultConfidence, seed: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze computes every applicable section over values. Empty input is a
// validation error; everything else degrades per section.
func (e *Engine) Analyze(values []float64) (*model.AnalysisResult, error) {
	if len(values) == 0 {
		return nil, &model.ValidationError{Reason: "no values to analyze"}
	}

	result := model.NewAnalysisResult(model.AnalysisTypeStatistical, nil, map[string]any{
		"sample_size":      len(values),
		"confidence_level": e.confidence,
	})

	if summary, err := Summarize(values); err != nil {
		degrade(result, SectionDescriptive, err)
	} else {
		result.Data[SectionDescriptive] = asMap(summary)
		result.Data["dispersion"] = DispersionLabel(summary.CoefficientOfVariation)
	}

	if report, err := Normality(values); err != nil {
		degrade(result, SectionNormality, err)
	} else {
		result.Data[SectionNormality] = asMap(report)
	}

	if fit, err := FitDistribution(values); err != nil {
		degrade(result, SectionFit, err)
	} else {
		result.Data[SectionFit] = asMap(fit)
	}

	if e.outlierMethod != "" {
		if res, err := DetectOutliersBy(values, e.outlierMethod, e.zThreshold); err != nil {
			degrade(result, SectionOutliers, err)
		} else {
			result.Data[SectionOutliers] = asMap(res)
		}
	} else if outliers, err := DetectOutliers(values); err != nil {
		degrade(result, SectionOutliers, err)
	} else {
		result.Data[SectionOutliers] = asMap(outliers)
	}

	intervals := map[string]any{}
	if ci, err := MeanCI(values, e.confidence); err != nil {
		degrade(result, SectionIntervals, err)
	} else {
		intervals["mean"] = asMap(ci)
		if ci, err := BootstrapMedianCI(values, e.confidence, e.seed); err == nil {
			intervals["median"] = asMap(ci)
		}
		result.Data[SectionIntervals] = intervals
	}

	return result, nil
}

// AnalyzeTable runs Analyze over the table's valid price column and adds
// the table-level sections: Pearson correlations across the numeric record
// fields, and hypothesis tests within and across platform price groups.
func (e *Engine) AnalyzeTable(table *model.Table) (*model.AnalysisResult, error) {
	result, err := e.Analyze(table.ValidPrices())
	if err != nil {
		return nil, err
	}

	if matrix, err := FieldCorrelations(table.Records); err != nil {
		degrade(result, SectionCorrelation, err)
	} else {
		result.Data[SectionCorrelation] = asMap(matrix)
	}

	if tests, err := hypothesisBattery(table); err != nil {
		degrade(result, SectionHypothesis, err)
	} else {
		result.Data[SectionHypothesis] = tests
	}

	return result, nil
}

// hypothesisBattery runs the price hypothesis tests: a one-sample t-test
// of the mean against the overall median, and, when at least two
// platforms carry valid prices, a one-way ANOVA across the platform
// groups plus pairwise Welch t-tests between the groups large enough for
// one. Tests that cannot run on the sample are simply left out; the
// battery fails only when nothing could run.
func hypothesisBattery(table *model.Table) (map[string]any, error) {
	out := map[string]any{}

	prices := table.ValidPrices()
	if len(prices) >= 2 {
		med := sampleMedian(prices)
		if tt, err := OneSampleTTest(prices, med); err == nil {
			entry := asMap(tt)
			entry["hypothesized_value"] = med
			out["mean_vs_median"] = entry
		}
	}

	type group struct {
		platform string
		prices   []float64
	}
	var groups []group
	for _, platform := range table.Platforms() {
		var vals []float64
		for _, r := range table.Records {
			if r.Platform == platform && r.HasPrice() {
				vals = append(vals, r.Price)
			}
		}
		if len(vals) > 0 {
			groups = append(groups, group{platform: platform, prices: vals})
		}
	}

	if len(groups) >= 2 {
		cols := make([][]float64, len(groups))
		names := make([]string, len(groups))
		for i, g := range groups {
			cols[i] = g.prices
			names[i] = g.platform
		}
		if av, err := OneWayANOVA(cols...); err == nil {
			entry := asMap(av)
			entry["platforms"] = names
			out["anova"] = entry
		}

		var pairwise []map[string]any
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if len(groups[i].prices) < 2 || len(groups[j].prices) < 2 {
					continue
				}
				tt, err := WelchTTest(groups[i].prices, groups[j].prices)
				if err != nil {
					continue
				}
				entry := asMap(tt)
				entry["platforms"] = []string{groups[i].platform, groups[j].platform}
				pairwise = append(pairwise, entry)
			}
		}
		if len(pairwise) > 0 {
			out["pairwise"] = pairwise
		}
	}

	if len(out) == 0 {
		return nil, eris.New("stats: sample too small for hypothesis tests")
	}
	return out, nil
}

func sampleMedian(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return gslstat.MedianFromSortedData(gslstat.Float64Slice(sorted))
}

// degrade records a section failure and logs it; the section is left out
// of the result data.
func degrade(result *model.AnalysisResult, section string, err error) {
	result.Warnings = append(result.Warnings, model.Warning{
		Section: section,
		Message: eris.ToString(err, false),
	})
	zap.L().Warn("statistics section skipped",
		zap.String("section", section), zap.Error(err))
}

// asMap flattens a result struct into plain JSON types so exporters can
// walk the data generically.
func asMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
