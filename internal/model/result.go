package model

import (
	"encoding/json"
	"time"
)

// Analysis type tags carried on AnalysisResult.
const (
	AnalysisTypeComprehensive = "comprehensive_price_analysis"
	AnalysisTypeComparison    = "comparison_analysis"
	AnalysisTypeStatistical   = "statistical_analysis"
	AnalysisTypeTrend         = "trend_analysis"
)

// Warning records a non-fatal failure of one analysis section. The section
// is omitted from Data; the rest of the analysis proceeds.
type Warning struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// AnalysisResult is the container handed to exporters and renderers. Data
// holds only nested maps, slices, and scalars so any consumer can walk it
// generically. Results are immutable once built.
type AnalysisResult struct {
	AnalysisType string         `json:"analysis_type"`
	Data         map[string]any `json:"data"`
	Timestamp    time.Time      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata"`
	Warnings     []Warning      `json:"warnings,omitempty"`
}

// NewAnalysisResult builds a result stamped with the current time.
func NewAnalysisResult(analysisType string, data map[string]any, metadata map[string]any) *AnalysisResult {
	if data == nil {
		data = map[string]any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &AnalysisResult{
		AnalysisType: analysisType,
		Data:         data,
		Timestamp:    time.Now().UTC(),
		Metadata:     metadata,
	}
}

// Degraded reports whether the named section was omitted due to a
// computation failure.
func (r *AnalysisResult) Degraded(section string) bool {
	for _, w := range r.Warnings {
		if w.Section == section {
			return true
		}
	}
	return false
}

// ToMap flattens the result losslessly into plain JSON-serializable values.
// Timestamps are rendered as ISO-8601 strings.
func (r *AnalysisResult) ToMap() map[string]any {
	m := map[string]any{
		"analysis_type": r.AnalysisType,
		"data":          r.Data,
		"timestamp":     r.Timestamp.Format(time.RFC3339),
		"metadata":      r.Metadata,
	}
	if len(r.Warnings) > 0 {
		warnings := make([]map[string]any, 0, len(r.Warnings))
		for _, w := range r.Warnings {
			warnings = append(warnings, map[string]any{"section": w.Section, "message": w.Message})
		}
		m["warnings"] = warnings
	}
	return m
}

// MarshalJSON renders the flattened form so timestamps serialize as
// ISO-8601 strings rather than Go's default time encoding of nested values.
func (r *AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

// StatisticalSummary is the descriptive-statistics block computed over a
// price column. It is a pure function of its input and carries no identity.
type StatisticalSummary struct {
	Count                  int                `json:"count"`
	Mean                   float64            `json:"mean"`
	Median                 float64            `json:"median"`
	Mode                   float64            `json:"mode"`
	Std                    float64            `json:"std"`
	Variance               float64            `json:"variance"`
	Min                    float64            `json:"min"`
	Max                    float64            `json:"max"`
	Range                  float64            `json:"range"`
	Percentiles            map[string]float64 `json:"percentiles"`
	Skewness               float64            `json:"skewness"`
	Kurtosis               float64            `json:"kurtosis"`
	CoefficientOfVariation float64            `json:"coefficient_of_variation"`
	IQR                    float64            `json:"iqr"`
	QuartileDeviation      float64            `json:"quartile_deviation"`
	MeanAbsoluteDeviation  float64            `json:"mean_absolute_deviation"`
}
