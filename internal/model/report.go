package model

import (
	"time"

	"github.com/google/uuid"
)

// BarChart is a single-series bar chart keyed by variation.
type BarChart struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// BoxSeries is the five-number summary of response quality for one variation.
type BoxSeries struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// BoxChart groups box-plot series.
type BoxChart struct {
	Title  string      `json:"title"`
	Series []BoxSeries `json:"series"`
}

// Dashboard holds the chart data rendered after an analysis.
type Dashboard struct {
	CompletionCounts BarChart `json:"completion_counts"`
	AverageQuality   BarChart `json:"average_quality"`
	QualitySpread    BoxChart `json:"quality_spread"`
}

// AnalysisReport is the output of one analysis pipeline run.
type AnalysisReport struct {
	SurveyID           string             `json:"survey_id"`
	Title              string             `json:"title"`
	Participants       int                `json:"participants"`
	CompletionRates    map[string]float64 `json:"completion_rates"`
	AverageQuality     map[string]float64 `json:"average_quality"`
	R2Score            float64            `json:"r2_score"`
	BestVariation      string             `json:"best_variation"`
	OptimizedVariation string             `json:"optimized_variation"`
	Dashboard          Dashboard          `json:"dashboard"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// ArchivedReport is the persisted summary of an analysis run.
type ArchivedReport struct {
	ID              uuid.UUID          `json:"id"`
	Username        string             `json:"username"`
	SurveyID        string             `json:"survey_id"`
	Title           string             `json:"title"`
	Participants    int                `json:"participants"`
	BestVariation   string             `json:"best_variation"`
	R2Score         float64            `json:"r2_score"`
	CompletionRates map[string]float64 `json:"completion_rates"`
	AverageQuality  map[string]float64 `json:"average_quality"`
	CreatedAt       time.Time          `json:"created_at"`
}
