package analysis

import (
	"context"
	"time"

	"github.com/stemsi/surveylab/internal/model"
)

// Pipeline runs analysis, recommendation, optimization and dashboard
// rendering, in that order, over a survey's responses.
type Pipeline struct {
	recommender *Recommender
	now         func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(recommender *Recommender) *Pipeline {
	return &Pipeline{recommender: recommender, now: time.Now}
}

// Run analyzes survey.Responses and appends the optimized variation to
// survey.Variations. The caller owns survey and must pass a copy if the
// original has to stay untouched.
func (p *Pipeline) Run(ctx context.Context, survey *model.Survey) (*model.AnalysisReport, error) {
	if len(survey.Responses) == 0 {
		return nil, ErrNoRecords
	}

	summary := Analyze(survey.Responses)

	rec, err := p.recommender.Recommend(ctx, survey.Responses)
	if err != nil {
		return nil, err
	}

	optimized := Optimize(rec.BestVariation, survey)

	report := &model.AnalysisReport{
		SurveyID:           survey.ID,
		Title:              survey.Title,
		Participants:       summary.Total,
		CompletionRates:    summary.CompletionRates,
		AverageQuality:     summary.AverageQuality,
		R2Score:            rec.R2Score,
		BestVariation:      rec.BestVariation,
		OptimizedVariation: optimized,
		Dashboard:          BuildDashboard(survey.Responses),
		GeneratedAt:        p.now().UTC(),
	}
	return report, nil
}
