package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/stemsi/surveylab/internal/forest"
	"github.com/stemsi/surveylab/internal/model"
)

// ErrNoRecords is returned when there is nothing to learn from.
var ErrNoRecords = errors.New("analysis: no participant records")

// Recommendation is the outcome of the recommendation engine.
type Recommendation struct {
	BestVariation string
	// R2Score is the held-out fit quality of the regression. It is reported
	// for information only and does not influence BestVariation.
	R2Score float64
}

// Recommender fits a bagged-tree regression of response quality on the
// one-hot encoded variation and completion time, then picks the variation
// with the highest mean quality.
type Recommender struct {
	cfg          forest.Config
	testFraction float64
	splitSeed    uint64
}

// NewRecommender creates a Recommender. The train/test split always uses
// seed 42 and a 30% test share.
func NewRecommender(cfg forest.Config) *Recommender {
	return &Recommender{cfg: cfg, testFraction: 0.3, splitSeed: 42}
}

// Recommend runs the regression and returns the best variation.
func (r *Recommender) Recommend(ctx context.Context, records []model.ParticipantRecord) (Recommendation, error) {
	if len(records) == 0 {
		return Recommendation{}, ErrNoRecords
	}

	x, y := Encode(records)
	train, test := forest.TrainTestSplit(len(records), r.testFraction, r.splitSeed)

	var score float64
	if len(test) > 0 {
		xTrain, yTrain := rows(x, y, train)
		xTest, yTest := rows(x, y, test)

		f, err := forest.Fit(ctx, xTrain, yTrain, r.cfg)
		if err != nil {
			return Recommendation{}, fmt.Errorf("fit forest: %w", err)
		}
		score, err = f.Score(xTest, yTest)
		if err != nil {
			return Recommendation{}, fmt.Errorf("score forest: %w", err)
		}
	}

	best, _ := BestVariation(Analyze(records).AverageQuality)
	return Recommendation{BestVariation: best, R2Score: score}, nil
}

// Encode builds the feature matrix [completion_time, one-hot(variation)...]
// with the first variation (in sorted order) dropped, and the quality target.
func Encode(records []model.ParticipantRecord) ([][]float64, []float64) {
	present := make(map[string]struct{})
	for _, rec := range records {
		present[rec.Variation] = struct{}{}
	}
	categories := sortedKeys(present)
	column := make(map[string]int, len(categories))
	for i, c := range categories {
		column[c] = i // column 0 is completion_time; category 0 is dropped
	}

	width := len(categories)
	if width == 0 {
		width = 1
	}
	x := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, rec := range records {
		row := make([]float64, width)
		row[0] = float64(rec.CompletionTime)
		if c := column[rec.Variation]; c > 0 {
			row[c] = 1
		}
		x[i] = row
		y[i] = rec.ResponseQuality
	}
	return x, y
}

func rows(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, r := range idx {
		xs[i], ys[i] = x[r], y[r]
	}
	return xs, ys
}
