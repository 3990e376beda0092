package analysis

import (
	"sort"

	"github.com/stemsi/surveylab/internal/model"
	"gonum.org/v1/gonum/stat"
)

// BuildDashboard produces the chart data for a set of records: participant
// counts and mean quality per variation (sorted by name), and a quality
// box plot per variation in order of first appearance.
func BuildDashboard(records []model.ParticipantRecord) model.Dashboard {
	groups, order := groupQuality(records)
	names := sortedKeys(groups)

	counts := model.BarChart{Title: "Completion Rates per Variation", Labels: names, Values: make([]float64, len(names))}
	quality := model.BarChart{Title: "Average Response Quality per Variation", Labels: names, Values: make([]float64, len(names))}
	for i, v := range names {
		counts.Values[i] = float64(len(groups[v]))
		quality.Values[i] = stat.Mean(groups[v], nil)
	}

	box := model.BoxChart{Title: "Response Quality Distribution per Variation", Series: make([]model.BoxSeries, 0, len(order))}
	for _, v := range order {
		q := append([]float64(nil), groups[v]...)
		sort.Float64s(q)
		box.Series = append(box.Series, model.BoxSeries{
			Name:   v,
			Count:  len(q),
			Min:    q[0],
			Q1:     stat.Quantile(0.25, stat.LinInterp, q, nil),
			Median: stat.Quantile(0.5, stat.LinInterp, q, nil),
			Q3:     stat.Quantile(0.75, stat.LinInterp, q, nil),
			Max:    q[len(q)-1],
			Mean:   stat.Mean(q, nil),
		})
	}

	return model.Dashboard{
		CompletionCounts: counts,
		AverageQuality:   quality,
		QualitySpread:    box,
	}
}
