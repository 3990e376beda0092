// Package analysis aggregates simulated responses, recommends the best
// variation, appends its optimized copy to the survey and builds chart data.
package analysis

import (
	"sort"

	"github.com/stemsi/surveylab/internal/model"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the per-variation aggregates. Variations without records
// are absent from every map.
type Summary struct {
	Total           int
	Counts          map[string]int
	CompletionRates map[string]float64
	AverageQuality  map[string]float64
}

// Analyze computes completion rates (percent of all records) and mean
// response quality per variation.
func Analyze(records []model.ParticipantRecord) Summary {
	groups, _ := groupQuality(records)

	s := Summary{
		Total:           len(records),
		Counts:          make(map[string]int, len(groups)),
		CompletionRates: make(map[string]float64, len(groups)),
		AverageQuality:  make(map[string]float64, len(groups)),
	}
	for v, q := range groups {
		s.Counts[v] = len(q)
		s.CompletionRates[v] = 100 * float64(len(q)) / float64(len(records))
		s.AverageQuality[v] = stat.Mean(q, nil)
	}
	return s
}

// BestVariation returns the variation with the highest mean quality. Ties go
// to the lexicographically smallest name. ok is false for an empty map.
func BestVariation(avgQuality map[string]float64) (best string, ok bool) {
	names := make([]string, 0, len(avgQuality))
	for v := range avgQuality {
		names = append(names, v)
	}
	sort.Strings(names)
	for _, v := range names {
		if !ok || avgQuality[v] > avgQuality[best] {
			best, ok = v, true
		}
	}
	return best, ok
}

// Optimize appends best + " - Optimized" to the survey's variations and
// returns the appended value. There is no uniqueness check: repeated calls
// append repeated entries.
func Optimize(best string, survey *model.Survey) string {
	optimized := best + model.OptimizedSuffix
	survey.Variations = append(survey.Variations, optimized)
	return optimized
}

// groupQuality buckets quality values by variation and also returns the
// variations in order of first appearance.
func groupQuality(records []model.ParticipantRecord) (map[string][]float64, []string) {
	groups := make(map[string][]float64)
	var order []string
	for _, r := range records {
		q, seen := groups[r.Variation]
		if !seen {
			order = append(order, r.Variation)
		}
		groups[r.Variation] = append(q, r.ResponseQuality)
	}
	return groups, order
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
