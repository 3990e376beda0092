package simulation

import (
	"testing"

	"github.com/stemsi/surveylab/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_RecordsWithinBounds(t *testing.T) {
	sim := NewSeeded(7, 5000)
	survey := &model.Survey{ID: "s1", Variations: []string{"A", "B"}}

	records, err := sim.Simulate(survey)
	require.NoError(t, err)
	require.Len(t, records, 5000)

	seen := map[string]int{}
	for _, r := range records {
		require.Contains(t, []string{"A", "B"}, r.Variation)
		require.GreaterOrEqual(t, r.CompletionTime, 1)
		require.LessOrEqual(t, r.CompletionTime, 29)
		require.GreaterOrEqual(t, r.ResponseQuality, 0.0)
		require.Less(t, r.ResponseQuality, 1.0)
		seen[r.Variation]++
	}
	assert.Positive(t, seen["A"])
	assert.Positive(t, seen["B"])
}

func TestSimulate_EmptyVariations(t *testing.T) {
	sim := NewSeeded(1, 10)
	_, err := sim.Simulate(&model.Survey{ID: "s1"})
	require.ErrorIs(t, err, ErrNoVariations)
}

func TestSimulate_SeededIsDeterministic(t *testing.T) {
	survey := &model.Survey{Variations: []string{"Red", "Blue", "Green"}}

	a, err := NewSeeded(42, 100).Simulate(survey)
	require.NoError(t, err)
	b, err := NewSeeded(42, 100).Simulate(survey)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestNew_DefaultParticipants(t *testing.T) {
	sim := New(nil, 0)
	require.Equal(t, DefaultParticipants, sim.Participants())
}

func TestSimulate_CoversCompletionTimeRange(t *testing.T) {
	records, err := NewSeeded(3, 20000).Simulate(&model.Survey{Variations: []string{"only"}})
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, r := range records {
		seen[r.CompletionTime] = true
	}
	for ct := 1; ct <= MaxCompletionTime; ct++ {
		assert.True(t, seen[ct], "completion time %d never sampled", ct)
	}
	assert.False(t, seen[30])
}
