// Package simulation synthesizes participant responses for a deployed survey.
package simulation

import (
	"errors"
	"math/rand/v2"

	"github.com/stemsi/surveylab/internal/model"
)

const (
	// DefaultParticipants is the number of records generated per deployment.
	DefaultParticipants = 200000

	// MaxCompletionTime is the largest completion time sampled (inclusive).
	MaxCompletionTime = 29
)

// ErrNoVariations is returned when the survey has nothing to assign participants to.
var ErrNoVariations = errors.New("simulation: survey has no variations")

// Simulator generates participant records from an injected random source.
// A Simulator is not safe for concurrent use; build one per deployment or
// guard it externally.
type Simulator struct {
	rng          *rand.Rand
	participants int
}

// New creates a Simulator. A nil rng yields an unseeded generator, so results
// differ between runs.
func New(rng *rand.Rand, participants int) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if participants <= 0 {
		participants = DefaultParticipants
	}
	return &Simulator{rng: rng, participants: participants}
}

// NewSeeded creates a deterministic Simulator.
func NewSeeded(seed uint64, participants int) *Simulator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), participants)
}

// Participants reports how many records Simulate produces.
func (s *Simulator) Participants() int { return s.participants }

// Simulate draws the configured number of records for survey. Each record's
// variation is sampled uniformly with replacement from survey.Variations,
// completion time uniformly from 1..29 and quality uniformly from [0,1).
func (s *Simulator) Simulate(survey *model.Survey) ([]model.ParticipantRecord, error) {
	variations := survey.Variations
	if len(variations) == 0 {
		return nil, ErrNoVariations
	}

	records := make([]model.ParticipantRecord, s.participants)
	for i := range records {
		records[i] = model.ParticipantRecord{
			Variation:       variations[s.rng.IntN(len(variations))],
			CompletionTime:  1 + s.rng.IntN(MaxCompletionTime),
			ResponseQuality: s.rng.Float64(),
		}
	}
	return records, nil
}
