package wizard

import "github.com/stemsi/surveylab/internal/model"

// Event is a single user action fed to Transition.
type Event interface {
	// Name identifies the event kind in logs and metrics.
	Name() string
}

// CreateSurvey chooses "create a new survey" and submits its id.
type CreateSurvey struct {
	SurveyID string
}

// SelectSurvey chooses "select an existing survey".
type SelectSurvey struct {
	SurveyID string
}

// SaveTitle confirms the title of the survey under construction.
type SaveTitle struct {
	Title string
}

// SaveDescription confirms the description of the survey under construction.
type SaveDescription struct {
	Description string
}

// Deploy is submitted from the variations step. Variations holds the raw
// comma-separated text and is only stored when Save is set.
type Deploy struct {
	Variations string
	Save       bool
	Audience   model.Audience
	Channel    model.Channel
}

// Reanalyze re-runs the analysis pipeline on the responses already collected.
type Reanalyze struct{}

// Restart abandons the current wizard and returns to mode selection.
type Restart struct{}

func (CreateSurvey) Name() string    { return "create" }
func (SelectSurvey) Name() string    { return "select" }
func (SaveTitle) Name() string       { return "title" }
func (SaveDescription) Name() string { return "description" }
func (Deploy) Name() string          { return "deploy" }
func (Reanalyze) Name() string       { return "reanalyze" }
func (Restart) Name() string         { return "restart" }

// Effect is the side effect the caller must run after a successful transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectDeploy simulates participants, then runs the analysis pipeline.
	EffectDeploy
	// EffectAnalyze runs the analysis pipeline on existing responses.
	EffectAnalyze
)

func (e Effect) String() string {
	switch e {
	case EffectDeploy:
		return "deploy"
	case EffectAnalyze:
		return "analyze"
	default:
		return "none"
	}
}
