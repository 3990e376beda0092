// Package wizard implements the survey creation flow as a pure transition
// function over model.Session.
//
//	none ──create──▶ title ──title──▶ description ──description──▶ variations ──deploy──▶ analysis
//	  └──select──▶ none (selected_survey set)
//
// Transition never mutates its input. On error the returned session is the
// input unchanged, so a blocked transition simply re-prompts the same step.
package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/surveylab/internal/model"
)

// Transition applies e to s and returns the next session together with the
// side effect the caller must execute.
func Transition(s *model.Session, e Event) (*model.Session, Effect, error) {
	if !s.LoggedIn {
		return s, EffectNone, ErrNotLoggedIn
	}

	var (
		next   *model.Session
		effect = EffectNone
		err    error
	)

	switch ev := e.(type) {
	case CreateSurvey:
		next, err = createSurvey(s, ev)
	case SelectSurvey:
		next, err = selectSurvey(s, ev)
	case SaveTitle:
		next, err = saveTitle(s, ev)
	case SaveDescription:
		next, err = saveDescription(s, ev)
	case Deploy:
		next, err = deploy(s, ev)
		effect = EffectDeploy
	case Reanalyze:
		next, err = reanalyze(s)
		effect = EffectAnalyze
	case Restart:
		next = s.Clone()
		next.CurrentStep = model.StepNone
		next.PendingSurveyID = ""
	default:
		err = fmt.Errorf("unknown event %T", e)
	}

	if err != nil {
		return s, EffectNone, err
	}
	next.UpdatedAt = time.Now().UTC()
	return next, effect, nil
}

// createSurvey trims the id since it is a lookup key in URLs and store keys.
// Titles and descriptions are stored as typed.
func createSurvey(s *model.Session, ev CreateSurvey) (*model.Session, error) {
	if s.CurrentStep != model.StepNone {
		return nil, ErrInvalidStep
	}
	id := strings.TrimSpace(ev.SurveyID)
	if id == "" {
		return nil, ErrBlankInput
	}
	if _, exists := s.Surveys[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSurveyExists, id)
	}
	next := s.Clone()
	next.PendingSurveyID = id
	next.CurrentStep = model.StepTitle
	return next, nil
}

func selectSurvey(s *model.Session, ev SelectSurvey) (*model.Session, error) {
	if s.CurrentStep != model.StepNone {
		return nil, ErrInvalidStep
	}
	if len(s.Surveys) == 0 {
		return nil, ErrNoSurveys
	}
	if _, ok := s.Surveys[ev.SurveyID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSurveyNotFound, ev.SurveyID)
	}
	next := s.Clone()
	next.SelectedSurvey = ev.SurveyID
	next.CurrentStep = model.StepNone
	return next, nil
}

func saveTitle(s *model.Session, ev SaveTitle) (*model.Session, error) {
	if s.CurrentStep != model.StepTitle {
		return nil, ErrInvalidStep
	}
	if strings.TrimSpace(ev.Title) == "" {
		return nil, ErrBlankInput
	}
	next := s.Clone()
	next.Surveys[s.PendingSurveyID] = &model.Survey{
		ID:         s.PendingSurveyID,
		Title:      ev.Title,
		Variations: []string{},
	}
	next.CurrentStep = model.StepDescription
	return next, nil
}

func saveDescription(s *model.Session, ev SaveDescription) (*model.Session, error) {
	if s.CurrentStep != model.StepDescription {
		return nil, ErrInvalidStep
	}
	if strings.TrimSpace(ev.Description) == "" {
		return nil, ErrBlankInput
	}
	sv, ok := s.ActiveSurvey()
	if !ok {
		return nil, ErrSurveyNotFound
	}
	next := s.Clone()
	updated := sv.Clone()
	updated.Description = ev.Description
	next.Surveys[updated.ID] = updated
	next.CurrentStep = model.StepVariations
	return next, nil
}

// deploy stores the variations only when the save flag is set, then advances
// to analysis regardless. Advancing is not gated on saving; a survey that
// still has no variations is rejected instead of simulated.
func deploy(s *model.Session, ev Deploy) (*model.Session, error) {
	if s.CurrentStep != model.StepVariations {
		return nil, ErrInvalidStep
	}
	sv, ok := s.ActiveSurvey()
	if !ok {
		return nil, ErrSurveyNotFound
	}
	updated := sv.Clone()
	if ev.Save {
		updated.Variations = ParseVariations(ev.Variations)
	}
	if len(updated.Variations) == 0 {
		return nil, ErrNoVariations
	}

	audience := ev.Audience
	if audience == "" {
		audience = model.AudienceExistingCustomers
	}
	channel := ev.Channel
	if channel == "" {
		channel = model.ChannelEmail
	}
	if !audience.Valid() {
		return nil, fmt.Errorf("%w: audience %q", ErrInvalidOption, audience)
	}
	if !channel.Valid() {
		return nil, fmt.Errorf("%w: channel %q", ErrInvalidOption, channel)
	}
	updated.Deployment = &model.Deployment{Audience: audience, Channel: channel}

	next := s.Clone()
	next.Surveys[updated.ID] = updated
	next.CurrentStep = model.StepAnalysis
	return next, nil
}

func reanalyze(s *model.Session) (*model.Session, error) {
	if s.CurrentStep != model.StepAnalysis {
		return nil, ErrInvalidStep
	}
	sv, ok := s.ActiveSurvey()
	if !ok {
		return nil, ErrSurveyNotFound
	}
	if len(sv.Responses) == 0 {
		return nil, ErrNoVariations
	}
	return s.Clone(), nil
}

// ParseVariations splits comma-separated text into trimmed, non-blank variations.
func ParseVariations(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
