package model

import (
	"sort"
	"time"
)

// Step enumerates the wizard states of a session.
type Step string

const (
	// StepNone means no survey is being built: the user is choosing between
	// creating a new survey and selecting an existing one.
	StepNone        Step = ""
	StepTitle       Step = "title"
	StepDescription Step = "description"
	StepVariations  Step = "variations"
	StepAnalysis    Step = "analysis"
)

// Session is the per-user interactive state. Handlers receive a session,
// derive a new one, and store it; a session value is never shared between
// concurrent turns.
type Session struct {
	ID              string             `json:"id"`
	LoggedIn        bool               `json:"logged_in"`
	CurrentUser     string             `json:"current_user,omitempty"`
	Surveys         map[string]*Survey `json:"surveys"`
	SelectedSurvey  string             `json:"selected_survey,omitempty"`
	CurrentStep     Step               `json:"current_step"`
	PendingSurveyID string             `json:"pending_survey_id,omitempty"`
	// Version counts successful saves. A save carrying a stale version is
	// rejected by the store.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an empty, logged-out session.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Surveys:   make(map[string]*Survey),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone copies the session and its survey map. Surveys themselves are shared;
// callers replace a survey with its own Clone before modifying it.
func (s *Session) Clone() *Session {
	c := *s
	c.Surveys = make(map[string]*Survey, len(s.Surveys))
	for id, sv := range s.Surveys {
		c.Surveys[id] = sv
	}
	return &c
}

// SurveyIDs returns the ids of all surveys in the session, sorted.
func (s *Session) SurveyIDs() []string {
	ids := make([]string, 0, len(s.Surveys))
	for id := range s.Surveys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ActiveSurvey returns the survey under construction, if any.
func (s *Session) ActiveSurvey() (*Survey, bool) {
	if s.PendingSurveyID == "" {
		return nil, false
	}
	sv, ok := s.Surveys[s.PendingSurveyID]
	return sv, ok
}

// SessionView is the client-facing projection of a session.
type SessionView struct {
	CurrentUser     string   `json:"current_user"`
	CurrentStep     Step     `json:"current_step"`
	PendingSurveyID string   `json:"pending_survey_id,omitempty"`
	SelectedSurvey  string   `json:"selected_survey,omitempty"`
	SurveyIDs       []string `json:"survey_ids"`
}

// View builds the client-facing projection.
func (s *Session) View() SessionView {
	return SessionView{
		CurrentUser:     s.CurrentUser,
		CurrentStep:     s.CurrentStep,
		PendingSurveyID: s.PendingSurveyID,
		SelectedSurvey:  s.SelectedSurvey,
		SurveyIDs:       s.SurveyIDs(),
	}
}
