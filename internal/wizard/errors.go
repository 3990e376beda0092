package wizard

import "errors"

var (
	// ErrNotLoggedIn indicates the session has no authenticated user.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrBlankInput indicates a required text input was empty; the step is re-prompted.
	ErrBlankInput = errors.New("input must not be blank")
	// ErrSurveyExists indicates the requested survey id is already taken.
	ErrSurveyExists = errors.New("survey id already exists")
	// ErrSurveyNotFound indicates the requested survey id is unknown.
	ErrSurveyNotFound = errors.New("survey not found")
	// ErrNoSurveys indicates there is nothing to select.
	ErrNoSurveys = errors.New("no surveys available")
	// ErrInvalidStep indicates the event is not accepted in the current step.
	ErrInvalidStep = errors.New("event not allowed in current step")
	// ErrInvalidOption indicates an audience or channel outside the offered choices.
	ErrInvalidOption = errors.New("option not offered")
	// ErrNoVariations indicates a deployment was attempted with an empty variation list.
	ErrNoVariations = errors.New("survey has no variations")
)
