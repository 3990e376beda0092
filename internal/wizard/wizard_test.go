package wizard

import (
	"testing"

	"github.com/stemsi/surveylab/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn() *model.Session {
	s := model.NewSession("sess-1")
	s.LoggedIn = true
	s.CurrentUser = "user1"
	return s
}

func apply(t *testing.T, s *model.Session, events ...Event) *model.Session {
	t.Helper()
	for _, e := range events {
		next, _, err := Transition(s, e)
		require.NoError(t, err, "event %s", e.Name())
		s = next
	}
	return s
}

func TestTransition_FullCreateFlow(t *testing.T) {
	s := apply(t, loggedIn(),
		CreateSurvey{SurveyID: "s1"},
		SaveTitle{Title: "Button Color Test"},
		SaveDescription{Description: "test"},
	)
	require.Equal(t, model.StepVariations, s.CurrentStep)

	next, effect, err := Transition(s, Deploy{Variations: "Red, Blue ,, ", Save: true})
	require.NoError(t, err)
	assert.Equal(t, EffectDeploy, effect)
	assert.Equal(t, model.StepAnalysis, next.CurrentStep)

	sv := next.Surveys["s1"]
	require.NotNil(t, sv)
	assert.Equal(t, "Button Color Test", sv.Title)
	assert.Equal(t, "test", sv.Description)
	assert.Equal(t, []string{"Red", "Blue"}, sv.Variations)
	require.NotNil(t, sv.Deployment)
	assert.Equal(t, model.AudienceExistingCustomers, sv.Deployment.Audience)
	assert.Equal(t, model.ChannelEmail, sv.Deployment.Channel)
}

func TestTransition_RequiresLogin(t *testing.T) {
	s := model.NewSession("anon")
	got, _, err := Transition(s, CreateSurvey{SurveyID: "s1"})
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Same(t, s, got)
}

func TestTransition_BlankInputBlocks(t *testing.T) {
	s := loggedIn()
	got, _, err := Transition(s, CreateSurvey{SurveyID: "   "})
	require.ErrorIs(t, err, ErrBlankInput)
	assert.Equal(t, model.StepNone, got.CurrentStep)

	s = apply(t, s, CreateSurvey{SurveyID: "s1"})
	got, _, err = Transition(s, SaveTitle{Title: ""})
	require.ErrorIs(t, err, ErrBlankInput)
	assert.Equal(t, model.StepTitle, got.CurrentStep)
	assert.Empty(t, got.Surveys)

	s = apply(t, s, SaveTitle{Title: "T"})
	got, _, err = Transition(s, SaveDescription{Description: "\n"})
	require.ErrorIs(t, err, ErrBlankInput)
	assert.Equal(t, model.StepDescription, got.CurrentStep)
}

func TestTransition_DuplicateIDRejected(t *testing.T) {
	s := apply(t, loggedIn(),
		CreateSurvey{SurveyID: "s1"},
		SaveTitle{Title: "First"},
		Restart{},
	)

	got, _, err := Transition(s, CreateSurvey{SurveyID: "s1"})
	require.ErrorIs(t, err, ErrSurveyExists)
	assert.Equal(t, model.StepNone, got.CurrentStep)
	assert.Equal(t, "First", got.Surveys["s1"].Title)
}

func TestTransition_SelectExisting(t *testing.T) {
	s := loggedIn()
	_, _, err := Transition(s, SelectSurvey{SurveyID: "s1"})
	require.ErrorIs(t, err, ErrNoSurveys)

	s = apply(t, s, CreateSurvey{SurveyID: "s1"}, SaveTitle{Title: "T"}, Restart{})

	_, _, err = Transition(s, SelectSurvey{SurveyID: "missing"})
	require.ErrorIs(t, err, ErrSurveyNotFound)

	next := apply(t, s, SelectSurvey{SurveyID: "s1"})
	assert.Equal(t, "s1", next.SelectedSurvey)
	assert.Equal(t, model.StepNone, next.CurrentStep)
}

func TestTransition_WrongStep(t *testing.T) {
	s := loggedIn()
	for _, e := range []Event{SaveTitle{Title: "x"}, SaveDescription{Description: "x"}, Deploy{}, Reanalyze{}} {
		_, _, err := Transition(s, e)
		require.ErrorIs(t, err, ErrInvalidStep, e.Name())
	}

	s = apply(t, s, CreateSurvey{SurveyID: "s1"})
	_, _, err := Transition(s, CreateSurvey{SurveyID: "s2"})
	require.ErrorIs(t, err, ErrInvalidStep)
	_, _, err = Transition(s, SelectSurvey{SurveyID: "s1"})
	require.ErrorIs(t, err, ErrInvalidStep)
}

func TestTransition_DeployWithoutSaveStillAdvances(t *testing.T) {
	s := apply(t, loggedIn(),
		CreateSurvey{SurveyID: "s1"},
		SaveTitle{Title: "T"},
		SaveDescription{Description: "D"},
	)

	// No variations stored yet and the text is not saved: guarded.
	got, _, err := Transition(s, Deploy{Variations: "A,B"})
	require.ErrorIs(t, err, ErrNoVariations)
	assert.Equal(t, model.StepVariations, got.CurrentStep)

	// Saving with only blanks leaves the list empty: guarded too.
	_, _, err = Transition(s, Deploy{Variations: " , ,", Save: true})
	require.ErrorIs(t, err, ErrNoVariations)

	// Variations already stored: deploy proceeds without saving the new text.
	withVars := s.Clone()
	sv := withVars.Surveys["s1"].Clone()
	sv.Variations = []string{"X", "Y"}
	withVars.Surveys["s1"] = sv

	next, effect, err := Transition(withVars, Deploy{Variations: "ignored", Audience: model.AudienceNewUsers, Channel: model.ChannelWebsite})
	require.NoError(t, err)
	assert.Equal(t, EffectDeploy, effect)
	assert.Equal(t, []string{"X", "Y"}, next.Surveys["s1"].Variations)
	assert.Equal(t, model.AudienceNewUsers, next.Surveys["s1"].Deployment.Audience)
	assert.Equal(t, model.ChannelWebsite, next.Surveys["s1"].Deployment.Channel)
}

func TestTransition_DeployRejectsUnofferedOptions(t *testing.T) {
	s := apply(t, loggedIn(),
		CreateSurvey{SurveyID: "s1"},
		SaveTitle{Title: "T"},
		SaveDescription{Description: "D"},
	)

	for _, ev := range []Deploy{
		{Variations: "A,B", Save: true, Audience: "Martians"},
		{Variations: "A,B", Save: true, Channel: "Carrier pigeon"},
		{Variations: "A,B", Save: true, Audience: "Martians", Channel: "Carrier pigeon"},
	} {
		got, effect, err := Transition(s, ev)
		require.ErrorIs(t, err, ErrInvalidOption)
		assert.Equal(t, EffectNone, effect)
		assert.Same(t, s, got)
		assert.Nil(t, got.Surveys["s1"].Deployment)
	}

	next, _, err := Transition(s, Deploy{Variations: "A,B", Save: true, Audience: model.AudienceNewUsers, Channel: model.ChannelSocialMedia})
	require.NoError(t, err)
	assert.Equal(t, model.ChannelSocialMedia, next.Surveys["s1"].Deployment.Channel)
}

func TestTransition_TextStoredAsTyped(t *testing.T) {
	s := apply(t, loggedIn(),
		CreateSurvey{SurveyID: "  s1 "},
		SaveTitle{Title: "  Button Color Test "},
		SaveDescription{Description: "line one\nline two\n"},
	)

	sv, ok := s.Surveys["s1"]
	require.True(t, ok, "survey id is trimmed")
	assert.Equal(t, "  Button Color Test ", sv.Title)
	assert.Equal(t, "line one\nline two\n", sv.Description)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s := apply(t, loggedIn(),
		CreateSurvey{SurveyID: "s1"},
		SaveTitle{Title: "T"},
		SaveDescription{Description: "D"},
	)
	before := s.Surveys["s1"]

	next, _, err := Transition(s, Deploy{Variations: "A,B", Save: true})
	require.NoError(t, err)

	assert.Equal(t, model.StepVariations, s.CurrentStep)
	assert.Empty(t, before.Variations)
	assert.Nil(t, before.Deployment)
	assert.NotSame(t, before, next.Surveys["s1"])
}

func TestTransition_ReanalyzeNeedsResponses(t *testing.T) {
	s := apply(t, loggedIn(),
		CreateSurvey{SurveyID: "s1"},
		SaveTitle{Title: "T"},
		SaveDescription{Description: "D"},
		Deploy{Variations: "A", Save: true},
	)
	_, _, err := Transition(s, Reanalyze{})
	require.ErrorIs(t, err, ErrNoVariations)

	sv := s.Surveys["s1"].Clone()
	sv.Responses = []model.ParticipantRecord{{Variation: "A", CompletionTime: 1, ResponseQuality: 0.5}}
	s.Surveys["s1"] = sv

	_, effect, err := Transition(s, Reanalyze{})
	require.NoError(t, err)
	assert.Equal(t, EffectAnalyze, effect)
}

func TestTransition_RestartKeepsSurveys(t *testing.T) {
	s := apply(t, loggedIn(), CreateSurvey{SurveyID: "s1"}, SaveTitle{Title: "T"}, Restart{})
	assert.Equal(t, model.StepNone, s.CurrentStep)
	assert.Empty(t, s.PendingSurveyID)
	assert.Contains(t, s.Surveys, "s1")
}

func TestParseVariations(t *testing.T) {
	assert.Equal(t, []string{"Red", "Blue"}, ParseVariations("Red,Blue"))
	assert.Equal(t, []string{"a b", "c"}, ParseVariations("  a b , ,c,"))
	assert.Empty(t, ParseVariations(""))
}
