package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stemsi/surveylab/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)

	s := model.NewSession("abc")
	s.LoggedIn = true
	s.CurrentUser = "user1"
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "user1", got.CurrentUser)
	assert.True(t, got.LoggedIn)

	require.NoError(t, repo.Delete(ctx, "abc"))
	_, err = repo.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)
	require.NoError(t, repo.Save(ctx, model.NewSession("abc")))

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	got.Surveys["s1"] = &model.Survey{ID: "s1"}
	got.CurrentStep = model.StepTitle

	again, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, again.Surveys)
	assert.Equal(t, model.StepNone, again.CurrentStep)
}

func TestMemorySessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Save(ctx, model.NewSession("abc")))

	now = now.Add(30 * time.Minute)
	_, err := repo.Get(ctx, "abc")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = repo.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, repo.Len())
}

func TestMemorySessionRepository_StaleSaveRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)

	s := model.NewSession("abc")
	require.NoError(t, repo.Save(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	first, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "abc")
	require.NoError(t, err)

	first.CurrentStep = model.StepTitle
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.CurrentStep = model.StepNone
	assert.ErrorIs(t, repo.Save(ctx, second), ErrSessionConflict)
	assert.Equal(t, int64(1), second.Version)

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, model.StepTitle, got.CurrentStep)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemorySessionRepository_SaveAfterDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)
	require.NoError(t, repo.Save(ctx, model.NewSession("abc")))

	stale, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "abc"))

	assert.ErrorIs(t, repo.Save(ctx, stale), ErrSessionNotFound)
	assert.Equal(t, 0, repo.Len())
}

func TestMemorySessionRepository_Exists(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	ok, err := repo.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, model.NewSession("abc")))
	ok, err = repo.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	ok, err = repo.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNopReportPublisher(t *testing.T) {
	var p ReportPublisher = NopReportPublisher{}
	assert.NoError(t, p.Publish(context.Background(), model.ArchivedReport{SurveyID: "s1"}))
}
