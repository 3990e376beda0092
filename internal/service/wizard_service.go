package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/analysis"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/forest"
	"github.com/stemsi/surveylab/internal/metrics"
	"github.com/stemsi/surveylab/internal/model"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/simulation"
	"github.com/stemsi/surveylab/internal/wizard"
)

// ErrNotAnalyzed is returned when a survey has no report yet.
var ErrNotAnalyzed = errors.New("survey has not been analyzed")

// SimulatorFactory builds the simulator used for one deployment.
type SimulatorFactory func() *simulation.Simulator

// WizardResult is the outcome of one wizard action.
type WizardResult struct {
	Session *model.Session
	// Survey is the survey the action touched, if any.
	Survey *model.Survey
	// Report is set when the action ran the analysis pipeline.
	Report *model.AnalysisReport
	Effect wizard.Effect
}

// Response projects the result onto the API payload.
func (r *WizardResult) Response() model.WizardResponse {
	resp := model.WizardResponse{Session: r.Session.View(), Report: r.Report}
	if r.Survey != nil {
		sum := r.Survey.Summary()
		resp.Survey = &sum
	}
	return resp
}

// WizardService drives sessions through the survey wizard: it loads the
// session, applies the transition, runs the resulting effect and stores the
// new session. A failed action leaves the stored session untouched. Actions
// on one session run one at a time; a save that loses a race with another
// process fails with repository.ErrSessionConflict.
type WizardService struct {
	locks        *sessionLocks
	sessions     repository.SessionRepository
	publisher    repository.ReportPublisher
	pipeline     *analysis.Pipeline
	newSimulator SimulatorFactory
	log          zerolog.Logger
}

// NewWizardService creates a new WizardService.
func NewWizardService(
	sessions repository.SessionRepository,
	publisher repository.ReportPublisher,
	pipeline *analysis.Pipeline,
	newSimulator SimulatorFactory,
	log zerolog.Logger,
) *WizardService {
	if publisher == nil {
		publisher = repository.NopReportPublisher{}
	}
	return &WizardService{
		locks:        newSessionLocks(),
		sessions:     sessions,
		publisher:    publisher,
		pipeline:     pipeline,
		newSimulator: newSimulator,
		log:          log.With().Str("component", "wizard_service").Logger(),
	}
}

// NewPipeline builds the analysis pipeline from configuration.
func NewPipeline(cfg *config.Config) *analysis.Pipeline {
	fc := forest.DefaultConfig()
	if cfg.ForestTrees > 0 {
		fc.Trees = cfg.ForestTrees
	}
	fc.Seed = cfg.ForestSeed
	return analysis.NewPipeline(analysis.NewRecommender(fc))
}

// NewSimulatorFactory returns a factory producing unseeded simulators sized
// by PARTICIPANT_COUNT.
func NewSimulatorFactory(cfg *config.Config) SimulatorFactory {
	return func() *simulation.Simulator {
		return simulation.New(nil, cfg.Participants)
	}
}

// Session returns the stored session.
func (s *WizardService) Session(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Apply runs one wizard event against the session.
func (s *WizardService) Apply(ctx context.Context, sessionID string, ev wizard.Event) (*WizardResult, error) {
	res, err := s.apply(ctx, sessionID, ev)
	metrics.WizardEvents.WithLabelValues(ev.Name(), outcome(err)).Inc()
	return res, err
}

func (s *WizardService) apply(ctx context.Context, sessionID string, ev wizard.Event) (*WizardResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	next, effect, err := wizard.Transition(sess, ev)
	if err != nil {
		s.log.Debug().Err(err).
			Str("session_id", sessionID).
			Str("event", ev.Name()).
			Str("step", string(sess.CurrentStep)).
			Msg("Transition blocked")
		return nil, err
	}

	res := &WizardResult{Session: next, Effect: effect}

	if effect != wizard.EffectNone {
		sv, ok := next.ActiveSurvey()
		if !ok {
			return nil, wizard.ErrSurveyNotFound
		}
		work, report, err := s.runEffect(ctx, effect, sv)
		if err != nil {
			return nil, err
		}
		next.Surveys[work.ID] = work
		res.Report = report
	}

	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	res.Survey = touchedSurvey(next)
	if res.Report != nil {
		s.publish(ctx, next.CurrentUser, res.Report)
	}
	return res, nil
}

// runEffect works on a copy of sv so the stored session is only replaced
// once the whole pipeline has succeeded.
func (s *WizardService) runEffect(ctx context.Context, effect wizard.Effect, sv *model.Survey) (*model.Survey, *model.AnalysisReport, error) {
	start := time.Now()
	defer metrics.ObservePipeline(effect.String(), start)

	work := sv.Clone()

	if effect == wizard.EffectDeploy {
		sim := s.newSimulator()
		records, err := sim.Simulate(work)
		if err != nil {
			if errors.Is(err, simulation.ErrNoVariations) {
				return nil, nil, wizard.ErrNoVariations
			}
			return nil, nil, fmt.Errorf("simulate: %w", err)
		}
		work.Responses = records
		if work.Deployment != nil {
			work.Deployment.Participants = len(records)
		}
		metrics.SimulatedParticipants.Add(float64(len(records)))
	}

	report, err := s.pipeline.Run(ctx, work)
	if err != nil {
		return nil, nil, fmt.Errorf("run analysis: %w", err)
	}
	work.Report = report

	s.log.Info().
		Str("survey_id", work.ID).
		Str("effect", effect.String()).
		Int("participants", report.Participants).
		Str("best_variation", report.BestVariation).
		Float64("r2_score", report.R2Score).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis completed")

	return work, report, nil
}

// publish hands the report to the archive. Failures are logged only; the
// archive never blocks the wizard.
func (s *WizardService) publish(ctx context.Context, username string, report *model.AnalysisReport) {
	rec := model.ArchivedReport{
		ID:              uuid.New(),
		Username:        username,
		SurveyID:        report.SurveyID,
		Title:           report.Title,
		Participants:    report.Participants,
		BestVariation:   report.BestVariation,
		R2Score:         report.R2Score,
		CompletionRates: report.CompletionRates,
		AverageQuality:  report.AverageQuality,
		CreatedAt:       report.GeneratedAt,
	}
	if err := s.publisher.Publish(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("survey_id", report.SurveyID).Msg("Failed to enqueue report for archiving")
	}
}

// Surveys lists the session's surveys in id order.
func (s *WizardService) Surveys(ctx context.Context, sessionID string) ([]model.SurveySummary, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]model.SurveySummary, 0, len(sess.Surveys))
	for _, id := range sess.SurveyIDs() {
		out = append(out, sess.Surveys[id].Summary())
	}
	return out, nil
}

// Survey returns one survey of the session.
func (s *WizardService) Survey(ctx context.Context, sessionID, surveyID string) (*model.Survey, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sv, ok := sess.Surveys[surveyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", wizard.ErrSurveyNotFound, surveyID)
	}
	return sv, nil
}

// Report returns the latest analysis report of a survey.
func (s *WizardService) Report(ctx context.Context, sessionID, surveyID string) (*model.AnalysisReport, error) {
	sv, err := s.Survey(ctx, sessionID, surveyID)
	if err != nil {
		return nil, err
	}
	if sv.Report == nil {
		return nil, ErrNotAnalyzed
	}
	return sv.Report, nil
}

func touchedSurvey(sess *model.Session) *model.Survey {
	if sv, ok := sess.ActiveSurvey(); ok {
		return sv
	}
	if sess.SelectedSurvey != "" {
		return sess.Surveys[sess.SelectedSurvey]
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, wizard.ErrBlankInput):
		return "blank_input"
	case errors.Is(err, wizard.ErrSurveyExists):
		return "survey_exists"
	case errors.Is(err, wizard.ErrSurveyNotFound):
		return "survey_not_found"
	case errors.Is(err, wizard.ErrNoSurveys):
		return "no_surveys"
	case errors.Is(err, wizard.ErrInvalidStep):
		return "invalid_step"
	case errors.Is(err, wizard.ErrNoVariations):
		return "no_variations"
	case errors.Is(err, wizard.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, repository.ErrSessionConflict):
		return "conflict"
	case errors.Is(err, repository.ErrSessionNotFound):
		return "session_not_found"
	default:
		return "error"
	}
}
