package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/surveylab/internal/model"
)

// ReportRepository reads and writes the analysis_reports archive.
type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// InsertBatch writes all reports in one statement using UNNEST.
func (r *ReportRepository) InsertBatch(ctx context.Context, reports []model.ArchivedReport) error {
	if len(reports) == 0 {
		return nil
	}

	n := len(reports)
	ids := make([]uuid.UUID, n)
	users := make([]string, n)
	surveyIDs := make([]string, n)
	titles := make([]string, n)
	participants := make([]int32, n)
	bests := make([]string, n)
	scores := make([]float64, n)
	rates := make([]string, n)
	qualities := make([]string, n)
	createdAts := make([]time.Time, n)

	for i, rep := range reports {
		rateJSON, qualityJSON, err := encodeMetrics(rep)
		if err != nil {
			return err
		}
		ids[i] = rep.ID
		users[i] = rep.Username
		surveyIDs[i] = rep.SurveyID
		titles[i] = rep.Title
		participants[i] = int32(rep.Participants)
		bests[i] = rep.BestVariation
		scores[i] = rep.R2Score
		rates[i] = rateJSON
		qualities[i] = qualityJSON
		createdAts[i] = rep.CreatedAt
	}

	query := `
		INSERT INTO analysis_reports
			(id, username, survey_id, title, participants, best_variation,
			 r2_score, completion_rates, avg_quality, created_at)
		SELECT u.id, u.username, u.survey_id, u.title, u.participants, u.best_variation,
		       u.r2_score, u.completion_rates::jsonb, u.avg_quality::jsonb, u.created_at
		FROM UNNEST(
			$1::uuid[], $2::text[], $3::text[], $4::text[], $5::int[],
			$6::text[], $7::float8[], $8::text[], $9::text[], $10::timestamptz[]
		) AS u (id, username, survey_id, title, participants, best_variation,
		        r2_score, completion_rates, avg_quality, created_at)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		ids, users, surveyIDs, titles, participants, bests, scores, rates, qualities, createdAts)
	return err
}

// Insert writes a single report. Used when a batch insert fails.
func (r *ReportRepository) Insert(ctx context.Context, rep model.ArchivedReport) error {
	rateJSON, qualityJSON, err := encodeMetrics(rep)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO analysis_reports
			(id, username, survey_id, title, participants, best_variation,
			 r2_score, completion_rates, avg_quality, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10)
		 ON CONFLICT (id) DO NOTHING`,
		rep.ID, rep.Username, rep.SurveyID, rep.Title, rep.Participants, rep.BestVariation,
		rep.R2Score, rateJSON, qualityJSON, rep.CreatedAt,
	)
	return err
}

// ListByUser returns a page of the user's reports, newest first, with the
// total count. An empty surveyID matches every survey.
func (r *ReportRepository) ListByUser(ctx context.Context, username, surveyID string, limit, offset int) ([]model.ArchivedReport, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM analysis_reports
		 WHERE username = $1 AND ($2 = '' OR survey_id = $2)`,
		username, surveyID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, username, survey_id, title, participants, best_variation,
		        r2_score, completion_rates, avg_quality, created_at
		 FROM analysis_reports
		 WHERE username = $1 AND ($2 = '' OR survey_id = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		username, surveyID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports := make([]model.ArchivedReport, 0)
	for rows.Next() {
		var (
			rep                 model.ArchivedReport
			rateRaw, qualityRaw []byte
		)
		if err := rows.Scan(&rep.ID, &rep.Username, &rep.SurveyID, &rep.Title, &rep.Participants,
			&rep.BestVariation, &rep.R2Score, &rateRaw, &qualityRaw, &rep.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(rateRaw, &rep.CompletionRates); err != nil {
			return nil, 0, fmt.Errorf("decode completion_rates: %w", err)
		}
		if err := json.Unmarshal(qualityRaw, &rep.AverageQuality); err != nil {
			return nil, 0, fmt.Errorf("decode avg_quality: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, total, rows.Err()
}

func encodeMetrics(rep model.ArchivedReport) (string, string, error) {
	rates, err := json.Marshal(rep.CompletionRates)
	if err != nil {
		return "", "", fmt.Errorf("encode completion_rates: %w", err)
	}
	quality, err := json.Marshal(rep.AverageQuality)
	if err != nil {
		return "", "", fmt.Errorf("encode avg_quality: %w", err)
	}
	return string(rates), string(quality), nil
}
