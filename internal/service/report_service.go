package service

import (
	"context"
	"errors"

	"github.com/stemsi/surveylab/internal/model"
)

// ErrArchiveDisabled is returned by history queries when ARCHIVE_REPORTS is off.
var ErrArchiveDisabled = errors.New("report archive is disabled")

const (
	defaultHistoryPerPage = 20
	maxHistoryPerPage     = 100
)

// ReportLister is the read side of the report archive.
type ReportLister interface {
	ListByUser(ctx context.Context, username, surveyID string, limit, offset int) ([]model.ArchivedReport, int, error)
}

// ReportService serves archived analysis reports.
type ReportService struct {
	repo ReportLister
}

// NewReportService creates a ReportService. A nil repo means archiving is off.
func NewReportService(repo ReportLister) *ReportService {
	return &ReportService{repo: repo}
}

// Enabled reports whether the archive is available.
func (s *ReportService) Enabled() bool { return s.repo != nil }

// HistoryPage is one page of archived reports.
type HistoryPage struct {
	Reports []model.ArchivedReport
	Page    int
	PerPage int
	Total   int
}

// History returns one page of the user's archived reports, newest first.
// Out-of-range paging values are clamped.
func (s *ReportService) History(ctx context.Context, username, surveyID string, page, perPage int) (*HistoryPage, error) {
	if s.repo == nil {
		return nil, ErrArchiveDisabled
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultHistoryPerPage
	}
	if perPage > maxHistoryPerPage {
		perPage = maxHistoryPerPage
	}

	reports, total, err := s.repo.ListByUser(ctx, username, surveyID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Reports: reports, Page: page, PerPage: perPage, Total: total}, nil
}
