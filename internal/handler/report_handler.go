package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
	"github.com/stemsi/surveylab/internal/validator"
)

// ReportHandler serves the analysis report archive.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

type historyQuery struct {
	SurveyID string `form:"survey_id" json:"survey_id" binding:"max=64"`
	Page     int    `form:"page" json:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" json:"per_page" binding:"omitempty,min=1,max=100"`
}

// History godoc
// GET /api/v1/reports/history?survey_id=&page=&per_page=
// Lists the caller's archived reports, newest first.
func (h *ReportHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q historyQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.reportService.History(c.Request.Context(), claims.Username, q.SurveyID, q.Page, q.PerPage)
	if err != nil {
		failWith(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, page.Reports,
		response.NewPagination(page.Page, page.PerPage, page.Total))
}
