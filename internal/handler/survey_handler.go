package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
)

// SurveyHandler serves read-only views of the session's surveys.
type SurveyHandler struct {
	wizardService *service.WizardService
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(wizardService *service.WizardService) *SurveyHandler {
	return &SurveyHandler{wizardService: wizardService}
}

// ListSurveys godoc
// GET /api/v1/surveys
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	surveys, err := h.wizardService.Surveys(c.Request.Context(), claims.SessionID())
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, surveys)
}

// GetSurvey godoc
// GET /api/v1/surveys/:id
// Returns the survey without its participant records.
func (h *SurveyHandler) GetSurvey(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sv, err := h.wizardService.Survey(c.Request.Context(), claims.SessionID(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, sv.Summary())
}

// GetReport godoc
// GET /api/v1/surveys/:id/report
// Returns the latest analysis report and dashboard data.
func (h *SurveyHandler) GetReport(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	report, err := h.wizardService.Report(c.Request.Context(), claims.SessionID(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}
