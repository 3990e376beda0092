package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/model"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
	"github.com/stemsi/surveylab/internal/validator"
	"github.com/stemsi/surveylab/internal/wizard"
)

// WizardHandler exposes each wizard action as its own endpoint.
type WizardHandler struct {
	wizardService *service.WizardService
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(wizardService *service.WizardService) *WizardHandler {
	return &WizardHandler{wizardService: wizardService}
}

// CreateSurvey godoc
// POST /api/v1/wizard/create
func (h *WizardHandler) CreateSurvey(c *gin.Context) {
	var req model.CreateSurveyRequest
	if !bindWizard(c, &req) {
		return
	}
	h.apply(c, wizard.CreateSurvey{SurveyID: req.SurveyID})
}

// SelectSurvey godoc
// POST /api/v1/wizard/select
func (h *WizardHandler) SelectSurvey(c *gin.Context) {
	var req model.SelectSurveyRequest
	if !bindWizard(c, &req) {
		return
	}
	h.apply(c, wizard.SelectSurvey{SurveyID: req.SurveyID})
}

// SaveTitle godoc
// POST /api/v1/wizard/title
func (h *WizardHandler) SaveTitle(c *gin.Context) {
	var req model.TitleRequest
	if !bindWizard(c, &req) {
		return
	}
	h.apply(c, wizard.SaveTitle{Title: req.Title})
}

// SaveDescription godoc
// POST /api/v1/wizard/description
func (h *WizardHandler) SaveDescription(c *gin.Context) {
	var req model.DescriptionRequest
	if !bindWizard(c, &req) {
		return
	}
	h.apply(c, wizard.SaveDescription{Description: req.Description})
}

// Deploy godoc
// POST /api/v1/wizard/deploy
// Optionally saves the variations, then simulates participants and runs the
// analysis. The response carries the report.
func (h *WizardHandler) Deploy(c *gin.Context) {
	var req model.DeployRequest
	if !bindWizard(c, &req) {
		return
	}
	h.apply(c, wizard.Deploy{
		Variations: req.Variations,
		Save:       req.Save,
		Audience:   req.Audience,
		Channel:    req.Channel,
	})
}

// Reanalyze godoc
// POST /api/v1/wizard/reanalyze
// Re-runs the analysis on the collected responses. Each run appends another
// optimized variation.
func (h *WizardHandler) Reanalyze(c *gin.Context) {
	h.apply(c, wizard.Reanalyze{})
}

// Restart godoc
// POST /api/v1/wizard/restart
func (h *WizardHandler) Restart(c *gin.Context) {
	h.apply(c, wizard.Restart{})
}

func (h *WizardHandler) apply(c *gin.Context, ev wizard.Event) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	res, err := h.wizardService.Apply(c.Request.Context(), claims.SessionID(), ev)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, res.Response())
}

// bindWizard binds the body; a blank required field is reported as
// BLANK_INPUT rather than a generic validation error.
func bindWizard(c *gin.Context, dst any) bool {
	fields, blank := validator.BindText(c, dst)
	if fields == nil {
		return true
	}
	code := response.ErrValidation
	if blank {
		code = response.ErrBlankInput
	}
	response.FailWithFields(c, http.StatusBadRequest, code, fields)
	return false
}
