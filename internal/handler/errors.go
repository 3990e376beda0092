package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
	"github.com/stemsi/surveylab/internal/wizard"
)

// classify maps domain errors onto an HTTP status and API error code.
// Anything unrecognised is an internal error.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, wizard.ErrNotLoggedIn):
		return http.StatusUnauthorized, response.ErrSessionNotFound
	case errors.Is(err, repository.ErrSessionConflict):
		return http.StatusConflict, response.ErrSessionConflict
	case errors.Is(err, wizard.ErrInvalidOption):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, wizard.ErrBlankInput):
		return http.StatusBadRequest, response.ErrBlankInput
	case errors.Is(err, wizard.ErrSurveyExists):
		return http.StatusConflict, response.ErrSurveyExists
	case errors.Is(err, wizard.ErrSurveyNotFound):
		return http.StatusNotFound, response.ErrSurveyNotFound
	case errors.Is(err, wizard.ErrNoSurveys):
		return http.StatusNotFound, response.ErrNoSurveys
	case errors.Is(err, wizard.ErrInvalidStep):
		return http.StatusConflict, response.ErrInvalidStep
	case errors.Is(err, wizard.ErrNoVariations):
		return http.StatusUnprocessableEntity, response.ErrNoVariations
	case errors.Is(err, service.ErrNotAnalyzed):
		return http.StatusNotFound, response.ErrNotAnalyzed
	case errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusNotFound, response.ErrArchiveDisabled
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWith writes the error envelope for err. Internal errors are attached
// to the Gin context so the request logger records them.
func failWith(c *gin.Context, err error) {
	status, code := classify(err)
	if code == response.ErrInternal {
		_ = c.Error(err)
	}
	response.Fail(c, status, code)
}
