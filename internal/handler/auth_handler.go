package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/model"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
	"github.com/stemsi/surveylab/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService   *service.AuthService
	wizardService *service.WizardService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, wizardService *service.WizardService) *AuthHandler {
	return &AuthHandler{authService: authService, wizardService: wizardService}
}

// Login godoc
// POST /api/v1/auth/login
// Checks the credential table, opens a fresh session and returns its token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, sess, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":   token,
		"session": sess.View(),
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Deletes the caller's session. The token stops working immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.SessionID()); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetSession godoc
// GET /api/v1/session
// Returns the wizard state of the caller's session.
func (h *AuthHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sess, err := h.wizardService.Session(c.Request.Context(), claims.SessionID())
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, sess.View())
}
