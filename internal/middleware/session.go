package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/response"
)

// RequireLiveSession rejects tokens whose session was logged out or expired.
// It only checks existence; handlers load the session themselves.
// Must run after RequireJWT.
func RequireLiveSession(sessions repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		live, err := sessions.Exists(c.Request.Context(), claims.SessionID())
		if err != nil {
			_ = c.Error(err)
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if !live {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionNotFound)
			return
		}

		c.Next()
	}
}
