package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore marks responses as private session state that must not be cached
// by browsers or proxies.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
