package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const adminTokenHeader = "X-Admin-Token"

// requireAdmin guards the admin API with the shared secret. Without a
// configured secret every admin request is refused.
func (s *Server) requireAdmin() gin.HandlerFunc {
	expected := strings.TrimSpace(s.cfg.AdminToken)
	return func(c *gin.Context) {
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin api disabled"})
			return
		}
		provided := strings.TrimSpace(c.GetHeader(adminTokenHeader))
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			log.Warn().Str("remote", c.ClientIP()).Str("path", c.FullPath()).Msg("admin auth failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin token"})
			return
		}
		c.Next()
	}
}
