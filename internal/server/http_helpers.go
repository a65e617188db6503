package server

import (
	"errors"
	"net/http"
	"time"

	"purple-sphinx/internal/catalog"
	"purple-sphinx/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case room.IsNotFound(err),
		errors.Is(err, catalog.ErrSetNotFound),
		errors.Is(err, catalog.ErrArchiveNotFound):
		return http.StatusNotFound
	case room.IsUnauthorized(err), errors.Is(err, catalog.ErrDefaultSetProtected):
		return http.StatusForbidden
	case room.IsConflict(err):
		return http.StatusConflict
	case room.IsValidation(err),
		errors.Is(err, catalog.ErrInvalidQuestion),
		errors.Is(err, catalog.ErrSetNameRequired),
		errors.Is(err, catalog.ErrThemeRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		event := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}
