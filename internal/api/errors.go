package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/ingest"
	"github.com/zulandar/signalbox/internal/store"
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrBadFilename):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"detail": ...}. Internal errors are logged and
// replaced by a generic message.
func (s *server) respondError(c *gin.Context, err error) {
	code := statusFor(err)
	detail := err.Error()
	switch code {
	case http.StatusInternalServerError:
		s.log.Errorw("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		detail = "internal server error"
	case http.StatusBadRequest:
		s.log.Warnw("rejected filename", "path", c.Request.URL.Path, "error", err)
		detail = "Invalid filename"
	}
	c.AbortWithStatusJSON(code, gin.H{"detail": detail})
}

// bind decodes the JSON body into v, answering 422 on failure.
func (s *server) bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
