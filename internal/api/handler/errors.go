package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

// Client routes used as redirect hints
const (
	redirectStartSession = "/sessions/new"
	redirectHistory      = "/sessions"
)

// validationFailed answers 422 with the failing fields and the submitted input,
// so the client can redisplay the form
func validationFailed(c *gin.Context, code int, verr *service.ValidationError, input interface{}) {
	response.ErrorWithData(c, http.StatusUnprocessableEntity, code, "validation failed", gin.H{
		"fields": verr.Fields,
		"input":  input,
	})
}

// handleJournalError maps the errors shared by session and entry operations.
// It reports false when err is not one of them.
func handleJournalError(c *gin.Context, err error, validationCode int, input interface{}) bool {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(c, validationCode, verr, input)
	case errors.Is(err, service.ErrPermissionDenied):
		response.ErrorWithRedirect(c, http.StatusForbidden, 20003, "you do not have access to this session", redirectHistory)
	case errors.Is(err, service.ErrInvalidReference):
		response.ErrorWithRedirect(c, http.StatusConflict, 20002, "the selected descent type is no longer available", redirectStartSession)
	case errors.Is(err, service.ErrConcurrentModification):
		response.Conflict(c, 20005, "session was changed by another request, reload and try again")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20001, "session not found")
	default:
		return false
	}
	return true
}
