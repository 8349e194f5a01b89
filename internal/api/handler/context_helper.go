package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

// Context keys written by middleware.JWTAuth
const (
	CtxUserID      = "user_id"
	CtxUsername    = "username"
	CtxIsSuperuser = "is_superuser"
	CtxTokenJTI    = "token_jti"
	CtxTokenExp    = "token_exp"
)

// MustGetUserID extracts user_id from the gin context.
// When the JWT middleware did not run it writes a 401 and returns false;
// callers return immediately on false.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetActor the authenticated caller, see MustGetUserID
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:      userID,
		Username:    c.GetString(CtxUsername),
		IsSuperuser: c.GetBool(CtxIsSuperuser),
	}, true
}

// ActorFromContext the caller when authenticated, the zero Actor otherwise.
// For public routes whose output depends on who asks.
func ActorFromContext(c *gin.Context) service.Actor {
	return service.Actor{
		UserID:      c.GetString(CtxUserID),
		Username:    c.GetString(CtxUsername),
		IsSuperuser: c.GetBool(CtxIsSuperuser),
	}
}

// tokenInfo jti and expiry of the access token used for this request
func tokenInfo(c *gin.Context) (string, time.Time) {
	return c.GetString(CtxTokenJTI), c.GetTime(CtxTokenExp)
}
