package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/jwt"
	"github.com/DRegan-dev/downward/pkg/response"
)

// Blacklist revoked token lookup
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth authenticates Authorization: Bearer <access token>.
// blacklist may be nil, revocation is then not checked. A failing lookup
// lets the request through.
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing Authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed Authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token invalid or expired")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "wrong token type")
			c.Abort()
			return
		}

		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("token blacklist lookup failed", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("is_superuser", claims.IsSuperuser)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireCapability rejects callers the policy does not grant capability.
// Must run after JWTAuth.
func RequireCapability(authz service.Authorizer, capability service.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := service.Actor{
			UserID:      c.GetString("user_id"),
			Username:    c.GetString("username"),
			IsSuperuser: c.GetBool("is_superuser"),
		}
		if actor.UserID == "" {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		if err := authz.Require(actor, capability); err != nil {
			response.Forbidden(c, 10003, "permission denied")
			c.Abort()
			return
		}

		c.Next()
	}
}
