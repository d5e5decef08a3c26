package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/supporthub/internal/accounts"
	"github.com/geocoder89/supporthub/internal/actorctx"
	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (accounts.Identity, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) < len("Bearer ") || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(authHeader[7:])
	return raw, raw != ""
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Unauthenticated.")
			return
		}

		if !m.identify(c, raw) {
			return
		}

		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is sent and
// lets anonymous requests through. An invalid token is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		if !m.identify(c, raw) {
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) identify(c *gin.Context, raw string) bool {
	id, err := m.auth.Authenticate(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Unauthenticated.")
			return false
		}
		slog.Default().ErrorContext(c.Request.Context(), "authenticate_failed", "err", err)
		abort(c, http.StatusInternalServerError, "internal_error", "Server error.")
		return false
	}

	c.Set(CtxUserID, id.User.ID)
	c.Set(CtxRole, id.User.Role)
	c.Set(CtxSessionID, id.SessionID)

	c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actorctx.Actor{
		UserID:    id.User.ID,
		Role:      id.User.Role,
		SessionID: id.SessionID,
	}))
	return true
}

// Optional helpers so handlers don’t need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}

func RoleFromContext(c *gin.Context) (string, bool) {
	role := c.GetString(CtxRole)
	return role, role != ""
}
