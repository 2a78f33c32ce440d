package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/token"
)

const userIDKey = "user_id"

// TokenValidator verifies a session token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*token.CustomClaims, error)
}

// SessionIdentity resolves the caller from the session cookie or a Bearer
// header. It never aborts: requests without a valid token proceed anonymously
// and the link and user stores decide what anonymous callers may do.
func SessionIdentity(tokens TokenValidator, cookieName string) gin.HandlerFunc {
	logger := zap.L().With(zap.String("component", "SessionIdentity"))

	return func(c *gin.Context) {
		tokenStr := sessionToken(c, cookieName)
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			logger.Debug("Ignoring invalid session token", zap.Error(err))
			c.Next()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// CallerID returns the authenticated user ID, or "" for anonymous requests.
func CallerID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func sessionToken(c *gin.Context, cookieName string) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
