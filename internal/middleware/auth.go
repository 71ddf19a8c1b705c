package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tableizer/api/internal/config"
	"tableizer/api/internal/models"
	"tableizer/api/internal/security"
)

const (
	currentUserKey  = "current_user"
	accessClaimsKey = "access_claims"
)

// UserSource resolves authenticated identities.
type UserSource interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	TouchLastSeen(ctx context.Context, id string) error
}

// TokenChecker reports whether a token id was revoked by logout.
type TokenChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func Auth(cfg *config.AppConfig, users UserSource, tokens TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		revoked, err := tokens.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil || revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		_ = users.TouchLastSeen(c.Request.Context(), user.ID)

		c.Set(currentUserKey, user)
		c.Set(accessClaimsKey, claims)

		c.Next()
	}
}

// CurrentUser extracts the authenticated identity populated by Auth.
// Handlers pass it onward explicitly; nothing downstream reads the gin
// context for identity.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

// AccessClaims returns the verified token claims for the request, for
// handlers that act on the token itself (logout).
func AccessClaims(c *gin.Context) (*security.AccessClaims, bool) {
	val, exists := c.Get(accessClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*security.AccessClaims)
	return claims, ok
}
