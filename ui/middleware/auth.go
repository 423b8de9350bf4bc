package middleware

import (
	"net/http"
	"strings"

	"thinkwise/internal"
	"thinkwise/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextUserIDKey is the gin context key carrying the authenticated
// user id as a uuid.UUID.
const ContextUserIDKey = "user_id"

// TokenVerifier validates a bearer token and returns the user identity.
// *auth.Service is the production implementation.
type TokenVerifier interface {
	VerifyToken(tokenString string) (uuid.UUID, *auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stamps
// the authenticated user id onto both the gin context and the request
// context, so downstream services can attribute work without seeing HTTP.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, claims, err := verifier.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set("user_email", claims.Email)
		c.Request = c.Request.WithContext(internal.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header, with a
// query parameter fallback for EventSource clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// UserID reads the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
