package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/shared/server/respond"
)

const (
	userIDKey = "userId"

	// UserIDHeader carries the per-browser identifier minted by POST /identity.
	UserIDHeader = "X-User-Id"

	maxUserIDLen = 128
)

// Identity reads the per-browser user id from the request and stores it in
// context. Paths listed in open skip the check.
func Identity(open ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(open))
	for _, p := range open {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		if !validUserID(userID) {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid user id", nil)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

func validUserID(id string) bool {
	if len(id) > maxUserIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == ':' || r == '.':
		default:
			return false
		}
	}
	return true
}
