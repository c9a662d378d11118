package middleware

import (
	"net/http"
	"strings"

	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

// OwnerKey is the gin context key holding the authenticated owner id.
const OwnerKey = "owner_id"

// JWT authenticates "Authorization: Bearer <token>" and stores the token
// subject under OwnerKey.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			Abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			Abort(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		owner, err := service.ParseJWT(strings.TrimSpace(token))
		if err != nil {
			Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(OwnerKey, owner)
		c.Next()
	}
}

// OwnerID returns the owner set by JWT.
func OwnerID(c *gin.Context) (string, bool) {
	v, ok := c.Get(OwnerKey)
	if !ok {
		return "", false
	}
	owner, ok := v.(string)
	return owner, ok && owner != ""
}
