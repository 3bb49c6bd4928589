package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"avease/utils"
)

// Context keys set by Authenticate and Identify.
const (
	CtxUserID = "userId"
	CtxGuest  = "guest"
)

func bearer(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": "Not authorized.",
	})
}

// Authenticate rejects requests without a valid token.
func Authenticate(tokens *utils.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			unauthorized(c)
			return
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			unauthorized(c)
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxGuest, claims.Guest)
		c.Next()
	}
}

// Identify is optional authentication: no token leaves userId at 0, a
// bad token is still rejected.
func Identify(tokens *utils.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.Set(CtxUserID, int64(0))
			c.Next()
			return
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			unauthorized(c)
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxGuest, claims.Guest)
		c.Next()
	}
}

// RegisteredOnly keeps guest tokens out of routes that need a full
// account. Guests may only own participation and availability.
func RegisteredOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(CtxGuest) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Guests need an account for this.",
			})
			return
		}
		c.Next()
	}
}
