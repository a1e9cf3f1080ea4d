package middleware

import (
	"net/http"
	"strings"

	"dropline-api/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// AuthRequired validates the Bearer access token and injects its claims into context
func AuthRequired(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header required (Bearer <token>)"})
			return
		}

		claims, err := issuer.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims extracts the caller's verified claims from context
func GetClaims(c *gin.Context) *auth.Claims {
	val, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := val.(*auth.Claims)
	return claims
}
