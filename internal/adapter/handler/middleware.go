package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/bookstore/internal/port"
)

const userIDKey = "userID"

// Auth resolves the bearer token to a buyer identity via the injected
// verifier and stores it on the request context. Credential checks and token
// issuance live outside this service.
func Auth(verifier port.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response{
				Success: false,
				Message: "Unauthorized: no token provided",
			})
			return
		}

		userID, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response{
				Success: false,
				Message: "Unauthorized: invalid token",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}
