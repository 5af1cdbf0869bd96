package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/utils"
	"github.com/gin-gonic/gin"
)

// RequireAuth is a middleware that validates the bearer token on protected routes.
// On success it stores the authenticated user's id and email in the Gin context.
func RequireAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_TOKEN",
					"message": "No token provided",
				},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			code := "INVALID_TOKEN"
			message := "Invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				code = "TOKEN_EXPIRED"
				message = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    code,
					"message": message,
				},
			})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

// GetUserID extracts the authenticated user's id from the Gin context
func GetUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	id, ok := userID.(uint)
	if !ok {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not an integer"}
	}

	return id, nil
}

// GetUserEmail extracts the authenticated user's email from the Gin context
func GetUserEmail(c *gin.Context) (string, error) {
	email, exists := c.Get("user_email")
	if !exists {
		return "", &AuthError{Code: "MISSING_EMAIL", Message: "Email not found in context"}
	}

	emailStr, ok := email.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_EMAIL", Message: "Email is not a string"}
	}

	return emailStr, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
