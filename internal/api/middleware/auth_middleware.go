package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"soumiSpace/internal/auth"
)

// 上下文键。
const (
	UserIDKey             = "userID"
	UsernameKey           = "username"
	MustChangePasswordKey = "mustChangePassword"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并将编辑者信息注入上下文。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateTokenOfType(parts[1], auth.TokenTypeAccess)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Set(MustChangePasswordKey, claims.MustChangePassword)
		c.Next()
	}
}
