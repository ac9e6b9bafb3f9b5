package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PasswordChangeRequiredCode 让编辑界面识别需要跳转到改密页。
const PasswordChangeRequiredCode = "password_change_required"

// RequirePasswordChangeCompletedMiddleware 拒绝仍在使用一次性口令的账号，必须排在 AuthMiddleware 之后。
// 判断依据是访问令牌中的声明，改密接口会签发不带该声明的新令牌。
func RequirePasswordChangeCompletedMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(MustChangePasswordKey) {
			LoggerFromContext(c).Info("editor blocked until password change", slog.String("username", c.GetString(UsernameKey)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "password change required",
				"code":  PasswordChangeRequiredCode,
			})
			return
		}
		c.Next()
	}
}
