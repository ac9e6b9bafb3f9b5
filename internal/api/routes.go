package api

import (
	"github.com/gin-gonic/gin"

	"soumiSpace/internal/api/middleware"
	"soumiSpace/internal/auth"
)

// Handlers 汇总已构造的处理器。
type Handlers struct {
	Auth     *AuthHandler
	Site     *SiteHandler
	Editor   *EditorHandler
	Asset    *AssetHandler
	Snapshot *SnapshotHandler
	Ws       *WsHandler
}

// RegisterRoutes 注册页面与 /v1 接口。
func RegisterRoutes(router *gin.Engine, authService *auth.AuthService, h Handlers) {
	authMiddleware := middleware.AuthMiddleware(authService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()

	router.GET("/", h.Site.Page)
	router.GET("/preview", authMiddleware, passwordGate, h.Site.Preview)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", h.Ws.HandleConnection)
		v1.GET("/content", h.Site.Content)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.Refresh)
			authGroup.POST("/logout", h.Auth.Logout)
			authGroup.POST("/password", authMiddleware, h.Auth.ChangePassword)
		}

		editorGroup := v1.Group("/editor")
		editorGroup.Use(authMiddleware, passwordGate)
		{
			editorGroup.GET("", h.Editor.View)
			editorGroup.POST("/reload", h.Editor.Reload)
			editorGroup.PUT("/fields", h.Editor.UpdateFields)
			editorGroup.POST("/lists/:section", h.Editor.AddItem)
			editorGroup.PATCH("/lists/:section/:id", h.Editor.EditItem)
			editorGroup.DELETE("/lists/:section/:id", h.Editor.RemoveItem)
			editorGroup.POST("/save", h.Editor.Save)
			editorGroup.POST("/sections/:section/save", h.Editor.SaveSection)
			editorGroup.POST("/theme", h.Editor.SetTheme)
			editorGroup.GET("/notices", h.Editor.Notices)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware, passwordGate)
		{
			assetGroup.POST("/inline", h.Asset.Inline)
		}

		snapshotGroup := v1.Group("/snapshots")
		snapshotGroup.Use(authMiddleware, passwordGate)
		{
			snapshotGroup.GET("/latest", h.Snapshot.Latest)
		}
	}
}
