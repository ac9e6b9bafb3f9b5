package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"soumiSpace/internal/api/middleware"
	"soumiSpace/internal/content"
	"soumiSpace/internal/preview"
	"soumiSpace/internal/render"
)

const htmlContentType = "text/html; charset=utf-8"

// SiteHandler 提供公开内容与页面，以及服务端预览面的当前画面。
type SiteHandler struct {
	fetcher content.Fetcher
	surface *preview.Surface
	logger  *slog.Logger
}

func NewSiteHandler(fetcher content.Fetcher, surface *preview.Surface, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{fetcher: fetcher, surface: surface, logger: logger}
}

// Content 返回与默认值合并后的整站内容；存储不可用时返回默认内容。
func (h *SiteHandler) Content(c *gin.Context) {
	site := content.Load(c.Request.Context(), h.fetcher, middleware.LoggerFromContextOr(c, h.logger))
	c.JSON(http.StatusOK, site)
}

// Page 渲染公开页面。
func (h *SiteHandler) Page(c *gin.Context) {
	logger := middleware.LoggerFromContextOr(c, h.logger)
	site := content.Load(c.Request.Context(), h.fetcher, logger)

	page := render.New(nil)
	page.Render(site)

	var buf bytes.Buffer
	if err := page.WriteHTML(&buf); err != nil {
		logger.Error("render page failed", slog.Any("error", err))
		Internal(c, "failed to render page")
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// Preview 返回预览面当前的 HTML。
func (h *SiteHandler) Preview(c *gin.Context) {
	if h.surface == nil {
		NotFound(c, "preview surface not configured")
		return
	}
	doc, err := h.surface.HTML()
	if err != nil {
		middleware.LoggerFromContextOr(c, h.logger).Error("render preview failed", slog.Any("error", err))
		Internal(c, "failed to render preview")
		return
	}
	c.Data(http.StatusOK, htmlContentType, []byte(doc))
}
