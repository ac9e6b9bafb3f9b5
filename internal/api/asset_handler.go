package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"soumiSpace/internal/api/middleware"
	"soumiSpace/internal/editor"
	"soumiSpace/internal/errcode"
	"soumiSpace/internal/metrics"
	"soumiSpace/internal/upload"
)

// AssetHandler 把上传的图片转为 data URI 并写入编辑器字段。
type AssetHandler struct {
	validator *upload.Validator
	sync      *editor.Synchronizer
	notifier  editor.Notifier
	logger    *slog.Logger
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(validator *upload.Validator, sync *editor.Synchronizer, notifier editor.Notifier, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{validator: validator, sync: sync, notifier: notifier, logger: logger}
}

// Inline 校验上传并内联到 target 指定的字段。被拒绝的上传不修改任何内容。
func (h *AssetHandler) Inline(c *gin.Context) {
	logger := middleware.LoggerFromContextOr(c, h.logger)

	target := strings.TrimSpace(c.PostForm("target"))
	if target == "" {
		BadRequest(c, "missing target")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > h.validator.MaxBytes() {
		h.reject(c, &upload.ValidationWarning{Reason: upload.ReasonTooLarge})
		return
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	result, err := h.validator.ToDataURI(reader)
	if err != nil {
		var warning *upload.ValidationWarning
		if errors.As(err, &warning) {
			h.reject(c, warning)
			return
		}
		logger.Error("inline upload failed", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return
	}

	if err := h.sync.AttachImage(target, result.DataURI); err != nil {
		status, code := editorStatus(err)
		ErrorWithCode(c, status, code, err.Error())
		return
	}

	logger.Info("image inlined", slog.String("target", target), slog.String("mime", result.MIME), slog.Int("size", result.Size))
	c.JSON(http.StatusCreated, gin.H{
		"target":  target,
		"dataUri": result.DataURI,
		"mime":    result.MIME,
		"size":    result.Size,
	})
}

func (h *AssetHandler) reject(c *gin.Context, warning *upload.ValidationWarning) {
	metrics.ObserveUploadRejected(warning.Reason)
	if h.notifier != nil {
		h.notifier.Notify(editor.Notice{Level: editor.LevelError, Code: errcode.UploadRejected, Message: warning.Error()})
	}
	c.JSON(errcode.HTTPStatus(errcode.UploadRejected), gin.H{
		"error":  warning.Error(),
		"code":   errcode.UploadRejected,
		"reason": warning.Reason,
	})
}
