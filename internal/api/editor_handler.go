package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"soumiSpace/internal/api/middleware"
	"soumiSpace/internal/editor"
	"soumiSpace/internal/errcode"
	"soumiSpace/internal/store"
)

// EditorHandler 把编辑器的 Synchronizer 暴露为 HTTP 接口。
type EditorHandler struct {
	sync    *editor.Synchronizer
	notices *editor.NoticeBoard
	logger  *slog.Logger
}

func NewEditorHandler(sync *editor.Synchronizer, notices *editor.NoticeBoard, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{sync: sync, notices: notices, logger: logger}
}

func (h *EditorHandler) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.View())
}

// Reload 丢弃未保存的修改，从存储重新装载。
func (h *EditorHandler) Reload(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Reload(c.Request.Context()))
}

// UpdateFields 接收部分表单字段。字段错误时其余分区照常生效。
func (h *EditorHandler) UpdateFields(c *gin.Context) {
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		BadRequest(c, err.Error())
		return
	}
	view, err := h.sync.UpdateFields(editor.Form(fields))
	if err != nil {
		h.fail(c, err, gin.H{"view": view})
		return
	}
	c.JSON(http.StatusOK, view)
}

type addItemRequest struct {
	Category string `json:"category"`
}

func (h *EditorHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	view, err := h.sync.AddItem(c.Param("section"), req.Category)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *EditorHandler) EditItem(c *gin.Context) {
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		BadRequest(c, err.Error())
		return
	}
	view, err := h.sync.EditItem(c.Param("section"), c.Param("id"), fields)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EditorHandler) RemoveItem(c *gin.Context) {
	view, err := h.sync.RemoveItem(c.Param("section"), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Save 按规范顺序保存全部分区，返回已保存、失败与跳过的分区。
func (h *EditorHandler) Save(c *gin.Context) {
	report, err := h.sync.Save(c.Request.Context())
	if err != nil {
		h.fail(c, err, gin.H{"report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *EditorHandler) SaveSection(c *gin.Context) {
	section := c.Param("section")
	if err := h.sync.SaveSection(c.Request.Context(), section); err != nil {
		h.fail(c, err, gin.H{"section": section})
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section})
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

func (h *EditorHandler) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.sync.SetTheme(req.Theme); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

// Notices 返回仍在可见期内的通知。
func (h *EditorHandler) Notices(c *gin.Context) {
	notices := []editor.Notice{}
	if h.notices != nil {
		notices = append(notices, h.notices.Active()...)
	}
	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

func (h *EditorHandler) fail(c *gin.Context, err error, extra gin.H) {
	status, code := editorStatus(err)
	body := gin.H{"error": err.Error(), "code": code}
	for k, v := range extra {
		body[k] = v
	}
	var collect *editor.CollectError
	if errors.As(err, &collect) {
		body["sections"] = collect.Sections()
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFromContextOr(c, h.logger).Error("editor operation failed", slog.Any("error", err))
	}
	c.JSON(status, body)
}

func editorStatus(err error) (int, int) {
	code := editorCode(err)
	return errcode.HTTPStatus(code), code
}

func editorCode(err error) int {
	var missing *editor.MissingFieldError
	var invalid *editor.InvalidFieldError
	var collect *editor.CollectError
	switch {
	case errors.Is(err, editor.ErrUnknownSection),
		errors.Is(err, editor.ErrUnknownItem),
		errors.Is(err, editor.ErrUnknownTarget):
		return errcode.ResourceMissing
	case errors.As(err, &missing),
		errors.As(err, &invalid),
		errors.As(err, &collect),
		errors.Is(err, editor.ErrNotListSection),
		errors.Is(err, editor.ErrUnknownCategory),
		errors.Is(err, editor.ErrInvalidTheme):
		return errcode.ValidationFailed
	case store.IsUnavailable(err):
		return errcode.StoreUnavailable
	default:
		return errcode.SystemError
	}
}
