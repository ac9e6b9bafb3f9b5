package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"soumiSpace/internal/auth"
	"soumiSpace/internal/metrics"
	"soumiSpace/internal/preview"
)

const authWait = 10 * time.Second

// WsHandler 负责预览通道的 WebSocket 升级与鉴权。
type WsHandler struct {
	hub            *preview.Hub
	authService    *auth.AuthService
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。allowedOrigins 为空时只接受同源连接。
func NewWsHandler(hub *preview.Hub, authService *auth.AuthService, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &WsHandler{
		hub:            hub,
		authService:    authService,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: h.checkOrigin,
	}
	return h
}

func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 升级连接。两种角色都必须先发送 {type:"auth",token}，预览内容包含未保存的草稿。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	role := c.DefaultQuery("role", preview.RolePreview)
	if role != preview.RolePreview && role != preview.RoleEditor {
		BadRequest(c, "invalid role")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}

	log := h.logger.With(slog.String("client_ip", c.ClientIP()), slog.String("role", role))
	userID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		_ = conn.Close()
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(userID)))
	log.Info("websocket authenticated")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := preview.NewClient(uuid.NewString(), role, conn, h.hub, log)
	h.hub.Register(client)
	done := metrics.PreviewClientConnected(role)
	defer done()

	go client.WritePump(ctx)
	client.ReadPump(ctx)
	log.Info("websocket connection closed")
}

func (h *WsHandler) authenticate(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(authWait))
	_, message, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("read auth message: %w", err)
	}

	var authMsg wsAuthMessage
	if err := json.Unmarshal(message, &authMsg); err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
		return 0, fmt.Errorf("decode auth payload: %w", err)
	}
	if authMsg.Type != "auth" || authMsg.Token == "" {
		writeClose(conn, websocket.ClosePolicyViolation, "auth required")
		return 0, errors.New("invalid auth message")
	}

	claims, err := h.authService.ValidateTokenOfType(authMsg.Token, auth.TokenTypeAccess)
	if err != nil {
		reason := "unauthorized"
		if errors.Is(err, auth.ErrWrongTokenType) {
			reason = "access token required"
		}
		writeClose(conn, websocket.ClosePolicyViolation, reason)
		return 0, fmt.Errorf("validate token: %w", err)
	}
	if claims.MustChangePassword {
		writeClose(conn, websocket.ClosePolicyViolation, "password change required")
		return 0, errors.New("password change required")
	}
	_ = conn.SetReadDeadline(time.Time{})
	return claims.UserID, nil
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}
