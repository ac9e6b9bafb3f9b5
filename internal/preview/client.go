package preview

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// 客户端角色。
const (
	RoleEditor  = "editor"
	RolePreview = "preview"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20
	sendBuffer     = 32
)

// Client 是一条 WebSocket 连接。预览端接收推送，编辑端发送消息并接收应答。
type Client struct {
	ID     string
	Role   string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *slog.Logger
}

// NewClient 构造客户端，调用方负责 Register 与启动两个 pump。
func NewClient(id, role string, conn *websocket.Conn, hub *Hub, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		ID:     id,
		Role:   role,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		logger: logger.With(slog.String("client_id", id), slog.String("role", role)),
	}
}

// Send 把消息放入发送队列，队列已满时丢弃并返回 false。
func (c *Client) Send(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal message failed", slog.Any("error", err))
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// ReadPump 读取客户端消息直到连接断开，结束时注销客户端。
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", slog.Any("error", err))
			}
			return
		}
		msg, err := Decode(raw)
		if err != nil {
			c.logger.Warn("invalid message", slog.Any("error", err))
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, msg Message) {
	if c.Role == RolePreview {
		// 预览端只能请求数据。
		if msg.Type == TypeRequestWebsiteData {
			c.Send(c.hub.WebsiteData())
		}
		return
	}
	reply, err := c.hub.Dispatch(ctx, msg)
	if err != nil {
		c.logger.Warn("dispatch failed", slog.String("type", msg.Type), slog.Any("error", err))
		return
	}
	if reply != nil {
		c.Send(*reply)
	}
}

// WritePump 把发送队列写到连接，并定期发送 ping。
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
