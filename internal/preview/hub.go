package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"soumiSpace/internal/content"
)

// DataSource 提供编辑端的当前内容，用于应答 REQUEST_WEBSITE_DATA。
type DataSource interface {
	Site() *content.Site
}

// Publisher 把消息发往其它进程。
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Hub 把编辑端消息转发给本地预览端与已连接的预览客户端。
type Hub struct {
	mu       sync.RWMutex
	source   DataSource
	bridge   Publisher
	surfaces []*Surface
	clients  map[*Client]struct{}
	logger   *slog.Logger
}

// NewHub 构造 Hub。数据源与跨进程发布器可以稍后设置。
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With(slog.String("component", "preview_hub")),
	}
}

func (h *Hub) SetSource(src DataSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = src
}

func (h *Hub) SetBridge(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridge = p
}

// AttachSurface 登记一个本地预览端。
func (h *Hub) AttachSurface(s *Surface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.surfaces = append(h.surfaces, s)
}

// Register 登记一个客户端。
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.logger.Debug("client registered", slog.String("client_id", c.ID), slog.String("role", c.Role))
}

// Unregister 注销客户端并关闭其发送队列。
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Debug("client unregistered", slog.String("client_id", c.ID))
	}
}

// ClientCount 返回指定角色的客户端数量；role 为空时统计全部。
func (h *Hub) ClientCount(role string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if role == "" || c.Role == role {
			n++
		}
	}
	return n
}

// WebsiteData 生成 WEBSITE_DATA 应答，一次往返即返回完整内容。
func (h *Hub) WebsiteData() Message {
	h.mu.RLock()
	src := h.source
	h.mu.RUnlock()
	site := content.Defaults()
	if src != nil {
		if s := src.Site(); s != nil {
			site = s
		}
	}
	return Message{Type: TypeWebsiteData, Data: site}
}

// Dispatch 处理编辑端发来的消息；REQUEST_WEBSITE_DATA 返回应答，其余返回 nil。
func (h *Hub) Dispatch(ctx context.Context, msg Message) (*Message, error) {
	switch msg.Type {
	case TypeRequestWebsiteData:
		reply := h.WebsiteData()
		return &reply, nil
	case TypeUpdateWebsite:
		if msg.Data == nil {
			return nil, fmt.Errorf("%s: %w", msg.Type, ErrMissingData)
		}
		h.Deliver(ctx, msg)
	case TypeChangeTheme:
		if !content.IsTheme(msg.Theme) {
			return nil, fmt.Errorf("%s: invalid theme %q", msg.Type, msg.Theme)
		}
		h.Deliver(ctx, msg)
	case TypeStorageUpdated:
		return nil, h.StorageUpdated(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	return nil, nil
}

// Deliver 只在本进程内投递：先交给本地预览端，再附上渲染结果发给预览客户端。
func (h *Hub) Deliver(ctx context.Context, msg Message) {
	h.mu.RLock()
	surfaces := append([]*Surface(nil), h.surfaces...)
	h.mu.RUnlock()

	for _, s := range surfaces {
		if err := s.Handle(ctx, msg); err != nil {
			h.logger.Warn("surface rejected message", slog.String("type", msg.Type), slog.Any("error", err))
		}
	}
	if len(surfaces) > 0 && msg.HTML == "" {
		if page, err := surfaces[0].HTML(); err == nil {
			msg.HTML = page
		}
	}
	h.broadcast(msg, RolePreview)
}

func (h *Hub) broadcast(msg Message, role string) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast message failed", slog.Any("error", err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.Role != role {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", slog.String("client_id", c.ID))
		}
	}
}

// SiteUpdated 把编辑端的整站快照推给预览端。
func (h *Hub) SiteUpdated(site *content.Site) {
	h.Deliver(context.Background(), Message{Type: TypeUpdateWebsite, Data: site})
}

// ThemeChanged 只推送主题名。
func (h *Hub) ThemeChanged(theme string) {
	h.Deliver(context.Background(), Message{Type: TypeChangeTheme, Theme: theme})
}

// StorageUpdated 通知本地预览端重新读取，并经由 bridge 通知其它进程。
func (h *Hub) StorageUpdated(ctx context.Context) error {
	msg := Message{Type: TypeStorageUpdated}
	h.Deliver(ctx, msg)

	h.mu.RLock()
	bridge := h.bridge
	h.mu.RUnlock()
	if bridge == nil {
		return nil
	}
	if err := bridge.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish storage updated: %w", err)
	}
	return nil
}
