package preview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"soumiSpace/internal/content"
	"soumiSpace/internal/render"
)

// Loader 重新读取已保存的站点内容。
type Loader interface {
	Load(ctx context.Context) *content.Site
}

// LoaderFunc 让普通函数满足 Loader。
type LoaderFunc func(ctx context.Context) *content.Site

func (f LoaderFunc) Load(ctx context.Context) *content.Site { return f(ctx) }

// Surface 是预览端的状态：持有一个页面，并按消息类型决定如何刷新。
type Surface struct {
	mu     sync.Mutex
	page   *render.Page
	loader Loader
	site   *content.Site
	logger *slog.Logger
}

// NewSurface 构造预览端；loader 为空时忽略 STORAGE_UPDATED。
func NewSurface(page *render.Page, loader Loader, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{page: page, loader: loader, logger: logger}
}

// Handle 处理一条消息：整站更新重新渲染，切换主题只改主题，存储更新则重新读取后渲染。
func (s *Surface) Handle(ctx context.Context, msg Message) error {
	switch msg.Type {
	case TypeUpdateWebsite, TypeWebsiteData:
		if msg.Data == nil {
			return fmt.Errorf("%s: %w", msg.Type, ErrMissingData)
		}
		s.render(msg.Data)
	case TypeChangeTheme:
		if !content.IsTheme(msg.Theme) {
			return fmt.Errorf("%s: invalid theme %q", msg.Type, msg.Theme)
		}
		s.page.ApplyThemeName(msg.Theme)
		s.mu.Lock()
		if s.site != nil && s.site.Settings != nil {
			s.site.Settings.Theme = msg.Theme
		}
		s.mu.Unlock()
	case TypeStorageUpdated:
		if s.loader == nil {
			return nil
		}
		s.render(s.loader.Load(ctx))
	case TypeRequestWebsiteData:
		// 请求由 Hub 应答，预览端自身不处理。
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	return nil
}

func (s *Surface) render(site *content.Site) {
	if site == nil {
		return
	}
	s.mu.Lock()
	s.site = site.Clone()
	s.mu.Unlock()
	s.page.Render(site)
	s.logger.Debug("preview rendered", slog.Int("sections", len(site.Sections())))
}

// Site 返回最近一次渲染的内容副本。
func (s *Surface) Site() *content.Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.site.Clone()
}

// HTML 返回当前页面。
func (s *Surface) HTML() (string, error) { return s.page.HTML() }

// Page 返回底层页面。
func (s *Surface) Page() *render.Page { return s.page }
