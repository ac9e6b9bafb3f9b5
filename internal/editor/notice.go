package editor

import (
	"sync"
	"time"
)

// NoticeTTL 是通知的可见时长。
const NoticeTTL = 3 * time.Second

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notice 是一条临时通知，不作为任何操作的返回值。
type Notice struct {
	ID        uint64    `json:"id"`
	Level     string    `json:"level"`
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	Section   string    `json:"section,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier 接收通知，实现方不得阻塞调用方。
type Notifier interface {
	Notify(n Notice)
}

// NoticeBoard 用固定大小的环保存最近的通知。
type NoticeBoard struct {
	mu    sync.Mutex
	ring  []Notice
	next  int
	seq   uint64
	ttl   time.Duration
	clock func() time.Time
}

// NewNoticeBoard 构造通知板；size <= 0 时取 32。
func NewNoticeBoard(size int, ttl time.Duration) *NoticeBoard {
	if size <= 0 {
		size = 32
	}
	if ttl <= 0 {
		ttl = NoticeTTL
	}
	return &NoticeBoard{ring: make([]Notice, 0, size), ttl: ttl, clock: time.Now}
}

func (b *NoticeBoard) Notify(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	now := b.clock()
	n.ID = b.seq
	n.CreatedAt = now
	n.ExpiresAt = now.Add(b.ttl)
	if len(b.ring) < cap(b.ring) {
		b.ring = append(b.ring, n)
		return
	}
	b.ring[b.next] = n
	b.next = (b.next + 1) % len(b.ring)
}

// Active 返回未过期的通知，按先后顺序。
func (b *NoticeBoard) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock()
	out := make([]Notice, 0, len(b.ring))
	for i := 0; i < len(b.ring); i++ {
		n := b.ring[(b.next+i)%len(b.ring)]
		if now.Before(n.ExpiresAt) {
			out = append(out, n)
		}
	}
	return out
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
