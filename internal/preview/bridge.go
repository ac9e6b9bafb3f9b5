package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel 是跨进程通知使用的 Redis 频道。
const Channel = "site_notify"

type pubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type envelope struct {
	Origin  string  `json:"origin"`
	Message Message `json:"message"`
}

// Bridge 通过 Redis Pub/Sub 在 API 副本与 worker 之间转发消息。
type Bridge struct {
	client pubSubClient
	origin string
	logger *slog.Logger
}

// NewBridge 构造 bridge，每个进程有独立的 origin，用于忽略自己发出的消息。
func NewBridge(client pubSubClient, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{client: client, origin: uuid.NewString(), logger: logger}
}

// Origin 返回本进程标识。
func (b *Bridge) Origin() string { return b.origin }

// Publish 只发出消息类型与主题，整站数据不经 Redis 传输。
func (b *Bridge) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(envelope{Origin: b.origin, Message: Message{Type: msg.Type, Theme: msg.Theme}})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run 订阅频道并把其它进程的消息交给 hub 在本地投递，直到 ctx 结束。
func (b *Bridge) Run(ctx context.Context, hub *Hub) error {
	pubsub := b.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	b.logger.Info("subscribed to redis channel", slog.String("channel", Channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return fmt.Errorf("pubsub channel closed")
			}
			b.handlePayload(ctx, hub, []byte(m.Payload))
		}
	}
}

func (b *Bridge) handlePayload(ctx context.Context, hub *Hub, payload []byte) bool {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		b.logger.Warn("invalid bridge payload", slog.Any("error", err))
		return false
	}
	if env.Origin == b.origin {
		return false
	}
	switch env.Message.Type {
	case TypeStorageUpdated, TypeChangeTheme:
	default:
		return false
	}
	hub.Deliver(ctx, env.Message)
	return true
}
