// Package preview 实现编辑端与预览端之间的消息通道。
package preview

import (
	"encoding/json"
	"errors"
	"fmt"

	"soumiSpace/internal/content"
)

// 消息类型与前端保持一致。
const (
	TypeUpdateWebsite      = "UPDATE_WEBSITE"
	TypeRequestWebsiteData = "REQUEST_WEBSITE_DATA"
	TypeWebsiteData        = "WEBSITE_DATA"
	TypeChangeTheme        = "CHANGE_THEME"
	TypeStorageUpdated     = "STORAGE_UPDATED"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMissingData = errors.New("message carries no data")
)

// Message 是通道上的唯一消息格式。HTML 只在发往预览端时附带渲染结果。
type Message struct {
	Type  string        `json:"type"`
	Data  *content.Site `json:"data,omitempty"`
	Theme string        `json:"theme,omitempty"`
	HTML  string        `json:"html,omitempty"`
}

func knownType(t string) bool {
	switch t {
	case TypeUpdateWebsite, TypeRequestWebsiteData, TypeWebsiteData, TypeChangeTheme, TypeStorageUpdated:
		return true
	}
	return false
}

// Decode 解析并校验一条消息。
func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if !knownType(msg.Type) {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	return msg, nil
}
