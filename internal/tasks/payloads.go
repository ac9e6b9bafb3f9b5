package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeSitePublish 把已保存的内容渲染为静态快照。
const TypeSitePublish = "site:publish"

// SitePublishPayload 只携带追踪信息，内容由 worker 从内容表重新读取。
type SitePublishPayload struct {
	CorrelationID string `json:"correlation_id"`
	WithPDF       bool   `json:"with_pdf"`
}

func NewSitePublishTask(correlationID string, withPDF bool) (*asynq.Task, error) {
	payload, err := json.Marshal(SitePublishPayload{
		CorrelationID: correlationID,
		WithPDF:       withPDF,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal publish payload: %w", err)
	}
	return asynq.NewTask(TypeSitePublish, payload), nil
}

// ParseSitePublishPayload 解码任务负载。格式错误的任务重试也不会成功，错误中带有 asynq.SkipRetry。
func ParseSitePublishPayload(t *asynq.Task) (SitePublishPayload, error) {
	var payload SitePublishPayload
	if t.Type() != TypeSitePublish {
		return payload, fmt.Errorf("unexpected task type %q: %w", t.Type(), asynq.SkipRetry)
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("unmarshal publish payload: %w: %w", err, asynq.SkipRetry)
	}
	return payload, nil
}
