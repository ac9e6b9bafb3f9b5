package logging

import "context"

type correlationIDKey struct{}

// WithCorrelationID 把请求的 Correlation ID 放入 ctx，随保存流程传到发布任务。
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID 取出 ctx 中的 Correlation ID，没有时返回空串。
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
