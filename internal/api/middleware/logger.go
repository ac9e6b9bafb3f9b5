package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const slogLoggerKey = "slogLogger"

// 探活与指标抓取不写访问日志。
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// SlogLoggerMiddleware 为每个请求注入带 Correlation ID 的 slog.Logger，结束时按状态码选择级别写访问日志。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		requestLogger := logger.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
		)
		c.Set(slogLoggerKey, requestLogger)

		start := time.Now()
		c.Next()

		if _, quiet := quietPaths[path]; quiet {
			return
		}
		status := c.Writer.Status()
		attrs := []any{
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			requestLogger.Error("request completed", attrs...)
		case status >= http.StatusBadRequest:
			requestLogger.Warn("request completed", attrs...)
		default:
			requestLogger.Info("request completed", attrs...)
		}
	}
}

// LoggerFromContext 返回上下文中的 slog.Logger。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	return LoggerFromContextOr(c, nil)
}

// LoggerFromContextOr 在请求未经过日志中间件时返回 fallback。
func LoggerFromContextOr(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if value, ok := c.Get(slogLoggerKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
