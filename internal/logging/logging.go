// Package logging 构造进程级的 slog 日志器。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"soumiSpace/internal/config"
)

const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 7
)

// New 返回写到标准输出的 JSON 日志器；配置了 log.file 时同时写入滚动文件。
func New(cfg config.LogConfig) *slog.Logger {
	return slog.New(slog.NewJSONHandler(Writer(cfg, os.Stdout), &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}))
}

// Writer 返回日志输出目标。
func Writer(cfg config.LogConfig, console io.Writer) io.Writer {
	if strings.TrimSpace(cfg.File) == "" {
		return console
	}
	return io.MultiWriter(console, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	})
}

// ParseLevel 把 debug/info/warn/error 映射为 slog 级别，未知值按 info 处理。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
