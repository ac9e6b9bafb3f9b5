package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"soumiSpace/internal/api/middleware"
	"soumiSpace/internal/storage"
)

const snapshotLinkTTL = 15 * time.Minute

type snapshotStorage interface {
	Exists(ctx context.Context, objectKey string) (bool, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// SnapshotHandler 返回最近一次发布快照的临时链接。
type SnapshotHandler struct {
	storage snapshotStorage
	logger  *slog.Logger
}

func NewSnapshotHandler(storage snapshotStorage, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{storage: storage, logger: logger}
}

// Latest 默认返回 HTML 快照，format=pdf 时返回 PDF。
func (h *SnapshotHandler) Latest(c *gin.Context) {
	logger := middleware.LoggerFromContextOr(c, h.logger)
	key := storage.LatestSnapshotKey
	if c.Query("format") == "pdf" {
		key = storage.LatestPDFKey
	}

	ctx := c.Request.Context()
	exists, err := h.storage.Exists(ctx, key)
	if err != nil {
		logger.Error("stat snapshot failed", slog.String("object_key", key), slog.Any("error", err))
		Internal(c, "failed to look up snapshot")
		return
	}
	if !exists {
		NotFound(c, "no snapshot published yet")
		return
	}

	url, err := h.storage.GeneratePresignedURL(ctx, key, snapshotLinkTTL)
	if err != nil {
		logger.Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "objectKey": key, "expiresIn": int(snapshotLinkTTL.Seconds())})
}
