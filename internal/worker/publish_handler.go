package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"soumiSpace/internal/content"
	"soumiSpace/internal/database"
	"soumiSpace/internal/preview"
	"soumiSpace/internal/render"
	"soumiSpace/internal/storage"
	"soumiSpace/internal/tasks"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	pdfContentType  = "application/pdf"
	listLimit       = 1000
)

// SnapshotStorage 是发布任务需要的对象存储能力。
type SnapshotStorage interface {
	PutSnapshot(ctx context.Context, key string, data []byte, contentType string) error
	ListObjects(ctx context.Context, prefix string, limit int) ([]storage.ObjectMeta, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// Notifier 把发布完成广播给各 API 副本。
type Notifier interface {
	Publish(ctx context.Context, msg preview.Message) error
}

// PDFRenderer 把 HTML 导出为 PDF。
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// PublishTaskHandler 消费 site:publish，把合并后的站点渲染为静态快照。
type PublishTaskHandler struct {
	db            *gorm.DB
	fetcher       content.Fetcher
	storage       SnapshotStorage
	notifier      Notifier
	pdf           PDFRenderer
	keepSnapshots int
	logger        *slog.Logger
}

// NewPublishTaskHandler 创建任务处理器；pdf 为空时忽略 PDF 导出请求。
func NewPublishTaskHandler(
	db *gorm.DB,
	fetcher content.Fetcher,
	storage SnapshotStorage,
	notifier Notifier,
	pdf PDFRenderer,
	keepSnapshots int,
	logger *slog.Logger,
) *PublishTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishTaskHandler{
		db:            db,
		fetcher:       fetcher,
		storage:       storage,
		notifier:      notifier,
		pdf:           pdf,
		keepSnapshots: keepSnapshots,
		logger:        logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PublishTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseSitePublishPayload(t)
	if err != nil {
		h.logger.Error("invalid publish task", slog.Any("error", err))
		return err
	}

	log := h.logger.With(slog.String("correlation_id", payload.CorrelationID))
	log.Info("publishing site snapshot")

	site := content.Load(ctx, h.fetcher, log)
	page := render.New(nil)
	page.Render(site)
	doc, err := page.HTML()
	if err != nil {
		log.Error("render snapshot failed", slog.Any("error", err))
		return fmt.Errorf("render snapshot: %w", err)
	}

	id := uuid.NewString()
	snapshot := database.Snapshot{
		ObjectKey:     storage.SnapshotKey(id),
		CorrelationID: payload.CorrelationID,
	}
	for _, key := range []string{snapshot.ObjectKey, storage.LatestSnapshotKey} {
		if err := h.upload(ctx, key, []byte(doc), htmlContentType); err != nil {
			log.Error("upload snapshot failed", slog.String("object_key", key), slog.Any("error", err))
			return err
		}
	}

	if payload.WithPDF && h.pdf != nil {
		// PDF 失败不影响 HTML 快照。
		if key, err := h.exportPDF(ctx, id, doc); err != nil {
			log.Warn("export pdf failed", slog.Any("error", err))
		} else {
			snapshot.PdfObjectKey = key
		}
	}

	if err := h.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		log.Error("record snapshot failed", slog.Any("error", err))
		return fmt.Errorf("record snapshot: %w", err)
	}

	if err := h.prune(ctx); err != nil {
		log.Warn("prune snapshots failed", slog.Any("error", err))
	}

	if h.notifier != nil {
		if err := h.notifier.Publish(ctx, preview.Message{Type: preview.TypeStorageUpdated}); err != nil {
			log.Error("publish storage updated failed", slog.Any("error", err))
		}
	}

	log.Info("site snapshot published", slog.String("object_key", snapshot.ObjectKey))
	return nil
}

func (h *PublishTaskHandler) upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := h.storage.PutSnapshot(ctx, key, data, contentType); err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}

func (h *PublishTaskHandler) exportPDF(ctx context.Context, id, doc string) (string, error) {
	data, err := h.pdf.Render(ctx, doc)
	if err != nil {
		return "", err
	}
	key := storage.SnapshotPDFKey(id)
	for _, k := range []string{key, storage.LatestPDFKey} {
		if err := h.upload(ctx, k, data, pdfContentType); err != nil {
			return "", err
		}
	}
	return key, nil
}

// prune 只保留最近 keepSnapshots 次发布，latest 不受影响。
func (h *PublishTaskHandler) prune(ctx context.Context) error {
	if h.keepSnapshots <= 0 {
		return nil
	}
	objects, err := h.storage.ListObjects(ctx, storage.SnapshotPrefix, listLimit)
	if err != nil {
		return err
	}

	type published struct {
		id   string
		keys []string
		meta storage.ObjectMeta
	}
	byID := map[string]*published{}
	for _, obj := range objects {
		id := storage.SnapshotID(obj.Key)
		if id == "" {
			continue
		}
		p, ok := byID[id]
		if !ok {
			p = &published{id: id, meta: obj}
			byID[id] = p
		}
		p.keys = append(p.keys, obj.Key)
		if obj.LastModified.After(p.meta.LastModified) {
			p.meta = obj
		}
	}
	if len(byID) <= h.keepSnapshots {
		return nil
	}

	all := make([]*published, 0, len(byID))
	for _, p := range byID {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].meta.LastModified.After(all[j].meta.LastModified)
	})

	var stale []string
	for _, p := range all[h.keepSnapshots:] {
		for _, key := range p.keys {
			if err := h.storage.DeleteObject(ctx, key); err != nil {
				return err
			}
		}
		stale = append(stale, storage.SnapshotKey(p.id))
	}
	if err := h.db.WithContext(ctx).Where("object_key IN ?", stale).Delete(&database.Snapshot{}).Error; err != nil {
		return fmt.Errorf("delete snapshot rows: %w", err)
	}
	h.logger.Info("pruned old snapshots", slog.Int("count", len(stale)))
	return nil
}
