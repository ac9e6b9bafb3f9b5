// Package store 封装内容表的读写：每个分区一行，按 section_name 整体 upsert。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"soumiSpace/internal/database"
)

// Store 是内容表客户端的契约。没有删除、没有字段级更新、没有版本。
type Store interface {
	FetchAll(ctx context.Context) (map[string]json.RawMessage, error)
	UpsertSection(ctx context.Context, name string, content json.RawMessage) error
}

// GormStore 基于 GORM 的 site_sections 表实现 Store。
type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormStore 构造 GormStore。timeout 为 0 时不附加超时。
func NewGormStore(db *gorm.DB, timeout time.Duration) *GormStore {
	return &GormStore{db: db, timeout: timeout}
}

func (s *GormStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// FetchAll 读取全部分区行。
func (s *GormStore) FetchAll(ctx context.Context) (map[string]json.RawMessage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []database.SiteSection
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		if isConnectionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, &StoreError{Op: "fetch", Err: err}
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.SectionName] = json.RawMessage(row.Content)
	}
	return out, nil
}

// UpsertSection 以 section_name 为冲突目标整体替换该分区内容。
func (s *GormStore) UpsertSection(ctx context.Context, name string, content json.RawMessage) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &StoreError{Op: "upsert", Err: errors.New("section name is required")}
	}
	if !json.Valid(content) {
		return &StoreError{Section: name, Op: "upsert", Err: errors.New("content is not valid json")}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := database.SiteSection{
		SectionName: name,
		Content:     datatypes.JSON(content),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "section_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		if isConnectionError(err) {
			return &StoreError{Section: name, Op: "upsert", Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
		}
		return &StoreError{Section: name, Op: "upsert", Err: err}
	}
	return nil
}

// isConnectionError 粗略识别连接/认证层失败，驱动通常只给出字符串。
func isConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"no such host",
		"failed to connect",
		"authentication failed",
		"broken pipe",
		"connection reset",
		"sql: database is closed",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
