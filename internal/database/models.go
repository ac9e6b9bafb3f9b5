package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示可以登录编辑端的账号。
type User struct {
	gorm.Model
	Username           string `gorm:"uniqueIndex;size:64"`
	PasswordHash       string `gorm:"size:255"`
	MustChangePassword bool   `gorm:"default:false"`
}

// SiteSection 表示站点内容的一个分区，每个分区一行。
// SectionName 唯一，保存时按该列 upsert，Content 整体替换。
type SiteSection struct {
	gorm.Model
	SectionName string         `gorm:"uniqueIndex;size:64;not null"`
	Content     datatypes.JSON `gorm:"type:jsonb"`
}

// Snapshot 记录一次发布产生的静态页面对象。
type Snapshot struct {
	gorm.Model
	ObjectKey     string `gorm:"size:512"`
	PdfObjectKey  string `gorm:"size:512"`
	CorrelationID string `gorm:"size:64;index"`
}
