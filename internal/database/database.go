package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"soumiSpace/internal/config"
)

// 容器编排下数据库可能晚于服务就绪。
const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// InitDatabase 连接 PostgreSQL，失败时按线性退避重试。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = open(cfg)
		if err == nil {
			return db, nil
		}
		if attempt < connectAttempts {
			time.Sleep(time.Duration(attempt) * connectBackoff)
		}
	}
	return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
}

func open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}

	// 内容表很小，读多写少。
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate 创建或更新服务所需的表结构。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &SiteSection{}, &Snapshot{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
