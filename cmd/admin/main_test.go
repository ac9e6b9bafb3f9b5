package main

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"soumiSpace/internal/auth"
	"soumiSpace/internal/content"
	"soumiSpace/internal/database"
	"soumiSpace/internal/store"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSeedDefaultSections_KeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	st := store.NewGormStore(newTestDB(t), 0)
	require.NoError(t, st.UpsertSection(ctx, content.SectionHero, json.RawMessage(`{"name":"Kept"}`)))

	seeded, err := seedDefaultSections(ctx, st)
	require.NoError(t, err)
	assert.NotContains(t, seeded, content.SectionHero)
	assert.Contains(t, seeded, content.SectionSettings)

	rows, err := st.FetchAll(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Kept"}`, string(rows[content.SectionHero]))
	assert.Len(t, rows, len(seeded)+1)

	again, err := seedDefaultSections(ctx, st)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCreateAdmin(t *testing.T) {
	db := newTestDB(t)

	password, err := createAdmin(db, "owner")
	require.NoError(t, err)
	assert.Len(t, password, 32)

	var user database.User
	require.NoError(t, db.Where("username = ?", "owner").First(&user).Error)
	assert.True(t, user.MustChangePassword)
	assert.True(t, auth.CheckPasswordHash(password, user.PasswordHash))

	_, err = createAdmin(db, "owner")
	assert.Error(t, err)
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DATABASE_HOST", "")
	t.Setenv("DATABASE_PORT", "")
	t.Setenv("DATABASE_SSLMODE", "")
	t.Setenv("POSTGRES_DB", "site")
	t.Setenv("POSTGRES_USER", "owner")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	cfg, err := loadDatabaseConfig("", 0, "", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, "site", cfg.Name)

	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("DB_PASSWORD", "")
	_, err = loadDatabaseConfig("", 0, "", "", "", "")
	assert.Error(t, err)
}
