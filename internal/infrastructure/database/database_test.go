package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

func TestAutoMigrate_SQLite(t *testing.T) {
	db, err := NewSQLiteDB("file:migrate_test?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })

	require.NoError(t, AutoMigrate(db))
	// idempotent
	require.NoError(t, AutoMigrate(db))

	for _, model := range Models() {
		assert.True(t, db.Migrator().HasTable(model), fmt.Sprintf("%T", model))
	}
	assert.True(t, db.Migrator().HasIndex(&entities.ActionItem{}, "idx_action_items_open"))

	n, err := RollbackMigrations(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, db.Migrator().HasIndex(&entities.ActionItem{}, "idx_action_items_open"))
}

func TestIsUnavailable(t *testing.T) {
	assert.False(t, IsUnavailable(nil))
	assert.True(t, IsUnavailable(fmt.Errorf("query: %w", driver.ErrBadConn)))
	assert.True(t, IsUnavailable(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")))
	assert.False(t, IsUnavailable(errors.New(`ERROR: syntax error at or near "SELEC"`)))
}

func TestNewSQLiteDB_FileUsesWAL(t *testing.T) {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "kb.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	require.NoError(t, AutoMigrate(db))

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, sqliteFileConns, sqlDB.Stats().MaxOpenConnections)

	// a reader is not blocked by an open write transaction
	tx := db.Begin()
	require.NoError(t, tx.Error)
	require.NoError(t, tx.Create(entities.NewMeeting("Writer", nil)).Error)

	var wg sync.WaitGroup
	var count int64
	var readErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		readErr = db.Model(&entities.Meeting{}).Count(&count).Error
	}()
	wg.Wait()
	require.NoError(t, readErr)
	assert.Zero(t, count, "uncommitted row is invisible to the reader")
	require.NoError(t, tx.Commit().Error)

	require.NoError(t, db.Model(&entities.Meeting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewSQLiteDB_MemoryKeepsOneConnection(t *testing.T) {
	db, err := NewSQLiteDB("file:pool_test?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.True(t, isMemoryDSN(":memory:"))
	assert.False(t, isMemoryDSN("/var/lib/kb/kb.db"))
}
