package repository

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-knowledge/pkg/vector"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()[:8]
	db, err := database.NewSQLiteDB("file:"+name+"?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.CloseDB(db) })
	return db
}

func mustEncode(t *testing.T, v ...float32) []byte {
	t.Helper()
	b, err := vector.Encode(v)
	require.NoError(t, err)
	return b
}
