package database

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	// file databases run in WAL mode; concurrent writers queue on busy_timeout
	sqliteFilePragmas = "&_pragma=journal_mode(WAL)"

	sqliteFileConns = 4
)

// NewSQLiteDB opens a pure-Go SQLite database. File databases use WAL so
// readers never wait behind a writer. In-memory databases are capped at
// one connection, which also keeps a shared in-memory database alive for
// the lifetime of the pool.
func NewSQLiteDB(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	memory := isMemoryDSN(dsn)
	params := sqlitePragmas
	if !memory {
		params += sqliteFilePragmas
	}

	db, err := gorm.Open(sqlite.Open(dsn+sep+params), &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: utcNow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	if memory {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(sqliteFileConns)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
