package database

import (
	"embed"
	"fmt"
	"log"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

// Supported dialects
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

//go:embed migrations
var migrationFiles embed.FS

// Models lists every table managed by the store
func Models() []interface{} {
	return []interface{}{
		&entities.Meeting{},
		&entities.Segment{},
		&entities.ActionItem{},
		&entities.Decision{},
		&entities.Person{},
		&entities.Topic{},
		&entities.EntityRelation{},
		&entities.MeetingPerson{},
		&entities.MeetingTopic{},
		&entities.KnowledgeSource{},
		&entities.KnowledgeChunk{},
		&entities.MeetingKnowledge{},
	}
}

// AutoMigrate creates the tables from the models, then applies the
// dialect specific index migrations with sql-migrate
func AutoMigrate(db *gorm.DB) error {
	log.Println("🔄 Migrating schema...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	n, err := applyMigrations(db, migrate.Up)
	if err != nil {
		return err
	}

	log.Printf("✅ Applied %d migrations!\n", n)
	return nil
}

// RollbackMigrations reverts the last n index migrations
func RollbackMigrations(db *gorm.DB, n int) (int, error) {
	return applyMigrations(db, migrate.Down, n)
}

func applyMigrations(db *gorm.DB, dir migrate.MigrationDirection, max ...int) (int, error) {
	dialect, root := migrationDialect(db)
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       root,
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate, error: %v", err)
	}

	limit := 0
	if len(max) > 0 {
		limit = max[0]
	}
	n, err := migrate.ExecMax(sqlDB, dialect, source, dir, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migration, error: %v", err)
	}
	return n, nil
}

// migrationDialect maps the gorm dialector to the sql-migrate dialect and
// the embedded directory holding its migrations
func migrationDialect(db *gorm.DB) (string, string) {
	if db.Dialector.Name() == DialectSQLite {
		return "sqlite3", "migrations/sqlite3"
	}
	return "postgres", "migrations/postgres"
}
