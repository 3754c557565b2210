package db

import (
	"fmt"
	"strings"

	"github.com/habiliai/botruntime/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens the sqlite database at path. ":memory:" yields a private
// in-memory database bound to a single connection.
func OpenDB(path string) (*gorm.DB, error) {
	inMemory := path == ":memory:" || strings.Contains(path, "mode=memory")

	dsn := path
	if !inMemory && !strings.HasPrefix(path, "file:") {
		dsn = fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database at %s", path)
	}

	if inMemory {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get db")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrapf(err, "failed to get db")
	}
	if err := sqlDB.Close(); err != nil {
		return errors.Wrapf(err, "failed to close db")
	}

	return nil
}
