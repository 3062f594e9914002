package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenMemory opens a private, migrated in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := Open(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// a single connection keeps the shared-cache database alive and makes
	// transactions serialize instead of failing with "table is locked"
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
