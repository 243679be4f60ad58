package database

import (
	"fmt"
	"log/slog"
)

// NewMediaStore opens the media store of the given type. For "sqlite" the
// connection string is the database DSN, for "directory" it is the directory path.
func NewMediaStore(storeType, connectionString string) (MediaStore, error) {
	switch storeType {
	case "sqlite":
		database, err := NewSQLiteDatabase(connectionString)
		if err != nil {
			return nil, err
		}
		// schema creation is idempotent, important for in-memory SQLite
		slog.Info("initializing media store schema (ensuring tables exist)")
		if _, err = database.CreateDatabase(); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		return database, nil
	case "directory":
		return NewDirectoryMediaStore(connectionString)
	default:
		return nil, fmt.Errorf("unsupported media store type: %s", storeType)
	}
}
