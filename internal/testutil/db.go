// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing" // Test helpers

	"github.com/stretchr/testify/require" // Assertions
	"gorm.io/gorm"                        // GORM ORM library

	"notes_system/internal/config" // Driver names
	"notes_system/internal/db"     // Connection and migration
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DriverSQLite, "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() }) // Drop the database with the test
	require.NoError(t, db.Migrate(gdb))     // Same schema as production
	return gdb
}
