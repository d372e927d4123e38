// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"jam/internal/db"
	"jam/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// NewUser inserts a user and returns its id.
func NewUser(t *testing.T, gdb *gorm.DB, email string, admin bool) uint64 {
	t.Helper()

	u := models.User{Email: email, PasswordHash: "x", IsAdmin: admin}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

// Logger returns a logger that writes through t.Log.
func Logger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
