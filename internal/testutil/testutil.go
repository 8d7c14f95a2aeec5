package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/snnyvrz/booklibrary/internal/db"
	"github.com/snnyvrz/booklibrary/internal/model"
)

// NewTestDB opens a private in-memory sqlite database with the books table
// migrated. It is closed when the test finishes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb := NewEmptyTestDB(t)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return gdb
}

// NewEmptyTestDB is NewTestDB without migrations, so every query against the
// books table fails.
func NewEmptyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:testdb_" + uuid.New().String() + "?mode=memory&cache=shared"

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return gdb
}

func SeedBook(t *testing.T, gdb *gorm.DB, name, author string, year int, bookType string, status ...string) model.Book {
	t.Helper()

	book := model.New(name, author, year, bookType, status...)
	if err := gdb.Create(book).Error; err != nil {
		t.Fatalf("failed to seed book %q: %v", name, err)
	}

	return *book
}

func CountBooks(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := gdb.Model(&model.Book{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count books: %v", err)
	}
	return n
}
