package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The full model set must migrate on sqlite: package tests run against
// in-memory sqlite databases, so postgres-only DDL in a gorm tag would break
// every suite at setup.
func TestAutoMigrateAllModels(t *testing.T) {
	t.Parallel()

	dsn := "file:models_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	err = db.AutoMigrate(
		&User{},
		&Category{},
		&Book{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Review{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Inserts still get ids without a database-side default.
	book := &Book{
		Title:         "Migration Smoke",
		Author:        "Author",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 1,
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("create book: %v", err)
	}
	if book.ID == uuid.Nil {
		t.Fatal("expected BeforeCreate to assign an id")
	}
}
