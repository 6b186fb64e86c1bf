package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:db_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Book{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func testBook(title string) *models.Book {
	return &models.Book{
		Title:         title,
		Author:        "Author",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: 3,
	}
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	client := &Client{conn: db}
	ctx := context.Background()

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(testBook("Committed")).Error
	}); err != nil {
		t.Fatalf("commit tx: %v", err)
	}

	var count int64
	if err := db.Model(&models.Book{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 book, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(testBook("Rolled Back")).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&models.Book{}).Count(&count).Error; err != nil {
		t.Fatalf("count after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 book, got %d", count)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	client := &Client{conn: newTestDB(t)}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := &models.User{
		Email:        "dup@example.com",
		PasswordHash: "hash",
		FirstName:    "Dup",
		LastName:     "User",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	err := db.Create(&models.User{
		Email:        "dup@example.com",
		PasswordHash: "hash",
		FirstName:    "Dup",
		LastName:     "Again",
	}).Error
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error must not be a unique violation")
	}
}
