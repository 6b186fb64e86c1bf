package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/internal/books"
	"github.com/pageturn/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:categories_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Book{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), books.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestCreateListAndGet(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "History"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Art"}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	rows, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Art" {
		t.Fatalf("expected name-sorted list, got %+v", rows)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "History" {
		t.Fatalf("unexpected category %+v", got)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "History"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, CreateCategoryInput{Name: "History"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "Histroy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fixed := "History"
	updated, err := svc.Update(ctx, created.ID, UpdateCategoryInput{Name: &fixed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "History" {
		t.Fatalf("unexpected name %q", updated.Name)
	}
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "Poetry"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	book := &models.Book{
		Title:      "Leaves of Grass",
		Author:     "Walt Whitman",
		Price:      decimal.NewFromInt(9),
		CategoryID: &created.ID,
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}

	err = svc.Delete(ctx, created.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while referenced, got %v", err)
	}

	if err := db.Delete(book).Error; err != nil {
		t.Fatalf("remove book: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete after unreference: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}
