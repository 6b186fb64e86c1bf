package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
)

// CheckAndDecrement removes qty units of stock from the given book inside the
// caller's transaction. The check and the write are a single conditional
// UPDATE, so concurrent orders can never drive stock below zero.
func CheckAndDecrement(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND stock_quantity >= ?", bookID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Zero rows means either a missing book or not enough stock; read the live
	// quantity once to tell the two apart and report what is actually left.
	var stock []int
	if err := tx.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Pluck("stock_quantity", &stock).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check book existence")
	}
	if len(stock) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found").
			WithDetails(map[string]any{"book_id": bookID.String()})
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"book_id":   bookID.String(),
			"requested": qty,
			"available": stock[0],
		})
}

// Restore adds qty units of stock back to the given book inside the caller's
// transaction.
func Restore(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found").
			WithDetails(map[string]any{"book_id": bookID.String()})
	}
	return nil
}
