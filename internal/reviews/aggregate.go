package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
)

// Recompute rescans every review of the book and rewrites the derived
// rating_average and rating_count columns inside the caller's transaction.
// A book with no reviews goes back to zero on both.
func Recompute(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}

	var row struct {
		Avg   float64
		Count int64
	}
	err := tx.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(&row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
	}

	err = tx.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Updates(map[string]any{
			"rating_average": row.Avg,
			"rating_count":   row.Count,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write book rating")
	}
	return nil
}
