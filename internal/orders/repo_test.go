package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
	"github.com/pageturn/bookstore-backend/pkg/enums"
	"github.com/pageturn/bookstore-backend/pkg/pagination"
)

func seedOrder(t *testing.T, db *gorm.DB, userID, bookID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("31.00"),
		Status:          enums.OrderStatusPaid,
		PaymentStatus:   enums.PaymentStatusSuccess,
		PaymentProvider: "simulated",
		CreatedAt:       createdAt,
		Items: []models.OrderItem{
			{
				BookID:    bookID,
				BookTitle: "Seeded Title",
				UnitPrice: decimal.RequireFromString("15.50"),
				Quantity:  2,
				Subtotal:  decimal.RequireFromString("31.00"),
			},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	bookID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, userID, bookID, base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, db, uuid.New(), bookID, base)

	first, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Orders[0].CreatedAt.After(first.Orders[1].CreatedAt))
	assert.Equal(t, 2, first.Orders[0].TotalItems)

	second, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, userID, second.Orders[0].UserID)
}

func TestRepositoryListAllFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	bookID := uuid.New()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	paid := seedOrder(t, db, userID, bookID, base)
	pending := seedOrder(t, db, uuid.New(), bookID, base.Add(time.Minute))
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", pending.ID).
		Update("status", enums.OrderStatusPending).Error)

	status := enums.OrderStatusPaid
	byStatus, err := repo.ListAll(ctx, pagination.Params{}, AdminFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, byStatus.Orders, 1)
	assert.Equal(t, paid.ID, byStatus.Orders[0].ID)

	byUser, err := repo.ListAll(ctx, pagination.Params{}, AdminFilters{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, byUser.Orders, 1)
	assert.Equal(t, userID, byUser.Orders[0].UserID)
}

func TestRepositoryHasUserPurchased(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	bookID := uuid.New()
	otherBook := uuid.New()
	seedOrder(t, db, userID, bookID, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	purchased, err := repo.HasUserPurchased(ctx, userID, bookID)
	require.NoError(t, err)
	assert.True(t, purchased)

	purchased, err = repo.HasUserPurchased(ctx, userID, otherBook)
	require.NoError(t, err)
	assert.False(t, purchased)
}

func TestRepositoryDeleteByUserLeavesOthers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	bookID := uuid.New()
	base := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	seedOrder(t, db, userID, bookID, base)
	kept := seedOrder(t, db, otherID, bookID, base.Add(time.Minute))

	require.NoError(t, repo.DeleteByUser(ctx, userID))

	var orders []models.Order
	require.NoError(t, db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, kept.ID, orders[0].ID)

	var items []models.OrderItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, kept.ID, items[0].OrderID)
}
