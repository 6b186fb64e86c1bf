package orders

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/internal/cart"
	"github.com/pageturn/bookstore-backend/pkg/db/models"
	"github.com/pageturn/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
	"github.com/pageturn/bookstore-backend/pkg/pagination"
	"github.com/pageturn/bookstore-backend/pkg/types"
)

type stubGateway struct {
	succeed bool
}

func (g stubGateway) Attempt() bool {
	return g.succeed
}

func (g stubGateway) Provider() string {
	return "simulated"
}

func (g stubGateway) Reference() string {
	return "PAY-1735689600000"
}

type testTx struct {
	db *gorm.DB
}

func (t *testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Book{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, gateway paymentGateway) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), cart.NewRepository(db), &testTx{db: db}, gateway)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedBook(t *testing.T, db *gorm.DB, title, price string, stock int) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:         title,
		Author:        "Author",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("seed book %s: %v", title, err)
	}
	return book
}

func seedCart(t *testing.T, db *gorm.DB, userID uuid.UUID, lines map[*models.Book]int) *models.Cart {
	t.Helper()
	userCart := &models.Cart{UserID: userID}
	if err := db.Create(userCart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for book, qty := range lines {
		item := &models.CartItem{CartID: userCart.ID, BookID: book.ID, Quantity: qty}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return userCart
}

func testAddress() types.Address {
	return types.Address{
		Line1:    "1 Main St",
		City:     "Springfield",
		Postcode: "12345",
		Country:  "US",
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})
	ctx := context.Background()
	userID := uuid.New()

	bookA := seedBook(t, db, "Dune", "15.50", 10)
	bookB := seedBook(t, db, "Hyperion", "12.25", 4)
	seedCart(t, db, userID, map[*models.Book]int{bookA: 2, bookB: 1})

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Status != enums.OrderStatusPaid || order.PaymentStatus != enums.PaymentStatusSuccess {
		t.Fatalf("unexpected order state %s/%s", order.Status, order.PaymentStatus)
	}
	if order.PaymentReference == nil || !strings.HasPrefix(*order.PaymentReference, "PAY-") {
		t.Fatalf("expected payment reference, got %v", order.PaymentReference)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("43.25")) {
		t.Fatalf("expected total 43.25, got %s", order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 snapshot lines, got %d", len(order.Items))
	}

	var gotA, gotB models.Book
	if err := db.First(&gotA, "id = ?", bookA.ID).Error; err != nil {
		t.Fatalf("load book a: %v", err)
	}
	if err := db.First(&gotB, "id = ?", bookB.ID).Error; err != nil {
		t.Fatalf("load book b: %v", err)
	}
	if gotA.StockQuantity != 8 || gotB.StockQuantity != 3 {
		t.Fatalf("unexpected stock %d/%d", gotA.StockQuantity, gotB.StockQuantity)
	}

	var remaining int64
	if err := db.Model(&models.CartItem{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("cart should be cleared, %d lines left", remaining)
	}
}

func TestPlaceOrderSnapshotSurvivesBookEdits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})
	ctx := context.Background()
	userID := uuid.New()

	book := seedBook(t, db, "Original Title", "20.00", 5)
	seedCart(t, db, userID, map[*models.Book]int{book: 1})

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{UserID: userID, ShippingAddress: testAddress()})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	err = db.Model(&models.Book{}).Where("id = ?", book.ID).
		Updates(map[string]any{"title": "Renamed", "price": "99.00"}).Error
	if err != nil {
		t.Fatalf("edit book: %v", err)
	}

	reloaded, err := svc.GetByID(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Items[0].BookTitle != "Original Title" {
		t.Fatalf("snapshot title changed: %s", reloaded.Items[0].BookTitle)
	}
	if !reloaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("snapshot price changed: %s", reloaded.Items[0].UnitPrice)
	}
}

func TestPlaceOrderPaymentFailureStillPersists(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: false})
	ctx := context.Background()
	userID := uuid.New()

	book := seedBook(t, db, "Dune", "15.50", 10)
	seedCart(t, db, userID, map[*models.Book]int{book: 2})

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("unexpected order state %s/%s", order.Status, order.PaymentStatus)
	}
	if order.PaymentReference != nil {
		t.Fatalf("failed payment must not carry a reference")
	}

	// Stock stays decremented and the cart stays cleared on payment failure.
	var got models.Book
	if err := db.First(&got, "id = ?", book.ID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if got.StockQuantity != 8 {
		t.Fatalf("expected stock 8 after failed payment, got %d", got.StockQuantity)
	}
	var remaining int64
	if err := db.Model(&models.CartItem{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("cart should be cleared, %d lines left", remaining)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})
	ctx := context.Background()
	userID := uuid.New()
	seedCart(t, db, userID, nil)

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{UserID: userID, ShippingAddress: testAddress()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("no order should exist, got %d", orderCount)
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})
	ctx := context.Background()
	userID := uuid.New()

	plentiful := seedBook(t, db, "Plentiful", "10.00", 100)
	scarce := seedBook(t, db, "Scarce", "10.00", 1)
	seedCart(t, db, userID, map[*models.Book]int{plentiful: 3, scarce: 2})

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{UserID: userID, ShippingAddress: testAddress()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if !strings.Contains(typed.Message(), "Scarce") {
		t.Fatalf("error should name the failing book, got %q", typed.Message())
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	// The reported quantity is the one the failed decrement observed, not the
	// cart preload.
	if details["available"] != 1 || details["requested"] != 2 {
		t.Fatalf("expected available 1 requested 2, got %v", details)
	}

	// The whole transaction rolls back: no order, stock untouched, cart intact.
	var orderCount, cartLines int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if err := db.Model(&models.CartItem{}).Count(&cartLines).Error; err != nil {
		t.Fatalf("count cart lines: %v", err)
	}
	if orderCount != 0 || cartLines != 2 {
		t.Fatalf("rollback failed: orders=%d cartLines=%d", orderCount, cartLines)
	}
	var got models.Book
	if err := db.First(&got, "id = ?", plentiful.ID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if got.StockQuantity != 100 {
		t.Fatalf("stock of earlier line must roll back, got %d", got.StockQuantity)
	}
}

func TestPlaceOrderRequiresAddress(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetByIDOwnership(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})
	ctx := context.Background()
	owner := uuid.New()

	book := seedBook(t, db, "Dune", "15.50", 10)
	seedCart(t, db, owner, map[*models.Book]int{book: 1})
	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{UserID: owner, ShippingAddress: testAddress()})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	_, err = svc.GetByID(ctx, uuid.New(), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	got, err := svc.GetByID(ctx, owner, order.ID)
	if err != nil {
		t.Fatalf("owner fetch: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("unexpected order %s", got.ID)
	}
}

func TestListByUserAndAdminList(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	book := seedBook(t, db, "Dune", "15.50", 100)
	for _, userID := range []uuid.UUID{alice, alice, bob} {
		seedCart(t, db, userID, nil)
		var userCart models.Cart
		if err := db.Where("user_id = ?", userID).First(&userCart).Error; err != nil {
			t.Fatalf("load cart: %v", err)
		}
		item := &models.CartItem{CartID: userCart.ID, BookID: book.ID, Quantity: 1}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("seed line: %v", err)
		}
		if _, err := svc.PlaceOrder(ctx, PlaceOrderInput{UserID: userID, ShippingAddress: testAddress()}); err != nil {
			t.Fatalf("place order: %v", err)
		}
		// Carts are unique per user; remove so the loop can reseed.
		if err := db.Delete(&userCart).Error; err != nil {
			t.Fatalf("drop cart: %v", err)
		}
	}

	mine, err := svc.ListByUser(ctx, alice, pagination.Params{})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine.Orders) != 2 {
		t.Fatalf("expected 2 orders for alice, got %d", len(mine.Orders))
	}

	all, err := svc.ListAll(ctx, pagination.Params{}, AdminFilters{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Orders) != 3 {
		t.Fatalf("expected 3 orders total, got %d", len(all.Orders))
	}

	paid := enums.OrderStatusPaid
	filtered, err := svc.ListAll(ctx, pagination.Params{}, AdminFilters{Status: &paid, UserID: &bob})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered.Orders) != 1 || filtered.Orders[0].UserID != bob {
		t.Fatalf("unexpected filtered result %+v", filtered.Orders)
	}
}

func TestUpdateStatusUncheckedTransition(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: true})
	ctx := context.Background()
	userID := uuid.New()

	book := seedBook(t, db, "Dune", "15.50", 10)
	seedCart(t, db, userID, map[*models.Book]int{book: 1})
	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{UserID: userID, ShippingAddress: testAddress()})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// Any valid status is accepted, including backwards moves.
	if _, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered); err != nil {
		t.Fatalf("forward update: %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPending)
	if err != nil {
		t.Fatalf("backward update: %v", err)
	}
	if updated.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", updated.Status)
	}

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatus("BOGUS"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHasUserPurchasedIgnoresStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, stubGateway{succeed: false})
	ctx := context.Background()
	userID := uuid.New()
	repo := NewRepository(db)

	book := seedBook(t, db, "Dune", "15.50", 10)
	seedCart(t, db, userID, map[*models.Book]int{book: 1})
	if _, err := svc.PlaceOrder(ctx, PlaceOrderInput{UserID: userID, ShippingAddress: testAddress()}); err != nil {
		t.Fatalf("place order: %v", err)
	}

	// Even a PENDING/FAILED order counts as a purchase.
	purchased, err := repo.HasUserPurchased(ctx, userID, book.ID)
	if err != nil {
		t.Fatalf("check purchase: %v", err)
	}
	if !purchased {
		t.Fatal("failed-payment order should still count as purchase")
	}

	other, err := repo.HasUserPurchased(ctx, uuid.New(), book.ID)
	if err != nil {
		t.Fatalf("check other user: %v", err)
	}
	if other {
		t.Fatal("other user has not purchased")
	}
}
