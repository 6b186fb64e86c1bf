package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/internal/cart"
	"github.com/pageturn/bookstore-backend/internal/inventory"
	"github.com/pageturn/bookstore-backend/pkg/db/models"
	"github.com/pageturn/bookstore-backend/pkg/enums"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
	"github.com/pageturn/bookstore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentGateway interface {
	Attempt() bool
	Provider() string
	Reference() string
}

// Service defines checkout plus the order read and admin operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters AdminFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo     Repository
	carts    cart.Repository
	tx       txRunner
	payments paymentGateway
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, carts cart.Repository, tx txRunner, payments paymentGateway) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{repo: repo, carts: carts, tx: tx, payments: payments}, nil
}

// PlaceOrder turns the user's cart into an order inside one transaction:
// stock is decremented line by line, the payment is attempted, and the cart
// is cleared. A failed payment still persists the order as PENDING/FAILED
// with stock kept decremented; only stock shortages roll everything back.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ShippingAddress.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	provider := input.PaymentProvider
	if provider == "" {
		provider = s.payments.Provider()
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)

		userCart, err := carts.FindByUserID(ctx, input.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		total := decimal.Zero
		lines := make([]models.OrderItem, 0, len(userCart.Items))
		for _, item := range userCart.Items {
			if item.Book == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "book not found").
					WithDetails(map[string]any{"book_id": item.BookID.String()})
			}
			if err := inventory.CheckAndDecrement(ctx, tx, item.BookID, item.Quantity); err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
					details := map[string]any{
						"book_id":   item.BookID.String(),
						"title":     item.Book.Title,
						"requested": item.Quantity,
					}
					// The cart preload is stale here; carry over the live
					// quantity the decrement just observed.
					if d, ok := typed.Details().(map[string]any); ok {
						if available, ok := d["available"]; ok {
							details["available"] = available
						}
					}
					return pkgerrors.New(pkgerrors.CodeInsufficientStock,
						fmt.Sprintf("insufficient stock for %q", item.Book.Title)).
						WithDetails(details)
				}
				return err
			}

			subtotal := item.Book.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(subtotal)
			lines = append(lines, models.OrderItem{
				BookID:    item.BookID,
				BookTitle: item.Book.Title,
				BookCover: item.Book.CoverImageURL,
				UnitPrice: item.Book.Price,
				Quantity:  item.Quantity,
				Subtotal:  subtotal,
			})
		}

		order := &models.Order{
			UserID:          input.UserID,
			TotalAmount:     total,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			PaymentProvider: provider,
			ShippingAddress: input.ShippingAddress,
			Items:           lines,
		}
		if s.payments.Attempt() {
			ref := s.payments.Reference()
			order.Status = enums.OrderStatusPaid
			order.PaymentStatus = enums.PaymentStatusSuccess
			order.PaymentReference = &ref
		} else {
			order.PaymentStatus = enums.PaymentStatusFailed
		}

		created, err := repo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		// The cart is cleared whether or not the payment went through.
		if err := carts.DeleteItemsByCart(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		placed = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *service) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters AdminFilters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// UpdateStatus sets the order status without constraining the transition;
// admins may move an order between any two states.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = status
	return order, nil
}
