package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

// Service exposes cart operations for a single user.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo  Repository
	tx    txRunner
	books bookLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, books bookLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	return &service{repo: repo, tx: tx, books: books}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.loadOrCreate(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return buildView(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		book, err := s.books.FindByID(ctx, bookID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
		}

		existing, err := repo.FindItem(ctx, cart.ID, bookID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		// The stock check covers what is already in the cart plus the new
		// quantity, and nothing is written when it fails.
		requested := qty
		if existing != nil {
			requested += existing.Quantity
		}
		if requested > book.StockQuantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"book_id":   bookID.String(),
					"requested": requested,
					"available": book.StockQuantity,
				})
		}

		if existing != nil {
			return repo.UpdateItemQuantity(ctx, existing.ID, requested)
		}
		return repo.CreateItem(ctx, &models.CartItem{
			CartID:   cart.ID,
			BookID:   bookID,
			Quantity: qty,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrCreate(ctx, userID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}

		// Zero or negative quantity removes the line.
		if qty <= 0 {
			return repo.DeleteItem(ctx, item.ID)
		}

		book, err := s.books.FindByID(ctx, item.BookID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
		}
		if qty > book.StockQuantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"book_id":   item.BookID.String(),
					"requested": qty,
					"available": book.StockQuantity,
				})
		}
		return repo.UpdateItemQuantity(ctx, item.ID, qty)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrCreate(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		return repo.DeleteItem(ctx, item.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrCreate(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		return repo.DeleteItemsByCart(ctx, cart.ID)
	})
}

func (s *service) loadOrCreate(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	created, err := repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) ownedItem(ctx context.Context, repo Repository, userID, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	item, err := repo.FindItemByID(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if item.CartID != cart.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item does not belong to user")
	}
	return item, nil
}

func buildView(cart *models.Cart) *CartView {
	view := &CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]CartLine, 0, len(cart.Items)),
		Total:     decimal.Zero,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		if item.Book == nil {
			continue
		}
		subtotal := item.Book.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, CartLine{
			ItemID:        item.ID,
			BookID:        item.BookID,
			Title:         item.Book.Title,
			Author:        item.Book.Author,
			CoverImageURL: item.Book.CoverImageURL,
			UnitPrice:     item.Book.Price,
			Quantity:      item.Quantity,
			Subtotal:      subtotal,
			StockQuantity: item.Book.StockQuantity,
		})
		view.TotalItems += item.Quantity
		view.Total = view.Total.Add(subtotal)
	}
	return view
}
