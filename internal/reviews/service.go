package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
	"github.com/pageturn/bookstore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

type purchaseChecker interface {
	HasUserPurchased(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
}

// Service defines review mutations and the per-book listing.
type Service interface {
	Create(ctx context.Context, input CreateReviewInput) (*models.Review, error)
	Update(ctx context.Context, userID, reviewID uuid.UUID, input UpdateReviewInput) (*models.Review, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
	ListByBook(ctx context.Context, bookID uuid.UUID, params pagination.Params) (*ReviewList, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	books     bookLoader
	purchases purchaseChecker
}

// NewService builds a review service with the required dependencies.
func NewService(repo Repository, tx txRunner, books bookLoader, purchases purchaseChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	if purchases == nil {
		return nil, fmt.Errorf("purchase checker required")
	}
	return &service{repo: repo, tx: tx, books: books, purchases: purchases}, nil
}

func (s *service) Create(ctx context.Context, input CreateReviewInput) (*models.Review, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.BookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	if _, err := s.books.FindByID(ctx, input.BookID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}

	purchased, err := s.purchases.HasUserPurchased(ctx, input.UserID, input.BookID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase")
	}
	if !purchased {
		return nil, pkgerrors.New(pkgerrors.CodePurchaseRequired, "book must be purchased before reviewing")
	}

	review := &models.Review{
		UserID:  input.UserID,
		BookID:  input.BookID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		return Recompute(ctx, tx, input.BookID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) Update(ctx context.Context, userID, reviewID uuid.UUID, input UpdateReviewInput) (*models.Review, error) {
	review, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
		}
		updates["rating"] = *input.Rating
	}
	if input.Comment != nil {
		updates["comment"] = *input.Comment
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Updates(ctx, review.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
		return Recompute(ctx, tx, review.BookID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, review.ID)
}

func (s *service) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	review, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(ctx, review.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		return Recompute(ctx, tx, review.BookID)
	})
}

func (s *service) ListByBook(ctx context.Context, bookID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	list, err := s.repo.ListByBook(ctx, bookID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}

func (s *service) ownedReview(ctx context.Context, userID, reviewID uuid.UUID) (*models.Review, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if reviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}
	return review, nil
}
