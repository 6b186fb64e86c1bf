package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookstore-backend/internal/reviews"
	"github.com/pageturn/bookstore-backend/pkg/config"
	"github.com/pageturn/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
	"github.com/pageturn/bookstore-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartRemover deletes a user's cart during the account cascade.
type CartRemover interface {
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// OrderRemover deletes a user's orders during the account cascade.
type OrderRemover interface {
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// ReviewRemover deletes a user's reviews during the account cascade.
type ReviewRemover interface {
	ListReviewedBookIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// Service exposes profile operations and the account deletion cascade.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// CascadeDeps groups the sibling-domain repositories the deletion cascade
// touches. Each is rebound to the cascade transaction before use.
type CascadeDeps struct {
	Carts   func(tx *gorm.DB) CartRemover
	Orders  func(tx *gorm.DB) OrderRemover
	Reviews func(tx *gorm.DB) ReviewRemover
}

type service struct {
	repo        *Repository
	tx          txRunner
	passwordCfg config.PasswordConfig
	cascade     CascadeDeps
}

// NewService builds a users service with the required dependencies.
func NewService(repo *Repository, tx txRunner, passwordCfg config.PasswordConfig, cascade CascadeDeps) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cascade.Carts == nil || cascade.Orders == nil || cascade.Reviews == nil {
		return nil, fmt.Errorf("cascade dependencies required")
	}
	return &service{repo: repo, tx: tx, passwordCfg: passwordCfg, cascade: cascade}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name required")
		}
		updates["first_name"] = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name required")
		}
		updates["last_name"] = name
	}

	if err := s.repo.Updates(ctx, user.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.GetProfile(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if len(input.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must be at least 8 characters")
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInvalidCredential, "current password is incorrect")
	}

	hash, err := security.HashPassword(input.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hash password")
	}
	if err := s.repo.Updates(ctx, user.ID, map[string]any{"password_hash": hash}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store password")
	}
	return nil
}

// DeleteAccount removes the user and everything hanging off the account in
// one transaction: cart, orders, reviews, then the user row. Books the user
// had reviewed get their rating recomputed once each. Stock sold to the user
// is not restored.
func (s *service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.cascade.Carts(tx).DeleteByUserID(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}
		if err := s.cascade.Orders(tx).DeleteByUser(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete orders")
		}

		reviewRepo := s.cascade.Reviews(tx)
		affected, err := reviewRepo.ListReviewedBookIDs(ctx, user.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect reviewed books")
		}
		if err := reviewRepo.DeleteByUser(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reviews")
		}
		for _, bookID := range affected {
			if err := reviews.Recompute(ctx, tx, bookID); err != nil {
				return err
			}
		}

		if err := s.repo.WithTx(tx).Delete(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
