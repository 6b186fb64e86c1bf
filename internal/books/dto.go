package books

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	CategoryID *uuid.UUID       `json:"category_id,omitempty"`
	PriceMin   *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax   *decimal.Decimal `json:"price_max,omitempty"`
	Query      string           `json:"q,omitempty"`
}

// BookList wraps a page of books plus the next page cursor.
type BookList struct {
	Books      []models.Book `json:"books"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// CreateBookInput carries the fields accepted when an admin adds a book.
type CreateBookInput struct {
	Title         string
	Author        string
	Description   *string
	ISBN          *string
	Price         decimal.Decimal
	CoverImageURL *string
	StockQuantity int
	CategoryID    *uuid.UUID
}

// UpdateBookInput carries the optional fields of an admin book update; nil
// fields are left untouched.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	Description   *string
	ISBN          *string
	Price         *decimal.Decimal
	CoverImageURL *string
	StockQuantity *int
	CategoryID    *uuid.UUID
}
