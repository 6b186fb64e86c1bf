package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one book line in the cart view. Price and subtotal reflect the
// live catalog price, not the price at the time the line was added.
type CartLine struct {
	ItemID        uuid.UUID       `json:"item_id"`
	BookID        uuid.UUID       `json:"book_id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	CoverImageURL *string         `json:"cover_image_url,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	StockQuantity int             `json:"stock_quantity"`
}

// CartView is the cart as returned to callers, with the total recomputed
// from live prices on every read.
type CartView struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Items      []CartLine      `json:"items"`
	TotalItems int             `json:"total_items"`
	Total      decimal.Decimal `json:"total"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
