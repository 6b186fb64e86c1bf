package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookstore-backend/pkg/enums"
	"github.com/pageturn/bookstore-backend/pkg/types"
)

// PlaceOrderInput captures the inputs of a checkout call.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	ShippingAddress types.Address
	PaymentProvider string
}

// AdminFilters describe the filter knobs of the admin order list.
type AdminFilters struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	CreatedAt     time.Time           `json:"created_at"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	TotalItems    int                 `json:"total_items"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
