package reviews

import (
	"github.com/google/uuid"

	"github.com/pageturn/bookstore-backend/pkg/db/models"
)

// CreateReviewInput captures the fields of a new review.
type CreateReviewInput struct {
	UserID  uuid.UUID
	BookID  uuid.UUID
	Rating  int
	Comment string
}

// UpdateReviewInput carries the optional fields of a review update.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// ReviewList wraps a page of reviews plus the next page cursor.
type ReviewList struct {
	Reviews    []models.Review `json:"reviews"`
	NextCursor string          `json:"next_cursor,omitempty"`
}
