package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book represents a catalog entry. RatingAverage and RatingCount are derived
// from the book's live review set and rewritten on every review mutation.
type Book struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title         string          `gorm:"column:title;not null"`
	Author        string          `gorm:"column:author;not null"`
	Description   *string         `gorm:"column:description"`
	ISBN          *string         `gorm:"column:isbn"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CoverImageURL *string         `gorm:"column:cover_image_url"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0;check:stock_quantity >= 0"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Category      *Category       `gorm:"foreignKey:CategoryID"`
	RatingAverage float64         `gorm:"column:rating_average;not null;default:0"`
	RatingCount   int             `gorm:"column:rating_count;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Book) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
