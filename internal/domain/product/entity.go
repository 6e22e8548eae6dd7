package product

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog article (a style/color combination).
type Product struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	Code        string    `json:"code" gorm:"not null;uniqueIndex"`
	Color       string    `json:"color"`
	ColorNumber string    `json:"color_number"`
	Description string    `json:"description"`
	Format      string    `json:"format"`
	Style       string    `json:"style" gorm:"index"`
	StyleNumber string    `json:"style_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
