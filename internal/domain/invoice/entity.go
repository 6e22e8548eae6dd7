package invoice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"claimdesk/internal/domain/client"
	"claimdesk/internal/domain/product"
)

type Invoice struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey"`
	InvoiceNumber string    `json:"invoice_number" gorm:"not null;uniqueIndex"`
	ClientID      string    `json:"client_id" gorm:"type:uuid;not null;index"`
	InvoiceDate   time.Time `json:"invoice_date" gorm:"not null;index"`
	Currency      string    `json:"currency" gorm:"type:varchar(8);not null;default:'USD'"`
	ExchangeRate  *float64  `json:"exchange_rate"`
	TotalAmount   float64   `json:"total_amount" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Client *client.Client `json:"client,omitempty" gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Items  []Item         `json:"items,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Item is one invoice line. Selling prices are what a claimed line is checked against.
type Item struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey"`
	InvoiceID        string    `json:"invoice_id" gorm:"type:uuid;not null;index"`
	ProductID        string    `json:"product_id" gorm:"type:uuid;not null;index"`
	ShippingCode     *string   `json:"shipping_code"`
	ItemDescription  string    `json:"item_description"`
	UnitCostPrice    float64   `json:"unit_cost_price"`
	UnitSellingPrice float64   `json:"unit_selling_price"`
	Quantity         float64   `json:"quantity"`
	TotalCost        float64   `json:"total_cost"`
	TotalPrice       float64   `json:"total_price"`
	TotalProfit      float64   `json:"total_profit"`
	ProfitPercentage float64   `json:"profit_percentage"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Product *product.Product `json:"product,omitempty" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (Item) TableName() string {
	return "invoice_items"
}

func (i *Item) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
