package claim

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"claimdesk/internal/domain/client"
)

// Status is a claim pipeline stage. Statuses lists them in pipeline order.
type Status string

const (
	StatusNew         Status = "New"
	StatusScreening   Status = "Screening"
	StatusAnalyzing   Status = "Analyzing"
	StatusNegotiation Status = "Negotiation"
	StatusAccepted    Status = "Accepted"
	StatusClosed      Status = "Closed"
)

var Statuses = []Status{StatusNew, StatusScreening, StatusAnalyzing, StatusNegotiation, StatusAccepted, StatusClosed}

// IsResolved reports whether no further work is expected on the claim.
func (s Status) IsResolved() bool {
	return s == StatusAccepted || s == StatusClosed
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Department string

const (
	DepartmentCustomerService        Department = "Customer Service"
	DepartmentSales                  Department = "Sales"
	DepartmentProductionBelleville   Department = "Production Belleville"
	DepartmentProductionSaintGeorges Department = "Production Saint-Georges"
)

var Departments = []Department{
	DepartmentCustomerService,
	DepartmentSales,
	DepartmentProductionBelleville,
	DepartmentProductionSaintGeorges,
}

func (d Department) Valid() bool {
	for _, v := range Departments {
		if d == v {
			return true
		}
	}
	return false
}

// Category is the root-cause taxonomy of a claim.
type Category string

const (
	CategoryManufacturingDefect     Category = "Manufacturing Defect"
	CategoryShippingIssue           Category = "Shipping Issue"
	CategoryAppearanceOrPerformance Category = "Appearance or Performance"
)

var Categories = []Category{CategoryManufacturingDefect, CategoryShippingIssue, CategoryAppearanceOrPerformance}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type ProductCategory string

const (
	ProductCategoryTiles     ProductCategory = "Tiles"
	ProductCategoryBroadloom ProductCategory = "Broadloom"
)

func (p ProductCategory) Valid() bool {
	return p == ProductCategoryTiles || p == ProductCategoryBroadloom
}

// Claim is a customer-submitted issue tracked to financial resolution.
//
// SavedAmount always equals ClaimedAmount - SolutionAmount and AlertCount
// always equals len(Alerts); both are derived on every write and are never
// taken from input.
type Claim struct {
	ID               string                     `json:"id" gorm:"type:uuid;primaryKey"`
	ClaimNumber      string                     `json:"claim_number" gorm:"type:varchar(16);not null;uniqueIndex"`
	ClientID         string                     `json:"client_id" gorm:"type:uuid;not null;index"`
	CreationDate     time.Time                  `json:"creation_date" gorm:"not null;index"`
	Status           Status                     `json:"status" gorm:"type:varchar(32);not null;index"`
	Department       Department                 `json:"department" gorm:"type:varchar(64);not null"`
	ClaimCategory    Category                   `json:"claim_category" gorm:"type:varchar(64);not null"`
	ProductCategory  ProductCategory            `json:"product_category" gorm:"type:varchar(32);not null"`
	IdentifiedCause  *string                    `json:"identified_cause"`
	Description      *string                    `json:"description"`
	Installed        bool                       `json:"installed" gorm:"not null;default:false"`
	InstallationDate *time.Time                 `json:"installation_date"`
	InstallerName    *string                    `json:"installer_name"`
	InvoiceLink      *string                    `json:"invoice_link"`
	AssignedTo       *string                    `json:"assigned_to"`
	ClaimedAmount    float64                    `json:"claimed_amount" gorm:"not null;default:0"`
	SolutionAmount   float64                    `json:"solution_amount" gorm:"not null;default:0"`
	SavedAmount      float64                    `json:"saved_amount" gorm:"not null;default:0"`
	LastUpdated      time.Time                  `json:"last_updated"`
	Alerts           datatypes.JSONSlice[Alert] `json:"alerts"`
	AlertCount       int                        `json:"alert_count" gorm:"not null;default:0"`
	LastAlertCheck   *time.Time                 `json:"last_alert_check"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`

	Client    *client.Client `json:"client,omitempty" gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Products  []Product      `json:"products,omitempty" gorm:"foreignKey:ClaimID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Documents []Document     `json:"documents,omitempty" gorm:"foreignKey:ClaimID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Claim) TableName() string {
	return "claims"
}

func (c *Claim) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps the derived columns consistent with their sources.
func (c *Claim) BeforeSave(_ *gorm.DB) error {
	c.derive()
	return nil
}

func (c *Claim) derive() {
	if c.Alerts == nil {
		c.Alerts = datatypes.JSONSlice[Alert]{}
	}
	c.AlertCount = len(c.Alerts)
	c.SavedAmount = c.ClaimedAmount - c.SolutionAmount
}

// ClientName returns the joined client name, or "" when the client was not loaded.
func (c *Claim) ClientName() string {
	if c.Client == nil {
		return ""
	}
	return c.Client.Name
}

// clone returns a copy that shares no mutable state with c.
func (c Claim) clone() Claim {
	out := c
	if c.Alerts != nil {
		out.Alerts = append(datatypes.JSONSlice[Alert]{}, c.Alerts...)
	}
	if c.Products != nil {
		out.Products = append([]Product(nil), c.Products...)
	}
	if c.Documents != nil {
		out.Documents = append([]Document(nil), c.Documents...)
	}
	if c.Client != nil {
		cl := *c.Client
		out.Client = &cl
	}
	return out
}

// Product is a claim line item.
type Product struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey"`
	ClaimID         string    `json:"claim_id" gorm:"type:uuid;not null;index"`
	Description     string    `json:"description"`
	Style           string    `json:"style"`
	Color           string    `json:"color"`
	Quantity        float64   `json:"quantity" gorm:"not null;default:0"`
	PricePerSY      float64   `json:"price_per_sy" gorm:"column:price_per_sy;not null;default:0"`
	TotalPrice      float64   `json:"total_price" gorm:"not null;default:0"`
	ClaimedQuantity float64   `json:"claimed_quantity" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "claim_products"
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Key identifies the line in alert details.
func (p Product) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Style + "/" + p.Color
}

type DocumentType string

const (
	DocumentImage    DocumentType = "image"
	DocumentDocument DocumentType = "document"
	DocumentEmail    DocumentType = "email"
)

// Document is an attachment on a claim.
type Document struct {
	ID         string       `json:"id" gorm:"type:uuid;primaryKey"`
	ClaimID    string       `json:"claim_id" gorm:"type:uuid;not null;index"`
	Name       string       `json:"name" gorm:"not null"`
	Type       DocumentType `json:"type" gorm:"type:varchar(16);not null"`
	URL        string       `json:"url" gorm:"not null"`
	UploadDate time.Time    `json:"upload_date"`
	Category   *string      `json:"category"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (Document) TableName() string {
	return "claim_documents"
}

func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Totals is the financial roll-up of a claim list.
type Totals struct {
	TotalSolution float64 `json:"total_solution"`
	TotalClaimed  float64 `json:"total_claimed"`
	TotalSaved    float64 `json:"total_saved"`
}
