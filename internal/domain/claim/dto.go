package claim

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"claimdesk/internal/pkg/validator"
)

// Amount decodes a JSON number or numeric string. Anything else becomes 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(coerceNumber(v))
	return nil
}

func coerceNumber(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Flag decodes booleans sent as true/false, "yes"/"no", "1"/"0", "on"/"off" or numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*f = false
		return nil
	}
	switch x := v.(type) {
	case bool:
		*f = Flag(x)
	case float64:
		*f = x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1", "on", "y":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp normalizes the accepted date spellings to UTC.
func parseTimestamp(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid(field, "invalid date %q", s)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CreateClaimRequest is the body of POST /claims.
type CreateClaimRequest struct {
	ClaimNumber      string  `json:"claim_number" validate:"omitempty,claimnumber"`
	ClientID         string  `json:"client_id" validate:"required"`
	CreationDate     string  `json:"creation_date"`
	Status           string  `json:"status"`
	Department       string  `json:"department" validate:"required"`
	ClaimCategory    string  `json:"claim_category" validate:"required"`
	ProductCategory  string  `json:"product_category" validate:"required"`
	IdentifiedCause  string  `json:"identified_cause"`
	Description      string  `json:"description"`
	Installed        Flag    `json:"installed"`
	InstallationDate string  `json:"installation_date"`
	InstallerName    string  `json:"installer_name"`
	InvoiceLink      string  `json:"invoice_link"`
	AssignedTo       string  `json:"assigned_to"`
	ClaimedAmount    Amount  `json:"claimed_amount"`
	SolutionAmount   Amount  `json:"solution_amount"`
	Alerts           []Alert `json:"alerts"`
}

// ClaimInput is a sanitized create request.
type ClaimInput struct {
	ClaimNumber      string
	ClientID         string
	CreationDate     time.Time
	Status           Status
	Department       Department
	ClaimCategory    Category
	ProductCategory  ProductCategory
	IdentifiedCause  *string
	Description      *string
	Installed        bool
	InstallationDate *time.Time
	InstallerName    *string
	InvoiceLink      *string
	AssignedTo       *string
	ClaimedAmount    float64
	SolutionAmount   float64
	Alerts           []Alert
}

// Input trims strings, parses dates and applies defaults.
func (r *CreateClaimRequest) Input() (ClaimInput, error) {
	in := ClaimInput{
		ClaimNumber:     strings.TrimSpace(r.ClaimNumber),
		ClientID:        strings.TrimSpace(r.ClientID),
		Status:          Status(strings.TrimSpace(r.Status)),
		Department:      Department(strings.TrimSpace(r.Department)),
		ClaimCategory:   Category(strings.TrimSpace(r.ClaimCategory)),
		ProductCategory: ProductCategory(strings.TrimSpace(r.ProductCategory)),
		IdentifiedCause: optionalString(r.IdentifiedCause),
		Description:     optionalString(r.Description),
		Installed:       bool(r.Installed),
		InstallerName:   optionalString(r.InstallerName),
		InvoiceLink:     optionalString(r.InvoiceLink),
		AssignedTo:      optionalString(r.AssignedTo),
		ClaimedAmount:   float64(r.ClaimedAmount),
		SolutionAmount:  float64(r.SolutionAmount),
		Alerts:          r.Alerts,
	}
	if in.Status == "" {
		in.Status = StatusNew
	}
	if in.Alerts == nil {
		in.Alerts = []Alert{}
	}

	if strings.TrimSpace(r.CreationDate) != "" {
		t, err := parseTimestamp("creation_date", r.CreationDate)
		if err != nil {
			return ClaimInput{}, err
		}
		in.CreationDate = t
	}
	if strings.TrimSpace(r.InstallationDate) != "" {
		t, err := parseTimestamp("installation_date", r.InstallationDate)
		if err != nil {
			return ClaimInput{}, err
		}
		in.InstallationDate = &t
	}
	return in, nil
}

func (in ClaimInput) claim() *Claim {
	return &Claim{
		ClaimNumber:      in.ClaimNumber,
		ClientID:         in.ClientID,
		CreationDate:     in.CreationDate,
		Status:           in.Status,
		Department:       in.Department,
		ClaimCategory:    in.ClaimCategory,
		ProductCategory:  in.ProductCategory,
		IdentifiedCause:  in.IdentifiedCause,
		Description:      in.Description,
		Installed:        in.Installed,
		InstallationDate: in.InstallationDate,
		InstallerName:    in.InstallerName,
		InvoiceLink:      in.InvoiceLink,
		AssignedTo:       in.AssignedTo,
		ClaimedAmount:    in.ClaimedAmount,
		SolutionAmount:   in.SolutionAmount,
		Alerts:           append([]Alert{}, in.Alerts...),
	}
}

// UpdateClaimRequest is the body of PATCH /claims/:id. Absent fields are
// left alone. saved_amount and alert_count are derived and not accepted.
type UpdateClaimRequest struct {
	ClaimNumber      *string  `json:"claim_number" validate:"omitempty,claimnumber"`
	CreationDate     *string  `json:"creation_date"`
	Status           *string  `json:"status"`
	Department       *string  `json:"department"`
	ClaimCategory    *string  `json:"claim_category"`
	ProductCategory  *string  `json:"product_category"`
	IdentifiedCause  *string  `json:"identified_cause"`
	Description      *string  `json:"description"`
	Installed        *Flag    `json:"installed"`
	InstallationDate *string  `json:"installation_date"`
	InstallerName    *string  `json:"installer_name"`
	InvoiceLink      *string  `json:"invoice_link"`
	AssignedTo       *string  `json:"assigned_to"`
	ClaimedAmount    *Amount  `json:"claimed_amount"`
	SolutionAmount   *Amount  `json:"solution_amount"`
	Alerts           *[]Alert `json:"alerts"`
}

// ClaimPatch holds the fields to overwrite. A nil field is not touched.
// For the optional text fields an empty string clears the column; a zero
// InstallationDate clears the installation date.
type ClaimPatch struct {
	ClaimNumber      *string
	CreationDate     *time.Time
	Status           *Status
	Department       *Department
	ClaimCategory    *Category
	ProductCategory  *ProductCategory
	IdentifiedCause  *string
	Description      *string
	Installed        *bool
	InstallationDate *time.Time
	InstallerName    *string
	InvoiceLink      *string
	AssignedTo       *string
	ClaimedAmount    *float64
	SolutionAmount   *float64
	Alerts           *[]Alert
}

// Patch sanitizes the fields present in the request.
func (r *UpdateClaimRequest) Patch() (ClaimPatch, error) {
	var p ClaimPatch

	if r.ClaimNumber != nil {
		v := strings.TrimSpace(*r.ClaimNumber)
		p.ClaimNumber = &v
	}
	if r.CreationDate != nil {
		t, err := parseTimestamp("creation_date", *r.CreationDate)
		if err != nil {
			return ClaimPatch{}, err
		}
		p.CreationDate = &t
	}
	if r.Status != nil {
		v := Status(strings.TrimSpace(*r.Status))
		p.Status = &v
	}
	if r.Department != nil {
		v := Department(strings.TrimSpace(*r.Department))
		p.Department = &v
	}
	if r.ClaimCategory != nil {
		v := Category(strings.TrimSpace(*r.ClaimCategory))
		p.ClaimCategory = &v
	}
	if r.ProductCategory != nil {
		v := ProductCategory(strings.TrimSpace(*r.ProductCategory))
		p.ProductCategory = &v
	}
	p.IdentifiedCause = trimmedPtr(r.IdentifiedCause)
	p.Description = trimmedPtr(r.Description)
	p.InstallerName = trimmedPtr(r.InstallerName)
	p.InvoiceLink = trimmedPtr(r.InvoiceLink)
	p.AssignedTo = trimmedPtr(r.AssignedTo)
	if r.Installed != nil {
		v := bool(*r.Installed)
		p.Installed = &v
	}
	if r.InstallationDate != nil {
		var t time.Time
		if strings.TrimSpace(*r.InstallationDate) != "" {
			parsed, err := parseTimestamp("installation_date", *r.InstallationDate)
			if err != nil {
				return ClaimPatch{}, err
			}
			t = parsed
		}
		p.InstallationDate = &t
	}
	if r.ClaimedAmount != nil {
		v := float64(*r.ClaimedAmount)
		p.ClaimedAmount = &v
	}
	if r.SolutionAmount != nil {
		v := float64(*r.SolutionAmount)
		p.SolutionAmount = &v
	}
	if r.Alerts != nil {
		alerts := append([]Alert{}, (*r.Alerts)...)
		p.Alerts = &alerts
	}
	return p, nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// IsEmpty reports whether the patch sets nothing.
func (p ClaimPatch) IsEmpty() bool {
	return p == ClaimPatch{}
}

// Apply overwrites the fields set in p. It does not touch derived columns;
// those are recomputed when the claim is saved.
func (p ClaimPatch) Apply(c *Claim) {
	if p.ClaimNumber != nil {
		c.ClaimNumber = *p.ClaimNumber
	}
	if p.CreationDate != nil {
		c.CreationDate = *p.CreationDate
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Department != nil {
		c.Department = *p.Department
	}
	if p.ClaimCategory != nil {
		c.ClaimCategory = *p.ClaimCategory
	}
	if p.ProductCategory != nil {
		c.ProductCategory = *p.ProductCategory
	}
	if p.IdentifiedCause != nil {
		c.IdentifiedCause = optionalString(*p.IdentifiedCause)
	}
	if p.Description != nil {
		c.Description = optionalString(*p.Description)
	}
	if p.Installed != nil {
		c.Installed = *p.Installed
	}
	if p.InstallationDate != nil {
		if p.InstallationDate.IsZero() {
			c.InstallationDate = nil
		} else {
			t := *p.InstallationDate
			c.InstallationDate = &t
		}
	}
	if p.InstallerName != nil {
		c.InstallerName = optionalString(*p.InstallerName)
	}
	if p.InvoiceLink != nil {
		c.InvoiceLink = optionalString(*p.InvoiceLink)
	}
	if p.AssignedTo != nil {
		c.AssignedTo = optionalString(*p.AssignedTo)
	}
	if p.ClaimedAmount != nil {
		c.ClaimedAmount = *p.ClaimedAmount
	}
	if p.SolutionAmount != nil {
		c.SolutionAmount = *p.SolutionAmount
	}
	if p.Alerts != nil {
		c.Alerts = append([]Alert{}, (*p.Alerts)...)
	}
}

// validateClaim checks the rules every stored claim must satisfy.
func validateClaim(c *Claim) error {
	if strings.TrimSpace(c.ClientID) == "" {
		return invalid("client_id", "is required")
	}
	if c.ClaimNumber != "" && !validator.IsClaimNumber(c.ClaimNumber) {
		return invalid("claim_number", "must look like CLM-YYYY-NNNN, got %q", c.ClaimNumber)
	}
	if !c.Status.Valid() {
		return invalid("status", "unknown status %q", c.Status)
	}
	if !c.Department.Valid() {
		return invalid("department", "unknown department %q", c.Department)
	}
	if !c.ClaimCategory.Valid() {
		return invalid("claim_category", "unknown category %q", c.ClaimCategory)
	}
	if !c.ProductCategory.Valid() {
		return invalid("product_category", "unknown product category %q", c.ProductCategory)
	}
	if c.Installed {
		if c.InstallationDate == nil {
			return invalid("installation_date", "is required when installed")
		}
		if c.InstallerName == nil {
			return invalid("installer_name", "is required when installed")
		}
	}
	return nil
}

// ProductRequest is the body for adding or replacing a claim line item.
type ProductRequest struct {
	Description     string `json:"description"`
	Style           string `json:"style" validate:"required"`
	Color           string `json:"color" validate:"required"`
	Quantity        Amount `json:"quantity"`
	PricePerSY      Amount `json:"price_per_sy"`
	TotalPrice      Amount `json:"total_price"`
	ClaimedQuantity Amount `json:"claimed_quantity"`
}

func (r *ProductRequest) product(claimID string) *Product {
	return &Product{
		ClaimID:         claimID,
		Description:     strings.TrimSpace(r.Description),
		Style:           strings.TrimSpace(r.Style),
		Color:           strings.TrimSpace(r.Color),
		Quantity:        float64(r.Quantity),
		PricePerSY:      float64(r.PricePerSY),
		TotalPrice:      float64(r.TotalPrice),
		ClaimedQuantity: float64(r.ClaimedQuantity),
	}
}

// ProductPatch is the body of PATCH /claims/:id/products/:productId.
type ProductPatch struct {
	Description     *string `json:"description"`
	Style           *string `json:"style"`
	Color           *string `json:"color"`
	Quantity        *Amount `json:"quantity"`
	PricePerSY      *Amount `json:"price_per_sy"`
	TotalPrice      *Amount `json:"total_price"`
	ClaimedQuantity *Amount `json:"claimed_quantity"`
}

func (p ProductPatch) apply(prod *Product) {
	if p.Description != nil {
		prod.Description = strings.TrimSpace(*p.Description)
	}
	if p.Style != nil {
		prod.Style = strings.TrimSpace(*p.Style)
	}
	if p.Color != nil {
		prod.Color = strings.TrimSpace(*p.Color)
	}
	if p.Quantity != nil {
		prod.Quantity = float64(*p.Quantity)
	}
	if p.PricePerSY != nil {
		prod.PricePerSY = float64(*p.PricePerSY)
	}
	if p.TotalPrice != nil {
		prod.TotalPrice = float64(*p.TotalPrice)
	}
	if p.ClaimedQuantity != nil {
		prod.ClaimedQuantity = float64(*p.ClaimedQuantity)
	}
}

// DocumentRequest is the body of POST /claims/:id/documents.
type DocumentRequest struct {
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=image document email"`
	URL        string `json:"url" validate:"required,url"`
	UploadDate string `json:"upload_date"`
	Category   string `json:"category"`
}

func (r *DocumentRequest) document(claimID string, now time.Time) (*Document, error) {
	doc := &Document{
		ClaimID:    claimID,
		Name:       strings.TrimSpace(r.Name),
		Type:       DocumentType(strings.TrimSpace(r.Type)),
		URL:        strings.TrimSpace(r.URL),
		UploadDate: now.UTC(),
		Category:   optionalString(r.Category),
	}
	if strings.TrimSpace(r.UploadDate) != "" {
		t, err := parseTimestamp("upload_date", r.UploadDate)
		if err != nil {
			return nil, err
		}
		doc.UploadDate = t
	}
	return doc, nil
}
