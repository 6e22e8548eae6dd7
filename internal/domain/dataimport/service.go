package dataimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"claimdesk/internal/domain/client"
	"claimdesk/internal/domain/invoice"
	"claimdesk/internal/domain/product"
)

// Kind selects which legacy export a file holds.
type Kind string

const (
	KindClients  Kind = "clients"
	KindProducts Kind = "products"
	KindInvoices Kind = "invoices"
)

// ParseKind maps a route or flag value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindClients, KindProducts, KindInvoices:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Result summarises one import run.
type Result struct {
	Kind     Kind     `json:"kind"`
	Rows     int      `json:"rows"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Messages []string `json:"messages,omitempty"`
}

func (r *Result) skip(format string, args ...any) {
	r.Skipped++
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *Result) fail(format string, args ...any) {
	r.Failed++
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

const (
	defaultCurrency   = "USD"
	unknownClientName = "Unknown Client"
	batchSize         = 100
)

// Service loads legacy CSV exports into the catalog, client and invoice tables.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Import parses src as CSV and dispatches on kind.
func (s *Service) Import(ctx context.Context, kind Kind, src io.Reader) (*Result, error) {
	rows, err := ReadRows(src)
	if err != nil {
		return nil, err
	}

	var res *Result
	switch kind {
	case KindClients:
		res, err = s.ImportClients(ctx, rows)
	case KindProducts:
		res, err = s.ImportProducts(ctx, rows)
	case KindInvoices:
		res, err = s.ImportInvoices(ctx, rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"kind":     res.Kind,
		"rows":     res.Rows,
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
	}).Info("import finished")
	return res, nil
}

// ImportClients inserts clients keyed by cr72e_clientid. Rows without a code,
// repeated codes (first wins) and codes already stored are skipped.
func (s *Service) ImportClients(ctx context.Context, rows []Row) (*Result, error) {
	res := &Result{Kind: KindClients, Rows: len(rows)}

	candidates := make([]client.Client, 0, len(rows))
	codes := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		code := row.Get("cr72e_clientid")
		switch {
		case code == "":
			res.skip("row %d: missing client code", i+2)
			continue
		case seen[code]:
			res.skip("row %d: duplicate client code %s", i+2, code)
			continue
		}
		seen[code] = true
		codes = append(codes, code)
		candidates = append(candidates, client.Client{Name: row.Get("cr72e_clientname"), Code: code})
	}

	existing, err := s.existingCodes(ctx, &client.Client{}, codes)
	if err != nil {
		return nil, err
	}
	fresh := make([]client.Client, 0, len(candidates))
	for _, c := range candidates {
		if existing[c.Code] {
			res.skip("client %s already exists", c.Code)
			continue
		}
		fresh = append(fresh, c)
	}

	if len(fresh) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(&fresh, batchSize).Error; err != nil {
			return nil, fmt.Errorf("insert clients: %w", err)
		}
	}
	res.Inserted = len(fresh)
	return res, nil
}

// ImportProducts inserts catalog products keyed by cr72e_codeitem with the
// same skip rules as ImportClients.
func (s *Service) ImportProducts(ctx context.Context, rows []Row) (*Result, error) {
	res := &Result{Kind: KindProducts, Rows: len(rows)}

	candidates := make([]product.Product, 0, len(rows))
	codes := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		code := row.Get("cr72e_codeitem")
		switch {
		case code == "":
			res.skip("row %d: missing product code", i+2)
			continue
		case seen[code]:
			res.skip("row %d: duplicate product code %s", i+2, code)
			continue
		}
		seen[code] = true
		codes = append(codes, code)
		candidates = append(candidates, product.Product{
			Code:        code,
			Color:       row.Get("cr72e_color"),
			ColorNumber: row.Get("cr72e_colornum"),
			Description: row.Get("cr72e_description"),
			Format:      row.Get("cr72e_format"),
			Style:       row.Get("cr72e_style"),
			StyleNumber: row.Get("cr72e_stylenum"),
		})
	}

	existing, err := s.existingCodes(ctx, &product.Product{}, codes)
	if err != nil {
		return nil, err
	}
	fresh := make([]product.Product, 0, len(candidates))
	for _, p := range candidates {
		if existing[p.Code] {
			res.skip("product %s already exists", p.Code)
			continue
		}
		fresh = append(fresh, p)
	}

	if len(fresh) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(&fresh, batchSize).Error; err != nil {
			return nil, fmt.Errorf("insert products: %w", err)
		}
	}
	res.Inserted = len(fresh)
	return res, nil
}

// ImportInvoices groups rows by cr72e_invoicenumber and writes each invoice
// with its lines in its own transaction. Missing clients and products are
// created on the fly. A failing invoice is counted and the run continues.
func (s *Service) ImportInvoices(ctx context.Context, rows []Row) (*Result, error) {
	res := &Result{Kind: KindInvoices, Rows: len(rows)}

	var order []string
	groups := make(map[string][]Row)
	for i, row := range rows {
		number := row.Get("cr72e_invoicenumber")
		if number == "" {
			res.skip("row %d: missing invoice number", i+2)
			continue
		}
		if _, ok := groups[number]; !ok {
			order = append(order, number)
		}
		groups[number] = append(groups[number], row)
	}

	for _, number := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lines := groups[number]
		if lines[0].Get("cr72e_clientid") == "" {
			res.skip("invoice %s: no client information", number)
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.importInvoice(ctx, tx, number, lines, res)
		})
		switch {
		case errors.Is(err, errInvoiceExists):
			res.skip("invoice %s already exists", number)
		case err != nil:
			log.WithField("invoice_number", number).WithError(err).Warn("invoice import failed")
			res.fail("invoice %s: %v", number, err)
		default:
			res.Inserted++
		}
	}
	return res, nil
}

var errInvoiceExists = errors.New("invoice already exists")

func (s *Service) importInvoice(ctx context.Context, tx *gorm.DB, number string, lines []Row, res *Result) error {
	invoices := invoice.NewRepository(tx)
	if _, err := invoices.GetByNumber(ctx, number); err == nil {
		return errInvoiceExists
	} else if !errors.Is(err, invoice.ErrInvoiceNotFound) {
		return err
	}

	first := lines[0]
	owner, err := s.clientFor(ctx, tx, first)
	if err != nil {
		return fmt.Errorf("client %s: %w", first.Get("cr72e_clientid"), err)
	}

	date := s.now().UTC()
	if raw := first.Get("cr72e_invoicedate"); raw != "" {
		parsed, ok := parseDate(raw)
		if !ok {
			return fmt.Errorf("invalid invoice date %q", raw)
		}
		date = parsed
	}

	currency := first.Get("cr72e_currency")
	if currency == "" {
		currency = defaultCurrency
	}
	rate := first.Float("exchangerate")
	if rate == 0 {
		rate = 1
	}

	inv := &invoice.Invoice{
		InvoiceNumber: number,
		ClientID:      owner.ID,
		InvoiceDate:   date,
		Currency:      currency,
		ExchangeRate:  &rate,
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(decimal.NewFromFloat(line.Float("cr72e_totalnet")))

		code := line.Get("cr72e_itemcode")
		if code == "" {
			res.Messages = append(res.Messages, fmt.Sprintf("invoice %s: line without item code dropped", number))
			continue
		}
		p, err := s.productFor(ctx, tx, line)
		if err != nil {
			return fmt.Errorf("product %s: %w", code, err)
		}

		item := invoice.Item{
			ProductID:        p.ID,
			ItemDescription:  line.Get("cr72e_itemdescription"),
			UnitCostPrice:    line.Float("cr72e_costingunitprice"),
			UnitSellingPrice: line.Float("cr72e_unitsellingprice"),
			Quantity:         line.Float("cr72e_quantity"),
			TotalCost:        line.Float("cr72e_totalcosting"),
			TotalPrice:       line.Float("cr72e_totalnet"),
			TotalProfit:      line.Float("cr72e_totalprofit"),
			ProfitPercentage: line.Float("cr72e_totalprofitpercentage"),
		}
		if sc := line.Get("cr72e_shippingcode"); sc != "" {
			item.ShippingCode = &sc
		}
		inv.Items = append(inv.Items, item)
	}
	inv.TotalAmount = total.Round(2).InexactFloat64()

	return invoices.Create(ctx, inv)
}

func (s *Service) clientFor(ctx context.Context, tx *gorm.DB, row Row) (*client.Client, error) {
	clients := client.NewRepository(tx)
	code := row.Get("cr72e_clientid")

	c, err := clients.GetByCode(ctx, code)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, client.ErrClientNotFound) {
		return nil, err
	}

	name := row.Get("cr72e_clientname")
	if name == "" {
		name = unknownClientName
	}
	c = &client.Client{Name: name, Code: code}
	if err := clients.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) productFor(ctx context.Context, tx *gorm.DB, row Row) (*product.Product, error) {
	products := product.NewRepository(tx)
	code := row.Get("cr72e_itemcode")

	p, err := products.GetByCode(ctx, code)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, product.ErrProductNotFound) {
		return nil, err
	}

	description := row.Get("cr72e_itemdescription")
	if description == "" {
		description = code
	}
	p = &product.Product{
		Code:        code,
		Color:       row.Get("cr72e_color"),
		Style:       row.Get("cr72e_style"),
		Description: description,
	}
	if err := products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) existingCodes(ctx context.Context, model any, codes []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(codes) == 0 {
		return existing, nil
	}

	var found []string
	for start := 0; start < len(codes); start += batchSize {
		end := min(start+batchSize, len(codes))
		var chunk []string
		if err := s.db.WithContext(ctx).Model(model).Where("code IN ?", codes[start:end]).Pluck("code", &chunk).Error; err != nil {
			return nil, fmt.Errorf("lookup existing codes: %w", err)
		}
		found = append(found, chunk...)
	}
	for _, code := range found {
		existing[code] = true
	}
	return existing, nil
}
