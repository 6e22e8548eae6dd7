package invoice

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"claimdesk/internal/domain/claim"
)

// Resolver turns a claim's invoice link into invoice lines for price cross-checks.
type Resolver struct {
	repo *Repository
}

func NewResolver(repo *Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveLines accepts a bare invoice number or a link whose last path
// segment is the number. Unknown invoices yield claim.ErrInvoiceNotFound.
func (r *Resolver) ResolveLines(ctx context.Context, ref string) ([]claim.InvoiceLine, error) {
	number := InvoiceNumberFromRef(ref)
	if number == "" {
		return nil, claim.ErrInvoiceNotFound
	}

	inv, err := r.repo.GetByNumber(ctx, number)
	if errors.Is(err, ErrInvoiceNotFound) {
		return nil, claim.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}

	lines := make([]claim.InvoiceLine, 0, len(inv.Items))
	for _, item := range inv.Items {
		lines = append(lines, claim.InvoiceLine{
			Description: item.ItemDescription,
			UnitPrice:   item.UnitSellingPrice,
			Quantity:    item.Quantity,
		})
	}
	return lines, nil
}

// InvoiceNumberFromRef extracts the invoice number from a reference string.
func InvoiceNumberFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		ref = u.Path
	}
	ref = strings.TrimRight(ref, "/")
	if strings.Contains(ref, "/") {
		ref = path.Base(ref)
	}
	return ref
}
