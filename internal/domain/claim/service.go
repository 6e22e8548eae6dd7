package claim

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"

	"claimdesk/internal/pkg/metrics"
)

// ItemRepository persists claim line items and documents.
type ItemRepository interface {
	ListWithProducts(ctx context.Context) ([]Claim, error)
	GetProduct(ctx context.Context, claimID, productID string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	SaveProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, claimID, productID string) error
	ListDocuments(ctx context.Context, claimID string) ([]Document, error)
	CreateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, claimID, documentID string) error
}

// Service handles line items, documents and alert recomputation. Claim rows
// themselves are written through the Store.
type Service struct {
	store     *Store
	items     ItemRepository
	evaluator *AlertEvaluator
	now       func() time.Time
}

// NewService creates claim service
func NewService(store *Store, items ItemRepository, evaluator *AlertEvaluator) *Service {
	return &Service{store: store, items: items, evaluator: evaluator, now: time.Now}
}

func (s *Service) Store() *Store {
	return s.store
}

// ListProducts returns the line items of an existing claim.
func (s *Service) ListProducts(ctx context.Context, claimID string) ([]Product, error) {
	c, err := s.store.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.Products == nil {
		return []Product{}, nil
	}
	return c.Products, nil
}

// AddProduct inserts a line item and re-evaluates the claim's alerts.
func (s *Service) AddProduct(ctx context.Context, claimID string, req *ProductRequest) (*Product, error) {
	if _, err := s.store.GetByID(ctx, claimID); err != nil {
		return nil, err
	}

	p := req.product(claimID)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.items.CreateProduct(ctx, p); err != nil {
		return nil, wrapFetch("add_product", err)
	}
	if _, err := s.RecomputeAlerts(ctx, claimID); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct applies patch to a line item and re-evaluates alerts.
func (s *Service) UpdateProduct(ctx context.Context, claimID, productID string, patch ProductPatch) (*Product, error) {
	p, err := s.items.GetProduct(ctx, claimID, productID)
	if err != nil {
		return nil, wrapFetch("update_product", err)
	}

	patch.apply(p)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.items.SaveProduct(ctx, p); err != nil {
		return nil, wrapFetch("update_product", err)
	}
	if _, err := s.RecomputeAlerts(ctx, claimID); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a line item and re-evaluates alerts.
func (s *Service) DeleteProduct(ctx context.Context, claimID, productID string) error {
	if err := s.items.DeleteProduct(ctx, claimID, productID); err != nil {
		return wrapFetch("delete_product", err)
	}
	_, err := s.RecomputeAlerts(ctx, claimID)
	return err
}

func validateProduct(p *Product) error {
	switch {
	case p.Style == "":
		return invalid("style", "is required")
	case p.Color == "":
		return invalid("color", "is required")
	case p.Quantity < 0:
		return invalid("quantity", "must not be negative")
	case p.PricePerSY < 0:
		return invalid("price_per_sy", "must not be negative")
	case p.TotalPrice < 0:
		return invalid("total_price", "must not be negative")
	case p.ClaimedQuantity < 0:
		return invalid("claimed_quantity", "must not be negative")
	}
	return nil
}

func (s *Service) ListDocuments(ctx context.Context, claimID string) ([]Document, error) {
	if _, err := s.store.GetByID(ctx, claimID); err != nil {
		return nil, err
	}
	docs, err := s.items.ListDocuments(ctx, claimID)
	if err != nil {
		return nil, wrapFetch("list_documents", err)
	}
	return docs, nil
}

func (s *Service) AddDocument(ctx context.Context, claimID string, req *DocumentRequest) (*Document, error) {
	if _, err := s.store.GetByID(ctx, claimID); err != nil {
		return nil, err
	}
	doc, err := req.document(claimID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.items.CreateDocument(ctx, doc); err != nil {
		return nil, wrapFetch("add_document", err)
	}
	return doc, nil
}

func (s *Service) DeleteDocument(ctx context.Context, claimID, documentID string) error {
	if err := s.items.DeleteDocument(ctx, claimID, documentID); err != nil {
		return wrapFetch("delete_document", err)
	}
	return nil
}

// RecomputeAlerts evaluates the claim against its current line items and
// persists alerts, alert_count and last_alert_check together.
func (s *Service) RecomputeAlerts(ctx context.Context, claimID string) (Claim, error) {
	c, err := s.store.GetByID(ctx, claimID)
	if err != nil {
		return Claim{}, err
	}
	alerts := s.evaluator.Evaluate(ctx, &c, c.Products)
	updated, err := s.store.ReplaceAlerts(ctx, claimID, alerts, s.now())
	if err != nil {
		return Claim{}, err
	}
	recordAlerts(alerts)
	return updated, nil
}

// SweepResult summarizes a RecomputeAll run.
type SweepResult struct {
	Checked    int `json:"checked"`
	WithAlerts int `json:"with_alerts"`
	Alerts     int `json:"alerts"`
	Failed     int `json:"failed"`
}

// RecomputeAll re-evaluates every claim. A failure on one claim is logged
// and counted; the sweep goes on.
func (s *Service) RecomputeAll(ctx context.Context) (SweepResult, error) {
	claims, err := s.items.ListWithProducts(ctx)
	if err != nil {
		return SweepResult{}, wrapFetch("recompute_all", err)
	}

	var res SweepResult
	checkedAt := s.now()
	for i := range claims {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c := &claims[i]
		alerts := s.evaluator.Evaluate(ctx, c, c.Products)
		if _, err := s.store.ReplaceAlerts(ctx, c.ID, alerts, checkedAt); err != nil {
			log.WithFields(log.Fields{"op": "recompute_all", "claim_id": c.ID}).WithError(err).Warn("alert sweep skipped claim")
			res.Failed++
			continue
		}
		recordAlerts(alerts)
		res.Checked++
		res.Alerts += len(alerts)
		if len(alerts) > 0 {
			res.WithAlerts++
		}
	}
	return res, nil
}

func recordAlerts(alerts []Alert) {
	for _, a := range alerts {
		metrics.RecordAlertsRaised(string(a.Type), 1)
	}
}

func wrapFetch(op string, err error) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrFetch) {
		return err
	}
	return &FetchError{Op: op, Err: err}
}
