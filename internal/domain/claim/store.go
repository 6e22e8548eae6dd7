package claim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/shopspring/decimal"

	"claimdesk/internal/domain/client"
	"claimdesk/internal/pkg/metrics"
)

// Session-level messages recorded when a store operation fails.
const (
	msgFetchFailed  = "Failed to fetch claims"
	msgCreateFailed = "Failed to add claim"
	msgUpdateFailed = "Failed to update claim"
	msgGetFailed    = "Failed to fetch claim"
)

// Backend is the claim persistence the store needs.
type Backend interface {
	List(ctx context.Context) ([]Claim, error)
	GetByID(ctx context.Context, id string) (*Claim, error)
	Create(ctx context.Context, c *Claim) error
	Save(ctx context.Context, c *Claim) error
	NextClaimNumber(ctx context.Context, year int) (string, error)
}

// ClientLookup probes client existence before a claim is inserted.
type ClientLookup interface {
	GetByID(ctx context.Context, id string) (*client.Client, error)
}

// State is a read-only view of the store.
type State struct {
	Claims  []Claim `json:"claims"`
	Loading bool    `json:"loading"`
	Loaded  bool    `json:"loaded"`
	Error   string  `json:"error,omitempty"`
}

// Store owns the in-memory claim list for the running process. Every
// mutation goes through it so the list stays consistent with what was
// written. Concurrent updates of one claim are last-write-wins. A Create that
// lands while FetchAll is in flight can be dropped from the list when the
// fetched rows replace it; the next FetchAll brings it back.
type Store struct {
	backend Backend
	clients ClientLookup
	timeout time.Duration
	now     func() time.Time

	// createMu serializes number allocation and insert.
	createMu sync.Mutex

	mu      sync.RWMutex
	claims  []Claim
	loading bool
	loaded  bool
	err     string
}

// NewStore creates a store. A zero timeout disables per-operation deadlines.
func NewStore(backend Backend, clients ClientLookup, timeout time.Duration) *Store {
	return &Store{
		backend: backend,
		clients: clients,
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// FetchAll reloads every claim from the backend, newest first.
func (s *Store) FetchAll(ctx context.Context) ([]Claim, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	claims, err := s.backend.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		return nil, s.fail("fetch_all", "", msgFetchFailed, err)
	}
	for i := range claims {
		claims[i].derive()
	}
	s.claims = claims
	s.loaded = true
	s.err = ""
	return cloneAll(claims), nil
}

// Create validates the input, checks that the client exists and inserts the
// claim. On success the claim is appended to the in-memory list.
func (s *Store) Create(ctx context.Context, in ClaimInput) (Claim, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c := in.claim()
	now := s.now().UTC()
	if c.CreationDate.IsZero() {
		c.CreationDate = now
	}
	c.LastUpdated = now

	if c.ClientID == "" {
		return Claim{}, s.failLocked("create", "", msgCreateFailed, invalid("client_id", "is required"))
	}
	owner, err := s.clients.GetByID(ctx, c.ClientID)
	if errors.Is(err, client.ErrClientNotFound) {
		err = invalid("client_id", "client %s does not exist", c.ClientID)
	}
	if err != nil {
		return Claim{}, s.failLocked("create", "", msgCreateFailed, err)
	}
	if err := validateClaim(c); err != nil {
		return Claim{}, s.failLocked("create", "", msgCreateFailed, err)
	}

	s.createMu.Lock()
	err = s.insert(ctx, c)
	s.createMu.Unlock()
	if err != nil {
		return Claim{}, s.failLocked("create", "", msgCreateFailed, err)
	}

	c.Client = &client.Client{ID: owner.ID, Name: owner.Name, Code: owner.Code}
	c.derive()

	s.mu.Lock()
	s.claims = append(s.claims, c.clone())
	s.mu.Unlock()

	metrics.RecordClaimCreated(string(c.Department))
	return c.clone(), nil
}

func (s *Store) insert(ctx context.Context, c *Claim) error {
	if c.ClaimNumber == "" {
		number, err := s.backend.NextClaimNumber(ctx, c.CreationDate.Year())
		if err != nil {
			return err
		}
		c.ClaimNumber = number
	}
	return s.backend.Create(ctx, c)
}

// Update applies patch to the stored claim and merges the result into the
// in-memory entry. Fields the patch leaves unset keep their values.
func (s *Store) Update(ctx context.Context, id string, patch ClaimPatch) (Claim, error) {
	return s.mutate(ctx, "update", id, func(c *Claim) error {
		patch.Apply(c)
		return nil
	})
}

// ReplaceAlerts persists a freshly evaluated alert list together with its
// count and the check time.
func (s *Store) ReplaceAlerts(ctx context.Context, id string, alerts []Alert, checkedAt time.Time) (Claim, error) {
	return s.mutate(ctx, "replace_alerts", id, func(c *Claim) error {
		c.Alerts = append([]Alert{}, alerts...)
		t := checkedAt.UTC()
		c.LastAlertCheck = &t
		return nil
	})
}

func (s *Store) mutate(ctx context.Context, op, id string, apply func(*Claim) error) (Claim, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.backend.GetByID(ctx, id)
	if err != nil {
		return Claim{}, s.failLocked(op, id, msgUpdateFailed, err)
	}
	before := c.Status

	if err := apply(c); err != nil {
		return Claim{}, s.failLocked(op, id, msgUpdateFailed, err)
	}
	c.LastUpdated = s.now().UTC()
	if err := validateClaim(c); err != nil {
		return Claim{}, s.failLocked(op, id, msgUpdateFailed, err)
	}
	if err := s.backend.Save(ctx, c); err != nil {
		return Claim{}, s.failLocked(op, id, msgUpdateFailed, err)
	}
	c.derive()

	s.mu.Lock()
	for i := range s.claims {
		if s.claims[i].ID == id {
			s.claims[i] = merge(s.claims[i], c.clone())
			break
		}
	}
	s.mu.Unlock()

	if before != c.Status {
		metrics.RecordClaimStatusChange(string(before), string(c.Status))
	}
	return c.clone(), nil
}

// merge overlays next on prev. Associations next did not load are kept.
func merge(prev, next Claim) Claim {
	if next.Client == nil {
		next.Client = prev.Client
	}
	if next.Products == nil {
		next.Products = prev.Products
	}
	if next.Documents == nil {
		next.Documents = prev.Documents
	}
	return next
}

// GetByID loads a claim with client, products and documents. It does not
// touch the in-memory list.
func (s *Store) GetByID(ctx context.Context, id string) (Claim, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.backend.GetByID(ctx, id)
	if err != nil {
		return Claim{}, s.failLocked("get", id, msgGetFailed, err)
	}
	c.derive()
	return *c, nil
}

// Claims returns a copy of the in-memory list.
func (s *Store) Claims() []Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.claims)
}

// State returns a copy of the list with the loading and error flags.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Claims:  cloneAll(s.claims),
		Loading: s.loading,
		Loaded:  s.loaded,
		Error:   s.err,
	}
}

// Err returns the message of the last failed operation, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// CalculateTotals sums the amounts of the in-memory list.
func (s *Store) CalculateTotals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalsOf(s.claims)
}

func totalsOf(claims []Claim) Totals {
	claimed, solution := decimal.Zero, decimal.Zero
	for i := range claims {
		claimed = claimed.Add(decimal.NewFromFloat(claims[i].ClaimedAmount))
		solution = solution.Add(decimal.NewFromFloat(claims[i].SolutionAmount))
	}
	return Totals{
		TotalSolution: solution.InexactFloat64(),
		TotalClaimed:  claimed.InexactFloat64(),
		TotalSaved:    claimed.Sub(solution).InexactFloat64(),
	}
}

// fail records msg as the session error and returns err classified into
// the store's error kinds. The caller holds s.mu.
func (s *Store) fail(op, id, msg string, err error) error {
	err = wrapFetch(op, err)
	log.WithFields(log.Fields{"op": op, "claim_id": id}).WithError(err).Error(msg)
	s.err = msg
	return err
}

func (s *Store) failLocked(op, id, msg string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail(op, id, msg, err)
}

func cloneAll(claims []Claim) []Claim {
	out := make([]Claim, len(claims))
	for i := range claims {
		out[i] = claims[i].clone()
	}
	return out
}
