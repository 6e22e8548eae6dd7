package claim

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SearchScope selects which columns free-text search looks at.
type SearchScope string

const (
	SearchAll         SearchScope = ""
	SearchClaimNumber SearchScope = "claim_number"
	SearchClientName  SearchScope = "client_name"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Criteria are ANDed together. Zero-valued fields match everything.
type Criteria struct {
	Status        Status
	Department    Department
	ClaimCategory Category
	Installed     string // "yes", "no" or ""
	HasAlerts     *bool
	AlertType     AlertType
	Search        string
	SearchIn      SearchScope
}

// SortSpec orders the view by one field. An empty Field keeps input order.
type SortSpec struct {
	Field     string
	Direction Direction
}

var stringFields = map[string]func(*Claim) string{
	"claim_number":     func(c *Claim) string { return c.ClaimNumber },
	"client_name":      func(c *Claim) string { return c.ClientName() },
	"status":           func(c *Claim) string { return string(c.Status) },
	"department":       func(c *Claim) string { return string(c.Department) },
	"claim_category":   func(c *Claim) string { return string(c.ClaimCategory) },
	"product_category": func(c *Claim) string { return string(c.ProductCategory) },
}

var numberFields = map[string]func(*Claim) float64{
	"claimed_amount":  func(c *Claim) float64 { return c.ClaimedAmount },
	"solution_amount": func(c *Claim) float64 { return c.SolutionAmount },
	"saved_amount":    func(c *Claim) float64 { return c.SavedAmount },
	"alert_count":     func(c *Claim) float64 { return float64(len(c.Alerts)) },
}

var dateFields = map[string]func(*Claim) time.Time{
	"creation_date": func(c *Claim) time.Time { return c.CreationDate },
	"last_updated":  func(c *Claim) time.Time { return c.LastUpdated },
	"installation_date": func(c *Claim) time.Time {
		if c.InstallationDate == nil {
			return time.Time{}
		}
		return *c.InstallationDate
	},
}

// IsSortField reports whether field is accepted by Apply.
func IsSortField(field string) bool {
	if _, ok := stringFields[field]; ok {
		return true
	}
	if _, ok := numberFields[field]; ok {
		return true
	}
	_, ok := dateFields[field]
	return ok
}

// Apply returns the claims matching crit ordered by spec. The input slice
// and its elements are left untouched. The sort is stable.
func Apply(claims []Claim, crit Criteria, spec SortSpec) ([]Claim, error) {
	compare, err := comparator(spec)
	if err != nil {
		return nil, err
	}

	out := make([]Claim, 0, len(claims))
	for i := range claims {
		if crit.matches(&claims[i]) {
			out = append(out, claims[i])
		}
	}

	if compare != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return compare(&out[i], &out[j]) < 0
		})
	}
	return out, nil
}

func comparator(spec SortSpec) (func(a, b *Claim) int, error) {
	if spec.Field == "" {
		return nil, nil
	}

	sign := 1
	switch spec.Direction {
	case Asc, "":
	case Desc:
		sign = -1
	default:
		return nil, invalid("direction", "must be asc or desc, got %q", spec.Direction)
	}

	if get, ok := stringFields[spec.Field]; ok {
		// Collators keep scratch buffers, so each comparator owns one.
		col := collate.New(language.English)
		return func(a, b *Claim) int { return sign * col.CompareString(get(a), get(b)) }, nil
	}
	if get, ok := numberFields[spec.Field]; ok {
		return func(a, b *Claim) int { return sign * cmp.Compare(get(a), get(b)) }, nil
	}
	if get, ok := dateFields[spec.Field]; ok {
		return func(a, b *Claim) int { return sign * get(a).Compare(get(b)) }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSortField, spec.Field)
}

func (crit Criteria) matches(c *Claim) bool {
	if crit.Status != "" && c.Status != crit.Status {
		return false
	}
	if crit.Department != "" && c.Department != crit.Department {
		return false
	}
	if crit.ClaimCategory != "" && c.ClaimCategory != crit.ClaimCategory {
		return false
	}
	switch crit.Installed {
	case "yes":
		if !c.Installed {
			return false
		}
	case "no":
		if c.Installed {
			return false
		}
	}
	if crit.HasAlerts != nil && (len(c.Alerts) > 0) != *crit.HasAlerts {
		return false
	}
	if crit.AlertType != "" && !hasAlertType(c, crit.AlertType) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(crit.Search)); q != "" {
		return crit.searchMatches(c, q)
	}
	return true
}

func (crit Criteria) searchMatches(c *Claim, q string) bool {
	number := strings.Contains(strings.ToLower(c.ClaimNumber), q)
	client := strings.Contains(strings.ToLower(c.ClientName()), q)
	switch crit.SearchIn {
	case SearchClaimNumber:
		return number
	case SearchClientName:
		return client
	default:
		return number || client
	}
}

func hasAlertType(c *Claim, t AlertType) bool {
	for _, a := range c.Alerts {
		if a.Type == t {
			return true
		}
	}
	return false
}
