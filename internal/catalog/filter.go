package catalog

import (
	"strings"

	"microteca/pkg/models"
)

// Scope selects which supplementary field free-text search looks at.
type Scope string

const (
	ScopePublic Scope = "public" // searches isolation source
	ScopeAdmin  Scope = "admin"  // searches host
)

// Query is the search and facet state of a listing.
// Empty strings mean "no constraint".
type Query struct {
	Search       string
	Category     string
	Availability string
	Scope        Scope
}

// IsZero reports whether no criterion is active.
func (q Query) IsZero() bool {
	return q.Search == "" && q.Category == "" && q.Availability == ""
}

// Filter returns the records matching every active criterion of q, keeping
// their relative order. records is not modified.
func Filter(records []models.Microorganism, q Query) []models.Microorganism {
	out := make([]models.Microorganism, 0, len(records))
	needle := strings.ToLower(q.Search)
	for _, r := range records {
		if !matchSearch(r, needle, q.Scope) {
			continue
		}
		// category is an exact, case-sensitive match
		if q.Category != "" && r.TaxonomicCategory != q.Category {
			continue
		}
		// availability is a containment match so "Unavailable" covers both unavailable states
		if q.Availability != "" && !strings.Contains(r.Availability, q.Availability) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchSearch(r models.Microorganism, needle string, scope Scope) bool {
	if needle == "" {
		return true
	}
	extra := r.IsolationSource
	if scope == ScopeAdmin {
		extra = r.Host
	}
	for _, v := range [...]string{r.FullName, r.Genus, r.Species, r.InternalCode, extra} {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
