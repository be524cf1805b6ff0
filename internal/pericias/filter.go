package pericias

import "strings"

// Query holds the live filter state for the case list: a free-text search
// term matched against the case identifier and an exact-match estado filter
// (empty means no filter).
type Query struct {
	Term   string
	Estado Estado
}

// IsZero reports whether the query filters nothing.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Term) == "" && q.Estado == ""
}

// FilterIndex returns the subset of the index matching the query, in the
// index's original order. Matching on the case identifier is
// case-insensitive via uppercase normalization of both sides. The input is
// never mutated; the result is always a fresh slice.
func FilterIndex(index []CaseSummary, q Query) []CaseSummary {
	// Fast path: no filters, return a copy to avoid external mutation.
	if q.IsZero() {
		out := make([]CaseSummary, len(index))
		copy(out, index)
		return out
	}

	term := strings.ToUpper(strings.TrimSpace(q.Term))
	out := make([]CaseSummary, 0, len(index))
	for _, c := range index {
		if term != "" && !strings.Contains(strings.ToUpper(c.Caso), term) {
			continue
		}
		if q.Estado != "" && c.EstadoGeneral != q.Estado {
			continue
		}
		out = append(out, c)
	}
	return out
}
