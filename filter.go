package simpledb

// Filter selects records. A *Record is a field-equality template; MatchFunc
// adapts an arbitrary predicate.
type Filter interface {
	Match(r *Record) bool
}

// MatchFunc adapts a function to a Filter.
type MatchFunc func(r *Record) bool

// Match calls f(r).
func (f MatchFunc) Match(r *Record) bool {
	return f(r)
}

// checkFilter rejects nil filters, including typed nils.
func checkFilter(f Filter) error {
	switch f := f.(type) {
	case nil:
		return missingParam("filter")
	case *Record:
		if f == nil {
			return missingParam("filter")
		}
	case MatchFunc:
		if f == nil {
			return missingParam("filter")
		}
	}
	return nil
}

// matchPositions returns the indexes of rows accepted by f, in collection
// order. limit bounds the number of results; zero or less means no bound.
// A nil f selects every row.
func matchPositions(rows []*Record, f Filter, limit int) []int {
	var pos []int
	for i, r := range rows {
		if f != nil && !f.Match(r) {
			continue
		}
		pos = append(pos, i)
		if limit > 0 && len(pos) == limit {
			break
		}
	}
	return pos
}
