package casestudies

// Op is a predicate operator understood by every store adapter.
type Op string

const (
	OpILike       Op = "ilike"        // case-insensitive substring
	OpIn          Op = "in"           // column value is one of Values
	OpContainsAll Op = "contains_all" // array column holds every one of Values
	OpGte         Op = "gte"
	OpLte         Op = "lte"
)

type Condition struct {
	Field  string
	Op     Op
	Text   string
	Values []string
	Number float64
}

// Query is a store-agnostic read against the case study collection.
// Conditions are ANDed; AnyOf, when non-empty, must match at least once.
type Query struct {
	Conditions []Condition
	AnyOf      []Condition
	OrderBy    string
	Descending bool
}

// searchColumns are matched by the free-text search.
var searchColumns = []string{FieldHeading, FieldContent, FieldClientName}

// Compose derives the full query for a filter state. It is always rebuilt
// from scratch; callers never patch a previous Query.
func Compose(state FilterState) Query {
	f := state.Normalize()
	q := Query{
		OrderBy:    FieldCreatedAt,
		Descending: true,
	}

	if f.Search != "" {
		for _, col := range searchColumns {
			q.AnyOf = append(q.AnyOf, Condition{Field: col, Op: OpILike, Text: f.Search})
		}
	}

	for _, facet := range AllFacets {
		values := f.Values(facet)
		if len(values) == 0 {
			continue
		}
		op := OpIn
		// services are additive requirements, not alternatives
		if facet == FacetAWSServices {
			op = OpContainsAll
		}
		q.Conditions = append(q.Conditions, Condition{Field: facet.Column(), Op: op, Values: values})
	}

	if lo := f.MRRRange[0]; lo > MRRFloor {
		q.Conditions = append(q.Conditions, Condition{Field: FieldMRR, Op: OpGte, Number: lo})
	}
	if hi := f.MRRRange[1]; hi < MRRCeiling {
		q.Conditions = append(q.Conditions, Condition{Field: FieldMRR, Op: OpLte, Number: hi})
	}

	return q
}
