package casestudies

import (
	"encoding/json"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/harshnakad-cyber/Finastra/internal/httpx"
)

// MRR slider bounds. A bound sitting on its sentinel imposes no constraint.
const (
	MRRFloor   = 0
	MRRCeiling = 1000
)

// Facet names a categorical field that can be filtered on.
type Facet string

const (
	FacetCity           Facet = "city"
	FacetIndustry       Facet = "industry"
	FacetSubIndustry    Facet = "subIndustry"
	FacetUseCase        Facet = "useCase"
	FacetAccountSegment Facet = "accountSegment"
	FacetAvailability   Facet = "availability"
	FacetAWSServices    Facet = "awsServices"
)

// AllFacets lists every facet in the order filters are composed.
var AllFacets = []Facet{
	FacetCity,
	FacetIndustry,
	FacetSubIndustry,
	FacetUseCase,
	FacetAccountSegment,
	FacetAvailability,
	FacetAWSServices,
}

var facetColumns = map[Facet]string{
	FacetCity:           FieldCity,
	FacetIndustry:       FieldIndustry,
	FacetSubIndustry:    FieldSubIndustry,
	FacetUseCase:        FieldUseCase,
	FacetAccountSegment: FieldAccountSegment,
	FacetAvailability:   FieldAvailability,
	FacetAWSServices:    FieldAWSServices,
}

// Column returns the store column backing the facet.
func (f Facet) Column() string {
	return facetColumns[f]
}

var (
	ErrUnknownFacet    = errors.New("unknown facet")
	ErrInvalidMRRRange = errors.New("invalid mrrRange: expected [min, max]")
)

// FilterState is the complete set of search and filter constraints a user
// has selected. Values are treated as immutable: mutators return copies.
type FilterState struct {
	Search         string   `json:"search"`
	City           []string `json:"city"`
	Industry       []string `json:"industry"`
	SubIndustry    []string `json:"subIndustry"`
	UseCase        []string `json:"useCase"`
	AccountSegment []string `json:"accountSegment"`
	Availability   []string `json:"availability"`
	AWSServices    []string `json:"awsServices"`
	MRRRange       MRRRange `json:"mrrRange"`
}

// MRRRange is the selected [min, max] MRR window in thousands.
type MRRRange [2]float64

// UnmarshalJSON accepts exactly two bounds. A shorter or longer array is
// rejected rather than zero-filled or truncated.
func (r *MRRRange) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var bounds []float64
	if err := json.Unmarshal(data, &bounds); err != nil {
		return err
	}
	if len(bounds) != 2 {
		return ErrInvalidMRRRange
	}
	*r = MRRRange{bounds[0], bounds[1]}
	return nil
}

func DefaultFilterState() FilterState {
	return FilterState{MRRRange: MRRRange{MRRFloor, MRRCeiling}}
}

// Values returns the selection for a facet.
func (f FilterState) Values(facet Facet) []string {
	switch facet {
	case FacetCity:
		return f.City
	case FacetIndustry:
		return f.Industry
	case FacetSubIndustry:
		return f.SubIndustry
	case FacetUseCase:
		return f.UseCase
	case FacetAccountSegment:
		return f.AccountSegment
	case FacetAvailability:
		return f.Availability
	case FacetAWSServices:
		return f.AWSServices
	}
	return nil
}

func (f *FilterState) setValues(facet Facet, values []string) error {
	switch facet {
	case FacetCity:
		f.City = values
	case FacetIndustry:
		f.Industry = values
	case FacetSubIndustry:
		f.SubIndustry = values
	case FacetUseCase:
		f.UseCase = values
	case FacetAccountSegment:
		f.AccountSegment = values
	case FacetAvailability:
		f.Availability = values
	case FacetAWSServices:
		f.AWSServices = values
	default:
		return ErrUnknownFacet
	}
	return nil
}

func (f FilterState) clone() FilterState {
	out := f
	out.City = slices.Clone(f.City)
	out.Industry = slices.Clone(f.Industry)
	out.SubIndustry = slices.Clone(f.SubIndustry)
	out.UseCase = slices.Clone(f.UseCase)
	out.AccountSegment = slices.Clone(f.AccountSegment)
	out.Availability = slices.Clone(f.Availability)
	out.AWSServices = slices.Clone(f.AWSServices)
	return out
}

func (f FilterState) WithSearch(search string) FilterState {
	out := f.clone()
	out.Search = search
	return out
}

func (f FilterState) WithMRRRange(lo, hi float64) FilterState {
	out := f.clone()
	out.MRRRange = MRRRange{lo, hi}
	return out
}

// Toggle adds value to the facet selection, or removes it when already selected.
func (f FilterState) Toggle(facet Facet, value string) (FilterState, error) {
	out := f.clone()
	current := out.Values(facet)
	if i := slices.Index(current, value); i >= 0 {
		current = slices.Delete(current, i, i+1)
	} else {
		current = append(current, value)
	}
	if err := out.setValues(facet, current); err != nil {
		return f, err
	}
	return out, nil
}

// ClearFacets resets every facet and the MRR range. The search text is kept.
func (f FilterState) ClearFacets() FilterState {
	out := DefaultFilterState()
	out.Search = f.Search
	return out
}

// Normalize trims facet values and drops empty ones and duplicates. A
// whitespace-only search counts as no search; any other search text is kept
// as typed. Each MRR bound is pinned to its own sentinel when it overshoots,
// which leaves it inactive. An inverted range is kept and matches nothing.
func (f FilterState) Normalize() FilterState {
	out := f.clone()
	if strings.TrimSpace(out.Search) == "" {
		out.Search = ""
	}
	for _, facet := range AllFacets {
		_ = out.setValues(facet, normalizeSet(out.Values(facet)))
	}

	if out.MRRRange[0] < MRRFloor {
		out.MRRRange[0] = MRRFloor
	}
	if out.MRRRange[1] > MRRCeiling {
		out.MRRRange[1] = MRRCeiling
	}
	return out
}

// IsNeutral reports whether the state imposes no constraint at all.
func (f FilterState) IsNeutral() bool {
	n := f.Normalize()
	if n.Search != "" {
		return false
	}
	for _, facet := range AllFacets {
		if len(n.Values(facet)) > 0 {
			return false
		}
	}
	return n.MRRRange[0] <= MRRFloor && n.MRRRange[1] >= MRRCeiling
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Query parameter names accepted by FilterStateFromQuery.
var facetParams = map[Facet]string{
	FacetCity:           "city",
	FacetIndustry:       "industry",
	FacetSubIndustry:    "sub_industry",
	FacetUseCase:        "use_case",
	FacetAccountSegment: "account_segment",
	FacetAvailability:   "availability",
	FacetAWSServices:    "aws_services",
}

// FilterStateFromQuery reads a FilterState from URL query parameters.
// List parameters may be repeated or comma separated.
func FilterStateFromQuery(values url.Values) (FilterState, error) {
	state := DefaultFilterState()
	state.Search = values.Get("search")
	for _, facet := range AllFacets {
		_ = state.setValues(facet, httpx.QueryList(values, facetParams[facet]))
	}

	if raw := strings.TrimSpace(values.Get("mrr_min")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return FilterState{}, errors.New("invalid mrr_min")
		}
		state.MRRRange[0] = v
	}
	if raw := strings.TrimSpace(values.Get("mrr_max")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return FilterState{}, errors.New("invalid mrr_max")
		}
		state.MRRRange[1] = v
	}
	return state.Normalize(), nil
}

// URLValues renders the state as URL query parameters, the inverse of FilterStateFromQuery.
func (f FilterState) URLValues() url.Values {
	n := f.Normalize()
	values := url.Values{}
	if n.Search != "" {
		values.Set("search", n.Search)
	}
	for _, facet := range AllFacets {
		for _, v := range n.Values(facet) {
			values.Add(facetParams[facet], v)
		}
	}
	if n.MRRRange[0] > MRRFloor {
		values.Set("mrr_min", strconv.FormatFloat(n.MRRRange[0], 'f', -1, 64))
	}
	if n.MRRRange[1] < MRRCeiling {
		values.Set("mrr_max", strconv.FormatFloat(n.MRRRange[1], 'f', -1, 64))
	}
	return values
}
