package casestudies

import (
	"slices"
	"sort"
	"strings"
)

// Facets holds the selectable options for every categorical field.
// Each list is a set; order carries no meaning.
type Facets struct {
	Cities              []string `json:"cities"`
	Industries          []string `json:"industries"`
	SubIndustries       []string `json:"subIndustries"`
	AWSServices         []string `json:"awsServices"`
	UseCases            []string `json:"useCases"`
	AccountSegments     []string `json:"accountSegments"`
	AvailabilityOptions []string `json:"availabilityOptions"`
}

// Options returns the option set for a facet.
func (f Facets) Options(facet Facet) []string {
	switch facet {
	case FacetCity:
		return f.Cities
	case FacetIndustry:
		return f.Industries
	case FacetSubIndustry:
		return f.SubIndustries
	case FacetUseCase:
		return f.UseCases
	case FacetAccountSegment:
		return f.AccountSegments
	case FacetAvailability:
		return f.AvailabilityOptions
	case FacetAWSServices:
		return f.AWSServices
	}
	return nil
}

func (f *Facets) setOptions(facet Facet, options []string) {
	switch facet {
	case FacetCity:
		f.Cities = options
	case FacetIndustry:
		f.Industries = options
	case FacetSubIndustry:
		f.SubIndustries = options
	case FacetUseCase:
		f.UseCases = options
	case FacetAccountSegment:
		f.AccountSegments = options
	case FacetAvailability:
		f.AvailabilityOptions = options
	case FacetAWSServices:
		f.AWSServices = options
	}
}

// DeriveFacets collects the distinct non-empty values of every categorical
// field across items. AWS services are flattened before deduplication.
func DeriveFacets(items []CaseStudy) Facets {
	raw := make(map[Facet][]string, len(AllFacets))
	for _, item := range items {
		raw[FacetCity] = append(raw[FacetCity], item.City)
		raw[FacetIndustry] = append(raw[FacetIndustry], item.Industry)
		raw[FacetSubIndustry] = append(raw[FacetSubIndustry], item.SubIndustry)
		raw[FacetUseCase] = append(raw[FacetUseCase], item.UseCase)
		raw[FacetAccountSegment] = append(raw[FacetAccountSegment], item.AccountSegment)
		raw[FacetAvailability] = append(raw[FacetAvailability], item.Availability)
		raw[FacetAWSServices] = append(raw[FacetAWSServices], item.AWSServices...)
	}

	var out Facets
	for _, facet := range AllFacets {
		out.setOptions(facet, distinctOptions(raw[facet]))
	}
	return out
}

// distinctOptions drops empty values and duplicates and sorts the rest.
func distinctOptions(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// WithDefaults fills the fields that have a static enumeration when nothing
// was derived for them, and replaces nil lists with empty ones.
func (f Facets) WithDefaults() Facets {
	out := f
	for _, facet := range AllFacets {
		if out.Options(facet) == nil {
			out.setOptions(facet, []string{})
		}
	}
	if len(out.UseCases) == 0 {
		out.UseCases = slices.Clone(DefaultUseCases)
	}
	if len(out.AccountSegments) == 0 {
		out.AccountSegments = slices.Clone(DefaultAccountSegments)
	}
	if len(out.AvailabilityOptions) == 0 {
		out.AvailabilityOptions = slices.Clone(DefaultAvailabilityOptions)
	}
	return out
}
