package casestudies

import (
	"slices"
	"sort"
	"strings"
)

// Matches evaluates the query against a single record in memory.
func (q Query) Matches(item CaseStudy) bool {
	for _, c := range q.Conditions {
		if !c.matches(item) {
			return false
		}
	}
	if len(q.AnyOf) == 0 {
		return true
	}
	for _, c := range q.AnyOf {
		if c.matches(item) {
			return true
		}
	}
	return false
}

func (c Condition) matches(item CaseStudy) bool {
	switch c.Op {
	case OpILike:
		value, ok := textField(item, c.Field)
		return ok && strings.Contains(strings.ToLower(value), strings.ToLower(c.Text))
	case OpIn:
		value, ok := textField(item, c.Field)
		// absent values never match a selection
		return ok && value != "" && slices.Contains(c.Values, value)
	case OpContainsAll:
		if c.Field != FieldAWSServices {
			return false
		}
		for _, v := range c.Values {
			if !slices.Contains(item.AWSServices, v) {
				return false
			}
		}
		return true
	case OpGte:
		return c.Field == FieldMRR && item.MRR != nil && *item.MRR >= c.Number
	case OpLte:
		return c.Field == FieldMRR && item.MRR != nil && *item.MRR <= c.Number
	}
	return false
}

func textField(item CaseStudy, field string) (string, bool) {
	switch field {
	case FieldHeading:
		return item.Heading, true
	case FieldClientName:
		return item.ClientName, true
	case FieldAccountOwner:
		return item.AccountOwner, true
	case FieldContent:
		return item.Content, true
	case FieldIndustry:
		return item.Industry, true
	case FieldSubIndustry:
		return item.SubIndustry, true
	case FieldCity:
		return item.City, true
	case FieldUseCase:
		return item.UseCase, true
	case FieldAccountSegment:
		return item.AccountSegment, true
	case FieldAvailability:
		return item.Availability, true
	}
	return "", false
}

// Apply filters and orders items the way a store executing q would.
func (q Query) Apply(items []CaseStudy) []CaseStudy {
	out := make([]CaseStudy, 0, len(items))
	for _, item := range items {
		if q.Matches(item) {
			out = append(out, item)
		}
	}
	if q.OrderBy == FieldCreatedAt {
		sort.SliceStable(out, func(i, j int) bool {
			if q.Descending {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}
	return out
}
