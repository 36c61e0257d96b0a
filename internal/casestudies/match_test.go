package casestudies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func list(t *testing.T, repo Repository, s FilterState) []CaseStudy {
	t.Helper()
	items, err := newTestService(repo).List(context.Background(), s)
	require.NoError(t, err)
	return items
}

func TestNeutralStateReturnsEverythingNewestFirst(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "oldest"},
		CaseStudy{Heading: "middle", City: "Pune"},
		CaseStudy{Heading: "newest", MRR: mrr(5)},
	)
	got := list(t, repo, DefaultFilterState())
	assert.Equal(t, []string{saved[2].ID, saved[1].ID, saved[0].ID}, ids(got))
}

func TestFacetSelectionIsMembership(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "a", City: "Pune"},
		CaseStudy{Heading: "b", City: "Mumbai"},
		CaseStudy{Heading: "c", City: "Delhi"},
		CaseStudy{Heading: "d"},
	)
	s, _ := DefaultFilterState().Toggle(FacetCity, "Pune")
	s, _ = s.Toggle(FacetCity, "Delhi")

	got := list(t, repo, s)
	assert.ElementsMatch(t, []string{saved[0].ID, saved[2].ID}, ids(got))
	for _, item := range got {
		assert.Contains(t, s.City, item.City)
	}
}

func TestFacetsCombineWithAnd(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "a", City: "Pune", Industry: "Banking"},
		CaseStudy{Heading: "b", City: "Pune", Industry: "Insurance"},
	)
	s, _ := DefaultFilterState().Toggle(FacetCity, "Pune")
	s, _ = s.Toggle(FacetIndustry, "Insurance")
	assert.Equal(t, []string{saved[1].ID}, ids(list(t, repo, s)))
}

func TestAWSServicesRequireEveryToken(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "both", AWSServices: []string{"RDS", "EC2", "S3"}},
		CaseStudy{Heading: "ec2 only", AWSServices: []string{"EC2"}},
		CaseStudy{Heading: "rds only", AWSServices: []string{"RDS"}},
		CaseStudy{Heading: "none"},
	)
	s, _ := DefaultFilterState().Toggle(FacetAWSServices, "EC2")
	s, _ = s.Toggle(FacetAWSServices, "RDS")

	assert.Equal(t, []string{saved[0].ID}, ids(list(t, repo, s)))
}

func TestMRRLowerBound(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "150", MRR: mrr(150)},
		CaseStudy{Heading: "null"},
		CaseStudy{Heading: "500", MRR: mrr(500)},
	)
	got := list(t, repo, DefaultFilterState().WithMRRRange(200, 1000))
	assert.Equal(t, []string{saved[2].ID}, ids(got))
}

func TestMRRUpperBound(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "150", MRR: mrr(150)},
		CaseStudy{Heading: "null"},
		CaseStudy{Heading: "500", MRR: mrr(500)},
	)
	got := list(t, repo, DefaultFilterState().WithMRRRange(0, 300))
	assert.Equal(t, []string{saved[0].ID}, ids(got))
}

func TestInvertedMRRRangeMatchesNothing(t *testing.T) {
	repo, _ := seedRepo(t,
		CaseStudy{Heading: "150", MRR: mrr(150)},
		CaseStudy{Heading: "400", MRR: mrr(400)},
		CaseStudy{Heading: "null"},
	)
	assert.Empty(t, list(t, repo, DefaultFilterState().WithMRRRange(600, 300)))
}

func TestMRRNullPassesWhenUnbounded(t *testing.T) {
	repo, _ := seedRepo(t, CaseStudy{Heading: "null"}, CaseStudy{Heading: "2000", MRR: mrr(2000)})
	assert.Len(t, list(t, repo, DefaultFilterState()), 2)
	// 2000 is above the slider but the upper sentinel applies no bound
	assert.Len(t, list(t, repo, DefaultFilterState().WithMRRRange(100, 1000)), 1)
}

func TestSearchTextIsNotTrimmed(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "AlphaBank"},
		CaseStudy{Heading: "Alpha Bank"},
	)
	got := list(t, repo, DefaultFilterState().WithSearch("alpha "))
	assert.Equal(t, []string{saved[1].ID}, ids(got))
	assert.Len(t, list(t, repo, DefaultFilterState().WithSearch("   ")), 2)
}

func TestSearchIsCaseInsensitiveAcrossColumns(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "Alpha Bank Migration", ClientName: "Zed Ltd"},
		CaseStudy{Heading: "Data lake", ClientName: "Alpha Finance"},
		CaseStudy{Heading: "Fraud scoring", ClientName: "Beta", Content: "<p>built with ALPHA tooling</p>"},
		CaseStudy{Heading: "Claims", ClientName: "Gamma", AccountOwner: "alpha owner"},
	)
	got := list(t, repo, DefaultFilterState().WithSearch("alpha"))
	assert.ElementsMatch(t, []string{saved[0].ID, saved[1].ID, saved[2].ID}, ids(got))
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	repo, saved := seedRepo(t,
		CaseStudy{Heading: "100% uptime"},
		CaseStudy{Heading: "100 percent"},
	)
	got := list(t, repo, DefaultFilterState().WithSearch("100%"))
	assert.Equal(t, []string{saved[0].ID}, ids(got))
}

func TestEmptyValueNeverMatchesSelection(t *testing.T) {
	q := Query{Conditions: []Condition{{Field: FieldCity, Op: OpIn, Values: []string{""}}}}
	assert.False(t, q.Matches(CaseStudy{}))
}
