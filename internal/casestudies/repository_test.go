package casestudies

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoFilterNeutral(t *testing.T) {
	filter, err := mongoFilter(Compose(DefaultFilterState()))
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, filter)
}

func TestMongoFilter(t *testing.T) {
	s := DefaultFilterState().WithSearch("a.b").WithMRRRange(200, 1000)
	s, _ = s.Toggle(FacetCity, "Pune")
	s, _ = s.Toggle(FacetAWSServices, "EC2")

	filter, err := mongoFilter(Compose(s))
	require.NoError(t, err)

	want := bson.M{"$and": bson.A{
		bson.M{"city": bson.M{"$in": []string{"Pune"}}},
		bson.M{"aws_services": bson.M{"$all": []string{"EC2"}}},
		bson.M{"mrr": bson.M{"$gte": float64(200)}},
		bson.M{"$or": bson.A{
			bson.M{"heading": bson.M{"$regex": `a\.b`, "$options": "i"}},
			bson.M{"content": bson.M{"$regex": `a\.b`, "$options": "i"}},
			bson.M{"client_name": bson.M{"$regex": `a\.b`, "$options": "i"}},
		}},
	}}
	if diff := cmp.Diff(want, filter); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestMongoFilterRejectsUnknownOp(t *testing.T) {
	_, err := mongoFilter(Query{Conditions: []Condition{{Field: FieldCity, Op: "near"}}})
	assert.Error(t, err)
}

func TestBuildSelectNeutral(t *testing.T) {
	sql, args, err := buildSelect(Compose(DefaultFilterState()))
	require.NoError(t, err)
	assert.Equal(t, pgSelect+" ORDER BY created_at DESC", sql)
	assert.Empty(t, args)
}

func TestBuildSelect(t *testing.T) {
	s := DefaultFilterState().WithSearch("50%_off").WithMRRRange(0, 700)
	s, _ = s.Toggle(FacetIndustry, "Banking")
	s, _ = s.Toggle(FacetAWSServices, "EC2")
	s, _ = s.Toggle(FacetAWSServices, "RDS")

	sql, args, err := buildSelect(Compose(s))
	require.NoError(t, err)

	wantSQL := pgSelect + " WHERE industry = ANY($1) AND aws_services @> $2::text[] AND mrr <= $3" +
		" AND (heading ILIKE $4 OR content ILIKE $5 OR client_name ILIKE $6) ORDER BY created_at DESC"
	assert.Equal(t, wantSQL, sql)

	pattern := `%50\%\_off%`
	wantArgs := []any{[]string{"Banking"}, []string{"EC2", "RDS"}, float64(700), pattern, pattern, pattern}
	if diff := cmp.Diff(wantArgs, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSelectRejectsUnknownColumn(t *testing.T) {
	_, _, err := buildSelect(Query{Conditions: []Condition{{Field: "password", Op: OpIn, Values: []string{"x"}}}})
	assert.Error(t, err)
	_, _, err = buildSelect(Query{OrderBy: "1; DROP TABLE case_studies"})
	assert.Error(t, err)
}

func TestMemoryRepositoryHonoursContext(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Insert(ctx, CaseStudy{Heading: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.Find(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo, saved := seedRepo(t, CaseStudy{Heading: "x", AWSServices: []string{"EC2"}, MRR: mrr(10)})

	got, err := repo.FindByID(context.Background(), saved[0].ID)
	require.NoError(t, err)
	got.AWSServices[0] = "changed"
	*got.MRR = 99

	again, err := repo.FindByID(context.Background(), saved[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"EC2"}, again.AWSServices)
	assert.Equal(t, 10.0, *again.MRR)
}
