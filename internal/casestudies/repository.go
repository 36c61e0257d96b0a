package casestudies

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Repository is the persistence/query backend for case studies. Adapters
// return ErrNotFound from FindByID when no record has the identifier.
type Repository interface {
	Insert(ctx context.Context, item CaseStudy) (CaseStudy, error)
	Find(ctx context.Context, q Query) ([]CaseStudy, error)
	FindByID(ctx context.Context, id string) (CaseStudy, error)
	Facets(ctx context.Context) (Facets, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, item CaseStudy) (CaseStudy, error) {
	item.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, item); err != nil {
		return CaseStudy{}, err
	}
	return item, nil
}

func (r *MongoRepository) Find(ctx context.Context, q Query) ([]CaseStudy, error) {
	filter, err := mongoFilter(q)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]CaseStudy, 0)
	for cursor.Next(ctx) {
		var item CaseStudy
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (CaseStudy, error) {
	var item CaseStudy
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return CaseStudy{}, ErrNotFound
		}
		return CaseStudy{}, err
	}
	return item, nil
}

// Facets asks the server for the distinct values of each categorical field.
// distinct unwinds aws_services on its own.
func (r *MongoRepository) Facets(ctx context.Context) (Facets, error) {
	results := make([][]string, len(AllFacets))
	g, gctx := errgroup.WithContext(ctx)
	for i, facet := range AllFacets {
		g.Go(func() error {
			raw, err := r.col.Distinct(gctx, facet.Column(), bson.M{})
			if err != nil {
				return fmt.Errorf("distinct %s: %w", facet.Column(), err)
			}
			values := make([]string, 0, len(raw))
			for _, v := range raw {
				if s, ok := v.(string); ok {
					values = append(values, s)
				}
			}
			results[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Facets{}, err
	}

	var out Facets
	for i, facet := range AllFacets {
		out.setOptions(facet, distinctOptions(results[i]))
	}
	return out, nil
}

func mongoFilter(q Query) (bson.M, error) {
	and := make(bson.A, 0, len(q.Conditions)+1)
	for _, c := range q.Conditions {
		cond, err := mongoCondition(c)
		if err != nil {
			return nil, err
		}
		and = append(and, cond)
	}
	if len(q.AnyOf) > 0 {
		or := make(bson.A, 0, len(q.AnyOf))
		for _, c := range q.AnyOf {
			cond, err := mongoCondition(c)
			if err != nil {
				return nil, err
			}
			or = append(or, cond)
		}
		and = append(and, bson.M{"$or": or})
	}
	if len(and) == 0 {
		return bson.M{}, nil
	}
	return bson.M{"$and": and}, nil
}

func mongoCondition(c Condition) (bson.M, error) {
	switch c.Op {
	case OpILike:
		return bson.M{c.Field: bson.M{"$regex": regexp.QuoteMeta(c.Text), "$options": "i"}}, nil
	case OpIn:
		return bson.M{c.Field: bson.M{"$in": c.Values}}, nil
	case OpContainsAll:
		return bson.M{c.Field: bson.M{"$all": c.Values}}, nil
	case OpGte:
		return bson.M{c.Field: bson.M{"$gte": c.Number}}, nil
	case OpLte:
		return bson.M{c.Field: bson.M{"$lte": c.Number}}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", c.Op)
}
