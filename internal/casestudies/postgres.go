package casestudies

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

// pgQuerier is the subset of *pgxpool.Pool the repository needs.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores case studies in the case_studies table of a
// Postgres database (the layout used by hosted Postgres offerings).
type PostgresRepository struct {
	db pgQuerier
}

func NewPostgresRepository(db pgQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const pgSelect = `SELECT id::text, heading, client_name, account_owner, mrr,
	coalesce(industry, ''), coalesce(sub_industry, ''), coalesce(city, ''),
	coalesce(use_case, ''), coalesce(account_segment, ''), coalesce(availability, ''),
	coalesce(aws_services, '{}'), content, created_at
FROM case_studies`

// pgColumns is the set of columns a Query may reference.
var pgColumns = map[string]struct{}{
	FieldHeading:        {},
	FieldClientName:     {},
	FieldAccountOwner:   {},
	FieldMRR:            {},
	FieldIndustry:       {},
	FieldSubIndustry:    {},
	FieldCity:           {},
	FieldAWSServices:    {},
	FieldUseCase:        {},
	FieldAccountSegment: {},
	FieldAvailability:   {},
	FieldContent:        {},
	FieldCreatedAt:      {},
}

func (r *PostgresRepository) Insert(ctx context.Context, item CaseStudy) (CaseStudy, error) {
	services := item.AWSServices
	if services == nil {
		services = []string{}
	}
	err := r.db.QueryRow(ctx, `INSERT INTO case_studies
		(heading, client_name, account_owner, mrr, industry, sub_industry, city,
		 use_case, account_segment, availability, aws_services, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id::text`,
		item.Heading, item.ClientName, item.AccountOwner, item.MRR,
		nullIfEmpty(item.Industry), nullIfEmpty(item.SubIndustry), nullIfEmpty(item.City),
		nullIfEmpty(item.UseCase), nullIfEmpty(item.AccountSegment), nullIfEmpty(item.Availability),
		services, item.Content, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return CaseStudy{}, err
	}
	return item, nil
}

func (r *PostgresRepository) Find(ctx context.Context, q Query) ([]CaseStudy, error) {
	sql, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]CaseStudy, 0)
	for rows.Next() {
		item, err := scanCaseStudy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (CaseStudy, error) {
	item, err := scanCaseStudy(r.db.QueryRow(ctx, pgSelect+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CaseStudy{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		// a malformed uuid cannot name any row
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
			return CaseStudy{}, ErrNotFound
		}
		return CaseStudy{}, err
	}
	return item, nil
}

func (r *PostgresRepository) Facets(ctx context.Context) (Facets, error) {
	results := make([][]string, len(AllFacets))
	g, gctx := errgroup.WithContext(ctx)
	for i, facet := range AllFacets {
		g.Go(func() error {
			col := facet.Column()
			sql := fmt.Sprintf("SELECT DISTINCT %s FROM case_studies WHERE %s IS NOT NULL AND %s <> ''", col, col, col)
			if facet == FacetAWSServices {
				sql = "SELECT DISTINCT s FROM case_studies, unnest(aws_services) AS s WHERE s <> ''"
			}
			rows, err := r.db.Query(gctx, sql)
			if err != nil {
				return fmt.Errorf("distinct %s: %w", col, err)
			}
			values, err := pgx.CollectRows(rows, pgx.RowTo[string])
			if err != nil {
				return fmt.Errorf("distinct %s: %w", col, err)
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

func scanCaseStudy(row pgx.Row) (CaseStudy, error) {
	var item CaseStudy
	err := row.Scan(
		&item.ID, &item.Heading, &item.ClientName, &item.AccountOwner, &item.MRR,
		&item.Industry, &item.SubIndustry, &item.City,
		&item.UseCase, &item.AccountSegment, &item.Availability,
		&item.AWSServices, &item.Content, &item.CreatedAt,
	)
	return item, err
}

// buildSelect renders q as a parameterised SELECT.
func buildSelect(q Query) (string, []any, error) {
	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	where := make([]string, 0, len(q.Conditions)+1)
	for _, c := range q.Conditions {
		clause, err := pgCondition(c, bind)
		if err != nil {
			return "", nil, err
		}
		where = append(where, clause)
	}
	if len(q.AnyOf) > 0 {
		parts := make([]string, 0, len(q.AnyOf))
		for _, c := range q.AnyOf {
			clause, err := pgCondition(c, bind)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, clause)
		}
		where = append(where, "("+strings.Join(parts, " OR ")+")")
	}

	var b strings.Builder
	b.WriteString(pgSelect)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if q.OrderBy != "" {
		if _, ok := pgColumns[q.OrderBy]; !ok {
			return "", nil, fmt.Errorf("unknown column %q", q.OrderBy)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
		if q.Descending {
			b.WriteString(" DESC")
		}
	}
	return b.String(), args, nil
}

func pgCondition(c Condition, bind func(any) string) (string, error) {
	if _, ok := pgColumns[c.Field]; !ok {
		return "", fmt.Errorf("unknown column %q", c.Field)
	}
	switch c.Op {
	case OpILike:
		return c.Field + " ILIKE " + bind("%"+escapeLike(c.Text)+"%"), nil
	case OpIn:
		return c.Field + " = ANY(" + bind(c.Values) + ")", nil
	case OpContainsAll:
		return c.Field + " @> " + bind(c.Values) + "::text[]", nil
	case OpGte:
		return c.Field + " >= " + bind(c.Number), nil
	case OpLte:
		return c.Field + " <= " + bind(c.Number), nil
	}
	return "", fmt.Errorf("unsupported operator %q", c.Op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
