package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           string     `bson:"_id" json:"id"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	ConfirmedAt  *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
}

func (u User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// Store persists accounts. Create returns ErrAlreadyRegistered when the
// e-mail is taken; lookups return ErrUserNotFound.
type Store interface {
	Create(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	MarkConfirmed(ctx context.Context, id string, at time.Time) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Create(ctx context.Context, u User) error {
	_, err := s.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyRegistered
	}
	return err
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (User, error) {
	var u User
	err := s.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *MongoStore) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"confirmed_at": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps accounts in the users table.
type PostgresStore struct {
	db pgQuerier
}

func NewPostgresStore(db pgQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, confirmed_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.ConfirmedAt, u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyRegistered
	}
	return err
}

const pgUserSelect = `SELECT id, email, password_hash, confirmed_at, created_at FROM users`

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.scan(s.db.QueryRow(ctx, pgUserSelect+` WHERE email = $1`, normalizeEmail(email)))
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	return s.scan(s.db.QueryRow(ctx, pgUserSelect+` WHERE id = $1`, id))
}

func (s *PostgresStore) scan(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.ConfirmedAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *PostgresStore) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET confirmed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return ErrAlreadyRegistered
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryStore) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.ConfirmedAt = &at
	s.byID[id] = u
	return nil
}
