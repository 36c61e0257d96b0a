package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/harshnakad-cyber/Finastra/internal/cache"
)

var (
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid token")
)

// Mailer delivers confirmation links. It returns the provider's message id.
type Mailer interface {
	SendConfirmation(ctx context.Context, toEmail, link string) (string, error)
}

type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	ConfirmTTL time.Duration
	Issuer     string
	// CallbackURL is the absolute URL of the confirmation endpoint.
	CallbackURL string
}

// SignedIn is returned whenever a session is opened.
type SignedIn struct {
	AccessToken string  `json:"access_token"`
	Session     Session `json:"session"`
}

type Service struct {
	store       Store
	tokens      *TokenManager
	registry    cache.Cache
	hub         *SessionContext
	mailer      Mailer
	callbackURL string
	log         *slog.Logger
	now         func() time.Time
}

func NewService(store Store, registry cache.Cache, hub *SessionContext, mailer Mailer, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewSessionContext()
	}
	if registry == nil {
		registry = cache.NewMemory()
	}
	return &Service{
		store: store,
		tokens: &TokenManager{
			Secret:     cfg.Secret,
			AccessTTL:  cfg.AccessTTL,
			ConfirmTTL: cfg.ConfirmTTL,
			Issuer:     cfg.Issuer,
		},
		registry:    registry,
		hub:         hub,
		mailer:      mailer,
		callbackURL: cfg.CallbackURL,
		log:         log,
		now:         time.Now,
	}
}

// Context exposes the session event hub.
func (s *Service) Context() *SessionContext {
	return s.hub
}

// SignUp registers an unconfirmed account and mails a confirmation link.
// Signing up again with an unconfirmed address re-sends the link.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)

	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Confirmed() {
			return ErrAlreadyRegistered
		}
		return s.sendConfirmation(ctx, existing)
	case !errors.Is(err, ErrUserNotFound):
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("create user: %w", err)
	}
	return s.sendConfirmation(ctx, user)
}

func (s *Service) sendConfirmation(ctx context.Context, user User) error {
	token, err := s.tokens.NewConfirmToken(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("confirm token: %w", err)
	}
	link := s.callbackURL + "?token=" + url.QueryEscape(token)
	if s.mailer == nil {
		s.log.Warn("identity signup: no mailer configured", slog.String("user_id", user.ID))
		return nil
	}
	messageID, err := s.mailer.SendConfirmation(ctx, user.Email, link)
	if err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	s.log.Info("identity signup: confirmation sent", slog.String("user_id", user.ID), slog.String("message_id", messageID))
	return nil
}

// Confirm redeems a confirmation token and signs the user in.
func (s *Service) Confirm(ctx context.Context, token string) (SignedIn, error) {
	claims, err := s.tokens.Parse(token, PurposeConfirm)
	if err != nil {
		return SignedIn{}, ErrInvalidToken
	}
	user, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return SignedIn{}, ErrInvalidToken
		}
		return SignedIn{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Confirmed() {
		now := s.now().UTC()
		if err := s.store.MarkConfirmed(ctx, user.ID, now); err != nil {
			return SignedIn{}, fmt.Errorf("confirm user: %w", err)
		}
		user.ConfirmedAt = &now
	}
	return s.open(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (SignedIn, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return SignedIn{}, ErrInvalidCredentials
		}
		return SignedIn{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return SignedIn{}, ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return SignedIn{}, ErrEmailNotConfirmed
	}
	return s.open(ctx, user)
}

func (s *Service) open(ctx context.Context, user User) (SignedIn, error) {
	jti := uuid.NewString()
	token, expires, err := s.tokens.NewAccessToken(user.ID, user.Email, jti)
	if err != nil {
		return SignedIn{}, fmt.Errorf("access token: %w", err)
	}
	if err := s.registry.Set(ctx, registryKey(jti), []byte(user.ID), s.tokens.AccessTTL); err != nil {
		return SignedIn{}, fmt.Errorf("register session: %w", err)
	}

	sess := Session{ID: jti, UserID: user.ID, Email: user.Email, ExpiresAt: expires}
	s.hub.publish(Event{Kind: EventSignedIn, Session: sess, At: s.now()})
	return SignedIn{AccessToken: token, Session: sess}, nil
}

// Session resolves an access token to a live session. Tokens whose session
// was signed out are rejected even before they expire.
func (s *Service) Session(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.Parse(token, PurposeAccess)
	if err != nil || claims.ID == "" {
		return Session{}, ErrInvalidToken
	}
	owner, ok, err := s.registry.Get(ctx, registryKey(claims.ID))
	if err != nil {
		return Session{}, fmt.Errorf("session registry: %w", err)
	}
	if !ok || string(owner) != claims.Subject {
		return Session{}, ErrInvalidToken
	}

	sess := Session{ID: claims.ID, UserID: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	sess, err := s.Session(ctx, token)
	if err != nil {
		return err
	}
	if err := s.registry.Delete(ctx, registryKey(sess.ID)); err != nil {
		return fmt.Errorf("session registry: %w", err)
	}
	s.hub.publish(Event{Kind: EventSignedOut, Session: sess, At: s.now()})
	return nil
}

func registryKey(jti string) string {
	return "session:" + jti
}
