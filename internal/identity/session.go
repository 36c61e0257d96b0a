package identity

import (
	"context"
	"sync"
	"time"
)

// Session is the read-only view of who is signed in.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

type Event struct {
	Kind    EventKind
	Session Session
	At      time.Time
}

// SessionContext is the process-wide authentication state. It is created at
// start-up, observed through Subscribe, and torn down with Close.
type SessionContext struct {
	mu     sync.RWMutex
	subs   map[int]func(Event)
	nextID int
	closed bool
}

func NewSessionContext() *SessionContext {
	return &SessionContext{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for every session event. The returned func
// unsubscribes; calling it more than once is harmless.
func (c *SessionContext) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || fn == nil {
		return func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Subscribers reports how many listeners are registered.
func (c *SessionContext) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

func (c *SessionContext) publish(e Event) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Close drops every subscriber. Later events are discarded.
func (c *SessionContext) Close() {
	c.mu.Lock()
	c.closed = true
	c.subs = make(map[int]func(Event))
	c.mu.Unlock()
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session attached by RequireSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
