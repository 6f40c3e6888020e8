package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is the verified admin identity held for the lifetime of a login.
// It is created only after both identity fetch and entitlement checks
// succeeded, written exactly once per login and read-only afterwards.
type Session struct {
	Username   string `json:"username"`
	ExternalID string `json:"external_id"`
	Avatar     string `json:"avatar"`
	Role       string `json:"role"`

	// Context captured at login time for session listings and audit detail.
	ClientIP string `json:"client_ip,omitempty"`
	Device   string `json:"device,omitempty"`
}

// DefaultSessionTTL bounds how long a login is trusted without
// re-verification against Discord.
const DefaultSessionTTL = time.Hour

// Store persists sessions keyed by opaque token. Get must purge malformed or
// legacy records (anything without an ExternalID) instead of returning them.
type Store interface {
	Put(ctx context.Context, token string, s Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (Session, bool)
	Delete(ctx context.Context, token string)
}

// NewStore returns a Redis-backed store when a client is available and an
// in-memory store otherwise.
func NewStore(rdb *redis.Client) Store {
	if rdb != nil {
		return &redisStore{rdb: rdb}
	}
	return newMemoryStore()
}

type redisStore struct {
	rdb *redis.Client
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (s *redisStore) Put(ctx context.Context, token string, sess Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(token), payload, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, token string) (Session, bool) {
	payload, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		return Session{}, false
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil || sess.ExternalID == "" {
		// Malformed or legacy record: purge, never trust.
		s.Delete(ctx, token)
		return Session{}, false
	}
	return sess, true
}

func (s *redisStore) Delete(ctx context.Context, token string) {
	_ = s.rdb.Del(ctx, sessionKey(token)).Err()
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) Put(ctx context.Context, token string, sess Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{session: sess, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(entry.expiresAt) || entry.session.ExternalID == "" {
		delete(s.entries, token)
		return Session{}, false
	}
	return entry.session, true
}

func (s *memoryStore) Delete(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
}

// EventKind distinguishes holder notifications.
type EventKind int

const (
	EventLogin EventKind = iota
	EventLogout
)

// Event notifies subscribers of a session lifecycle change.
type Event struct {
	Kind    EventKind
	Token   string
	Session *Session
}

// Holder owns the single admin session and notifies subscribers on login and
// logout, so components react to lifecycle changes through an explicit
// contract rather than ambient shared state.
type Holder struct {
	store Store
	ttl   time.Duration

	mu   sync.RWMutex
	subs []func(Event)
}

// NewHolder wraps a Store with lifecycle notification. A zero ttl falls back
// to DefaultSessionTTL.
func NewHolder(store Store, ttl time.Duration) *Holder {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Holder{store: store, ttl: ttl}
}

// Subscribe registers a callback invoked synchronously on login and logout.
func (h *Holder) Subscribe(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

func (h *Holder) notify(ev Event) {
	h.mu.RLock()
	subs := make([]func(Event), len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Login persists the session under a fresh opaque token and returns it.
func (h *Holder) Login(ctx context.Context, sess Session) (string, error) {
	token := uuid.New().String()
	if err := h.store.Put(ctx, token, sess, h.ttl); err != nil {
		return "", err
	}
	h.notify(Event{Kind: EventLogin, Token: token, Session: &sess})
	return token, nil
}

// Current returns the session for a token, if any. Malformed and expired
// records have already been purged by the store.
func (h *Holder) Current(ctx context.Context, token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	return h.store.Get(ctx, token)
}

// Logout clears the session unconditionally. It performs no network call
// against the identity provider and cannot fail.
func (h *Holder) Logout(ctx context.Context, token string) {
	session, ok := h.store.Get(ctx, token)
	h.store.Delete(ctx, token)
	ev := Event{Kind: EventLogout, Token: token}
	if ok {
		ev.Session = &session
	}
	h.notify(ev)
}
