package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"masareefy-import-service/internal/models"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
	ErrSessionNotFound = errors.New("import session not found")
	// ErrSessionLocked is returned when another request holds the session.
	ErrSessionLocked = errors.New("import session is locked")
)

// SessionStore keeps import sessions between preview and commit.
type SessionStore interface {
	Save(ctx context.Context, session *models.ImportSession) error
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSession, error)
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	// Lock claims a session for one state-changing request. It does not wait:
	// a held session returns ErrSessionLocked. The release function must be
	// called when the request is done.
	Lock(ctx context.Context, tenantID string, id uuid.UUID) (func(), error)
	TTL() time.Duration
}

const sessionKeyPrefix = "masareefy:import:session:"

func sessionKey(tenantID string, id uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", sessionKeyPrefix, tenantID, id)
}

func lockKey(tenantID string, id uuid.UUID) string {
	return sessionKey(tenantID, id) + ":lock"
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSessionStore stores sessions as JSON with an expiry.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) TTL() time.Duration { return s.ttl }

func (s *RedisSessionStore) Save(ctx context.Context, session *models.ImportSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode import session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.TenantID, session.ID), payload, s.ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSession, error) {
	payload, err := s.client.Get(ctx, sessionKey(tenantID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.ImportSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode import session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return s.client.Del(ctx, sessionKey(tenantID, id)).Err()
}

// Lock is a SET NX on a side key that expires with the session TTL.
func (s *RedisSessionStore) Lock(ctx context.Context, tenantID string, id uuid.UUID) (func(), error) {
	key := lockKey(tenantID, id)
	token := uuid.NewString()

	acquired, err := s.client.SetNX(ctx, key, token, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock import session: %w", err)
	}
	if !acquired {
		return nil, ErrSessionLocked
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, s.client, []string{key}, token).Err()
	}, nil
}

type memorySession struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySessionStore is used when Redis is not configured and in tests.
// Sessions are copied through JSON so callers never share state.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	locked   map[string]struct{}
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		locked:   make(map[string]struct{}),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) TTL() time.Duration { return s.ttl }

func (s *MemorySessionStore) Save(_ context.Context, session *models.ImportSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode import session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.sessions[sessionKey(session.TenantID, session.ID)] = memorySession{
		payload:   payload,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, tenantID string, id uuid.UUID) (*models.ImportSession, error) {
	s.mu.Lock()
	entry, ok := s.sessions[sessionKey(tenantID, id)]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.sessions, sessionKey(tenantID, id))
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	var session models.ImportSession
	if err := json.Unmarshal(entry.payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode import session: %w", err)
	}
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, tenantID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(tenantID, id))
	return nil
}

func (s *MemorySessionStore) Lock(_ context.Context, tenantID string, id uuid.UUID) (func(), error) {
	key := lockKey(tenantID, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.locked[key]; held {
		return nil, ErrSessionLocked
	}
	s.locked[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.locked, key)
			s.mu.Unlock()
		})
	}, nil
}

// evictExpired must be called with mu held.
func (s *MemorySessionStore) evictExpired() {
	now := s.now()
	for k, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, k)
		}
	}
}
