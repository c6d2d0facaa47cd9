package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps one Session per chat account.
type SessionStore interface {
	Load(ctx context.Context, externalID string) (Session, bool, error)
	Save(ctx context.Context, externalID string, s Session) error
	Clear(ctx context.Context, externalID string) error
}

const sessionKeyPrefix = "chat:session:"

// RedisSessionStore stores sessions as JSON with a sliding TTL, so an
// abandoned dialogue disappears on its own.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(externalID string) string { return sessionKeyPrefix + externalID }

func (s *RedisSessionStore) Load(ctx context.Context, externalID string) (Session, bool, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(externalID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("load chat session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// a corrupt session is dropped rather than wedging the account
		_ = s.rdb.Del(ctx, sessionKey(externalID)).Err()
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, externalID string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(externalID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save chat session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, externalID string) error {
	if err := s.rdb.Del(ctx, sessionKey(externalID)).Err(); err != nil {
		return fmt.Errorf("clear chat session: %w", err)
	}
	return nil
}

// MemorySessionStore is used when Redis is unavailable and in tests.
type MemorySessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memorySession
}

type memorySession struct {
	sess    Session
	expires time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemorySessionStore{ttl: ttl, now: time.Now, items: make(map[string]memorySession)}
}

func (m *MemorySessionStore) Load(_ context.Context, externalID string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[externalID]
	if !ok {
		return Session{}, false, nil
	}
	if m.now().After(it.expires) {
		delete(m.items, externalID)
		return Session{}, false, nil
	}
	return it.sess.at(it.sess.Step), true, nil
}

func (m *MemorySessionStore) Save(_ context.Context, externalID string, sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[externalID] = memorySession{sess: sess.at(sess.Step), expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Clear(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, externalID)
	return nil
}
