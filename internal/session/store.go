/**
 * @description
 * Session-keyed storage for pending registrations. Each session holds at most
 * one pending record; writing replaces any prior record for that session, and
 * records expire on their own after the verification budget elapses.
 *
 * The production implementation keeps records in Redis under a TTL key; the
 * in-memory implementation backs tests and single-node development.
 */

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
)

// ErrNotFound is returned when a session has no pending registration.
var ErrNotFound = errors.New("no pending registration for session")

// keyPendingRegistration is the Redis key pattern: otp:pending:{session_id}.
const keyPendingRegistration = "otp:pending:%s"

// PendingStore maps a session id to at most one pending registration.
type PendingStore interface {
	Put(ctx context.Context, sessionID string, reg *domain.PendingRegistration) error
	Get(ctx context.Context, sessionID string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore keeps pending registrations in Redis with a TTL slightly above
// the absolute expiry so the explicit wall-clock check stays authoritative.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed pending-registration store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: domain.PendingRegistrationTTL + time.Minute}
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, reg *domain.PendingRegistration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fmt.Sprintf(keyPendingRegistration, sessionID), payload, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*domain.PendingRegistration, error) {
	payload, err := s.rdb.Get(ctx, fmt.Sprintf(keyPendingRegistration, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var reg domain.PendingRegistration
	if err := json.Unmarshal(payload, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keyPendingRegistration, sessionID)).Err()
}

// MemoryStore is a process-local PendingStore for tests and development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	reg       domain.PendingRegistration
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory pending-registration store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, reg *domain.PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{
		reg:       *reg,
		expiresAt: s.now().Add(domain.PendingRegistrationTTL + time.Minute),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*domain.PendingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return nil, ErrNotFound
	}
	reg := entry.reg
	return &reg, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
