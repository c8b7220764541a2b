package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for unknown or expired reviewer sessions
var ErrSessionNotFound = errors.New("reviewer session not found")

// ReviewerSession is the server-side state behind an external reviewer's cookie
type ReviewerSession struct {
	ID             string    `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	ReviewerID     uuid.UUID `json:"reviewer_id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Email          string    `json:"email"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// NewReviewerSession creates a session with a random id
func NewReviewerSession(tenantID, reviewerID, organisationID uuid.UUID, email string, expiresAt time.Time) *ReviewerSession {
	return &ReviewerSession{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ReviewerID:     reviewerID,
		OrganisationID: organisationID,
		Email:          email,
		ExpiresAt:      expiresAt,
	}
}

// ReviewerSessionRegistry stores reviewer sessions until they expire
type ReviewerSessionRegistry interface {
	// Create stores s until s.ExpiresAt
	Create(ctx context.Context, s *ReviewerSession) error
	// Get returns the session or ErrSessionNotFound
	Get(ctx context.Context, id string) (*ReviewerSession, error)
	// Delete ends a session. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error
}

// RedisReviewerSessionRegistry keeps sessions in Redis with a TTL
type RedisReviewerSessionRegistry struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisReviewerSessionRegistry connects to Redis and verifies the connection
func NewRedisReviewerSessionRegistry(addr, password string, db int) (*RedisReviewerSessionRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for reviewer sessions: %w", err)
	}
	return NewRedisReviewerSessionRegistryWithClient(client), nil
}

// NewRedisReviewerSessionRegistryWithClient wraps an existing client
func NewRedisReviewerSessionRegistryWithClient(client *redis.Client) *RedisReviewerSessionRegistry {
	return &RedisReviewerSessionRegistry{client: client, keyPrefix: "reviewer:session:"}
}

func (r *RedisReviewerSessionRegistry) key(id string) string {
	return r.keyPrefix + id
}

// Create stores the session with a TTL matching its expiry
func (r *RedisReviewerSessionRegistry) Create(ctx context.Context, s *ReviewerSession) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionNotFound
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode reviewer session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reviewer session: %w", err)
	}
	return nil
}

// Get loads a session
func (r *RedisReviewerSessionRegistry) Get(ctx context.Context, id string) (*ReviewerSession, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer session: %w", err)
	}
	var s ReviewerSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode reviewer session: %w", err)
	}
	return &s, nil
}

// Delete removes a session
func (r *RedisReviewerSessionRegistry) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete reviewer session: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (r *RedisReviewerSessionRegistry) Close() error {
	return r.client.Close()
}

var _ ReviewerSessionRegistry = (*RedisReviewerSessionRegistry)(nil)

// InMemoryReviewerSessionRegistry keeps sessions in process memory.
// Sessions are lost on restart and not shared between instances.
type InMemoryReviewerSessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]ReviewerSession
	now      func() time.Time
}

// NewInMemoryReviewerSessionRegistry creates an empty registry
func NewInMemoryReviewerSessionRegistry() *InMemoryReviewerSessionRegistry {
	return &InMemoryReviewerSessionRegistry{
		sessions: make(map[string]ReviewerSession),
		now:      time.Now,
	}
}

// Create stores a copy of s
func (r *InMemoryReviewerSessionRegistry) Create(_ context.Context, s *ReviewerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !s.ExpiresAt.After(r.now()) {
		return ErrSessionNotFound
	}
	r.sessions[s.ID] = *s
	return nil
}

// Get returns the session if it has not expired
func (r *InMemoryReviewerSessionRegistry) Get(_ context.Context, id string) (*ReviewerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.ExpiresAt.After(r.now()) {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// Delete removes a session
func (r *InMemoryReviewerSessionRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

var _ ReviewerSessionRegistry = (*InMemoryReviewerSessionRegistry)(nil)
