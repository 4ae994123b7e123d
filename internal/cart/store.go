package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redisclient "github.com/mateovidal/storelane-backend/pkg/redis"
)

// DefaultTTL keeps abandoned carts around for a month.
const DefaultTTL = 30 * 24 * time.Hour

type cartCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

// Store persists carts in Redis keyed by user.
type Store struct {
	cache cartCache
	ttl   time.Duration
}

// NewStore builds a cart store backed by the shared Redis client.
func NewStore(client *redisclient.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: client, ttl: ttl}, nil
}

// Load returns the user's cart, or an empty cart when none is stored.
func (s *Store) Load(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	raw, err := s.cache.Get(ctx, s.cache.CartKey(userID.String()))
	if err != nil {
		if redisclient.IsNil(err) {
			return &Cart{}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

// Save writes the cart back with the configured TTL.
func (s *Store) Save(ctx context.Context, userID uuid.UUID, cart *Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.cache.Set(ctx, s.cache.CartKey(userID.String()), string(payload), s.ttl)
}

// Clear removes the user's cart entirely.
func (s *Store) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Del(ctx, s.cache.CartKey(userID.String()))
}
