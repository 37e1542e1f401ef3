package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mcollection/storefront/internal/domain"
)

var ErrSessionNotFound = errors.New("payment session not found")

// PaymentSession mirrors the gateway contract: created from priced line
// items, later reporting a paid status. The gateway here is a mock;
// polling the status settles the session.
type PaymentSession struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	CouponCode string                 `json:"coupon_code,omitempty"`
	Shipping   domain.ShippingDetails `json:"shipping"`
	Total      int64                  `json:"total"`
	Paid       bool                   `json:"paid"`
	OrderID    string                 `json:"order_id,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type SessionStore interface {
	Create(ctx context.Context, session *PaymentSession) error
	Get(ctx context.Context, id string) (*PaymentSession, error)
	Update(ctx context.Context, session *PaymentSession) error
	// TrySettle claims the one-shot settlement of a session; only the
	// claim holder may convert it into an order. AbortSettle releases
	// the claim when that conversion fails.
	TrySettle(ctx context.Context, id string) (bool, error)
	AbortSettle(ctx context.Context, id string) error
}

const sessionTTL = 24 * time.Hour

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Create(ctx context.Context, session *PaymentSession) error {
	session.ID = uuid.New().String()
	session.CreatedAt = time.Now().UTC()
	return s.write(ctx, session)
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*PaymentSession, error) {
	data, err := s.client.Get(ctx, paymentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var session PaymentSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal payment session failed: %w", err)
	}

	return &session, nil
}

func (s *RedisSessionStore) Update(ctx context.Context, session *PaymentSession) error {
	return s.write(ctx, session)
}

// TrySettle is a SETNX claim so two concurrent polls cannot both
// convert the same session.
func (s *RedisSessionStore) TrySettle(ctx context.Context, id string) (bool, error) {
	acquired, err := s.client.SetNX(ctx, settleKey(id), "1", sessionTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return acquired, nil
}

func (s *RedisSessionStore) AbortSettle(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, settleKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) write(ctx context.Context, session *PaymentSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal payment session failed: %w", err)
	}

	if err := s.client.Set(ctx, paymentKey(session.ID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func paymentKey(id string) string {
	return "payment_session:" + id
}

func settleKey(id string) string {
	return "payment_session_settle:" + id
}
