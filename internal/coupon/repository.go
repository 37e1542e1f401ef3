package coupon

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mcollection/storefront/internal/domain"
)

var (
	ErrNotFound  = errors.New("coupon not found")
	ErrExpired   = errors.New("coupon expired")
	ErrDuplicate = errors.New("customer already has an active coupon")
)

type CouponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `id, code, discount_percentage, expiration_date, is_active, user_id, created_at`

// Create relies on the partial unique index (one active coupon per
// customer): a conflicting insert affects zero rows and reports
// ErrDuplicate instead of racing a read-then-check.
func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	c.ID = uuid.New().String()
	c.IsActive = true
	c.CreatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (id, code, discount_percentage, expiration_date, is_active, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $6)
		ON CONFLICT (user_id) WHERE is_active DO NOTHING
	`, c.ID, c.Code, c.DiscountPercentage, c.ExpirationDate, c.UserID, c.CreatedAt)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrDuplicate
	}

	return nil
}

// FindActive looks up an active coupon by code for one customer.
func (r *CouponRepository) FindActive(ctx context.Context, code, userID string) (*domain.Coupon, error) {
	return r.findOne(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1 AND user_id = $2 AND is_active
	`, code, userID)
}

// ActiveForUser returns the customer's active coupon, ErrNotFound when
// there is none.
func (r *CouponRepository) ActiveForUser(ctx context.Context, userID string) (*domain.Coupon, error) {
	return r.findOne(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE user_id = $1 AND is_active
	`, userID)
}

func (r *CouponRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE coupons SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *CouponRepository) findOne(ctx context.Context, query string, params ...any) (*domain.Coupon, error) {
	c := &domain.Coupon{}
	err := r.db.QueryRowContext(ctx, query, params...).Scan(
		&c.ID, &c.Code, &c.DiscountPercentage, &c.ExpirationDate, &c.IsActive, &c.UserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
