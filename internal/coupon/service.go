package coupon

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mcollection/storefront/internal/domain"
)

const (
	// Orders at or above this total (cents) earn the customer a coupon.
	EligibilityThreshold int64 = 20000

	issuedDiscountPercentage = 10
	issuedValidity           = 30 * 24 * time.Hour

	codePrefix    = "Mcollection"
	codeAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	codeSuffixLen = 6
)

// Store is the persistence surface the service works against;
// CouponRepository satisfies it.
type Store interface {
	Create(ctx context.Context, c *domain.Coupon) error
	FindActive(ctx context.Context, code, userID string) (*domain.Coupon, error)
	Deactivate(ctx context.Context, id string) error
	ActiveForUser(ctx context.Context, userID string) (*domain.Coupon, error)
}

type Service struct {
	repo   Store
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Store, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// IssueIfEligible hands out a fresh 10% coupon when a completed order's
// total crosses the threshold. A customer holding an active coupon is
// skipped silently; the buyer never sees this outcome.
func (s *Service) IssueIfEligible(ctx context.Context, userID string, orderTotal int64) (*domain.Coupon, error) {
	if orderTotal < EligibilityThreshold {
		return nil, nil
	}

	coupon := &domain.Coupon{
		Code:               generateCode(),
		DiscountPercentage: issuedDiscountPercentage,
		ExpirationDate:     s.now().UTC().Add(issuedValidity),
		UserID:             userID,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if errors.Is(err, ErrDuplicate) {
			s.logger.Info("coupon issuance skipped, active coupon exists", "user_id", userID)
			return nil, nil
		}
		return nil, err
	}

	s.logger.Info("coupon issued", "user_id", userID, "code", coupon.Code)
	return coupon, nil
}

// ValidateAndApply checks an entered code for one customer. An expired
// coupon is deactivated as a side effect, so retrying the same code
// reports NotFound rather than Expired.
func (s *Service) ValidateAndApply(ctx context.Context, code, userID string) (*domain.Coupon, error) {
	coupon, err := s.repo.FindActive(ctx, code, userID)
	if err != nil {
		return nil, err
	}

	if coupon.Expired(s.now()) {
		if err := s.repo.Deactivate(ctx, coupon.ID); err != nil {
			s.logger.Error("failed to deactivate expired coupon", "error", err, "coupon_id", coupon.ID)
		}
		return nil, ErrExpired
	}

	return coupon, nil
}

// Consume deactivates a coupon once the order it discounted is placed.
func (s *Service) Consume(ctx context.Context, code, userID string) error {
	coupon, err := s.repo.FindActive(ctx, code, userID)
	if err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, coupon.ID)
}

func (s *Service) ActiveForUser(ctx context.Context, userID string) (*domain.Coupon, error) {
	return s.repo.ActiveForUser(ctx, userID)
}

func generateCode() string {
	suffix := make([]byte, codeSuffixLen)
	for i := range suffix {
		suffix[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return codePrefix + string(suffix)
}
