package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcollection/storefront/internal/cart"
	"github.com/mcollection/storefront/internal/catalog"
	"github.com/mcollection/storefront/internal/domain"
)

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrValidation = errors.New("invalid checkout input")
)

// CartStore is the slice of the cart engine checkout consumes.
type CartStore interface {
	Items(ctx context.Context, userID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

type StockDecrementer interface {
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

type CouponLedger interface {
	ValidateAndApply(ctx context.Context, code, userID string) (*domain.Coupon, error)
	Consume(ctx context.Context, code, userID string) error
	IssueIfEligible(ctx context.Context, userID string, orderTotal int64) (*domain.Coupon, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	carts    CartStore
	stock    StockDecrementer
	coupons  CouponLedger
	orders   OrderStore
	producer EventPublisher
	logger   *slog.Logger
}

func NewService(carts CartStore, stock StockDecrementer, coupons CouponLedger, orders OrderStore, producer EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		carts:    carts,
		stock:    stock,
		coupons:  coupons,
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

type PlaceOrderInput struct {
	Shipping      domain.ShippingDetails
	PaymentMethod domain.PaymentMethod
	CouponCode    string
	SessionID     string
}

// PlaceOrder converts the customer's cart into an order.
//
// The order and its line snapshots commit in one transaction. Everything
// after that commit is best-effort: stock decrements, coupon
// consumption, cart clearing and coupon issuance each log-and-continue
// on failure, so a committed order is never rolled back. A line whose
// product lacks stock still ships on the order; the decrement no-ops.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*domain.Order, error) {
	if err := validateShipping(in.Shipping); err != nil {
		return nil, err
	}

	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var applied *domain.Coupon
	if in.CouponCode != "" {
		applied, err = s.coupons.ValidateAndApply(ctx, in.CouponCode, userID)
		if err != nil {
			return nil, fmt.Errorf("apply coupon: %w", err)
		}
	}

	totals := cart.Totals(items, applied)
	if totals.Total <= 0 {
		return nil, fmt.Errorf("%w: order total must be positive", ErrValidation)
	}

	order := &domain.Order{
		UserID:        userID,
		Items:         snapshotLines(items),
		Total:         totals.Total,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		SessionID:     in.SessionID,
		Status:        domain.OrderStatusPending,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.settleAfterCommit(ctx, userID, order, applied)

	return order, nil
}

// settleAfterCommit runs steps that follow the order transaction. None
// of them can fail the checkout anymore; the order already stands.
func (s *Service) settleAfterCommit(ctx context.Context, userID string, order *domain.Order, applied *domain.Coupon) {
	for _, item := range order.Items {
		if err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				s.logger.Warn("stock decrement skipped, insufficient stock",
					"order_id", order.ID, "product_id", item.ProductID, "quantity", item.Quantity)
				continue
			}
			s.logger.Error("stock decrement failed", "error", err,
				"order_id", order.ID, "product_id", item.ProductID)
		}
	}

	if applied != nil {
		if err := s.coupons.Consume(ctx, applied.Code, userID); err != nil {
			s.logger.Error("failed to consume coupon", "error", err,
				"order_id", order.ID, "code", applied.Code)
		}
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Error("failed to clear cart after checkout", "error", err,
			"order_id", order.ID, "user_id", userID)
	}

	if _, err := s.coupons.IssueIfEligible(ctx, userID, order.Total); err != nil {
		s.logger.Error("failed to issue reward coupon", "error", err,
			"order_id", order.ID, "user_id", userID)
	}

	if s.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Items:     order.Items,
			Total:     order.Total,
			Timestamp: time.Now().UTC(),
		}
		if err := s.producer.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}
}

// Quote prices the current cart without placing anything; the payment
// session flow uses it to fix the amount the gateway charges.
func (s *Service) Quote(ctx context.Context, userID, couponCode string) ([]domain.CartItem, domain.CartTotals, error) {
	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, domain.CartTotals{}, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.CartTotals{}, ErrEmptyCart
	}

	var applied *domain.Coupon
	if couponCode != "" {
		applied, err = s.coupons.ValidateAndApply(ctx, couponCode, userID)
		if err != nil {
			return nil, domain.CartTotals{}, fmt.Errorf("apply coupon: %w", err)
		}
	}

	return items, cart.Totals(items, applied), nil
}

func validateShipping(sh domain.ShippingDetails) error {
	switch {
	case strings.TrimSpace(sh.Address) == "":
		return fmt.Errorf("%w: shipping address is required", ErrValidation)
	case strings.TrimSpace(sh.City) == "":
		return fmt.Errorf("%w: city is required", ErrValidation)
	case strings.TrimSpace(sh.Country) == "":
		return fmt.Errorf("%w: country is required", ErrValidation)
	case strings.TrimSpace(sh.PostalCode) == "":
		return fmt.Errorf("%w: postal code is required", ErrValidation)
	}
	return nil
}

func snapshotLines(items []domain.CartItem) []domain.OrderItem {
	lines := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return lines
}
