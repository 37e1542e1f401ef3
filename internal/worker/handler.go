package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mcollection/storefront/internal/domain"
	"github.com/mcollection/storefront/internal/orders"
)

// OrderStore is the slice of the orders repository the worker needs.
type OrderStore interface {
	CustomerEmail(ctx context.Context, orderID string) (string, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

// NotificationHandler confirms freshly placed orders and notifies the
// customer. Events may be redelivered, so every step is idempotent:
// confirming an already confirmed order is a no-op status write and a
// duplicate email is tolerated.
type NotificationHandler struct {
	orders          OrderStore
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(store OrderStore, emailServiceURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		orders:          store,
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	email, err := h.orders.CustomerEmail(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			// The order was deleted before the event arrived. Drop it.
			h.logger.Warn("order no longer exists, skipping", "order_id", event.OrderID)
			return nil
		}
		return fmt.Errorf("look up customer email: %w", err)
	}

	if err := h.sendConfirmationEmail(ctx, email, event); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	if _, err := h.orders.UpdateStatus(ctx, event.OrderID, domain.OrderStatusProcessing); err != nil {
		h.logger.Error("failed to move order to processing", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("update order status: %w", err)
	}

	h.logger.Info("order confirmed", "order_id", event.OrderID)
	return nil
}

func (h *NotificationHandler) sendConfirmationEmail(ctx context.Context, to string, event domain.OrderPlacedEvent) error {
	units := 0
	for _, item := range event.Items {
		units += item.Quantity
	}

	body := map[string]string{
		"to":      to,
		"subject": "Order Confirmation: " + event.OrderID,
		"body": fmt.Sprintf("Thank you for your purchase! Your order %s with %d items (total $%d.%02d) has been confirmed.",
			event.OrderID, units, event.Total/100, event.Total%100),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
