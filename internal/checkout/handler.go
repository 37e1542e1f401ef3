package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcollection/storefront/internal/auth"
	"github.com/mcollection/storefront/internal/coupon"
	"github.com/mcollection/storefront/internal/domain"
)

type Handler struct {
	svc      *Service
	sessions SessionStore
	logger   *slog.Logger
}

func NewHandler(svc *Service, sessions SessionStore, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		logger:   logger,
	}
}

type placeOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	City            string `json:"city"`
	Country         string `json:"country"`
	PostalCode      string `json:"postal_code"`
	CouponCode      string `json:"coupon_code"`
}

func (r placeOrderRequest) shipping() domain.ShippingDetails {
	return domain.ShippingDetails{
		Address:    r.ShippingAddress,
		City:       r.City,
		Country:    r.Country,
		PostalCode: r.PostalCode,
	}
}

// HandlePlaceOrder is the cash-on-delivery checkout: no gateway round
// trip, the cart converts to an order immediately.
func (h *Handler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.PlaceOrder(r.Context(), id.UserID, PlaceOrderInput{
		Shipping:      req.shipping(),
		PaymentMethod: domain.PaymentCashOnDelivery,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		h.writeCheckoutError(w, err, id.UserID)
		return
	}

	h.logger.Info("order placed", "order_id", order.ID, "user_id", id.UserID, "total", order.Total)
	h.writeJSON(w, http.StatusCreated, order)
}

// HandleCreateSession opens a mock payment session priced from the
// current cart. The cart itself is untouched until the session settles.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateShipping(req.shipping()); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, totals, err := h.svc.Quote(r.Context(), id.UserID, req.CouponCode)
	if err != nil {
		h.writeCheckoutError(w, err, id.UserID)
		return
	}

	session := &PaymentSession{
		UserID:     id.UserID,
		CouponCode: req.CouponCode,
		Shipping:   req.shipping(),
		Total:      totals.Total,
	}
	if err := h.sessions.Create(r.Context(), session); err != nil {
		h.logger.Error("failed to create payment session", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("payment session created", "session_id", session.ID, "user_id", id.UserID, "total", session.Total)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"session_id":   session.ID,
		"total_amount": session.Total,
	})
}

// HandleSessionStatus settles a mock payment session. The first poll
// claims the settlement, marks the session paid and converts the cart
// into a card order; concurrent and later polls return the already
// placed order instead of a duplicate.
func (h *Handler) HandleSessionStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "payment session not found")
			return
		}
		h.logger.Error("failed to load payment session", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if session.UserID != id.UserID {
		h.writeError(w, http.StatusForbidden, "not your payment session")
		return
	}

	if session.Paid {
		h.writeJSON(w, http.StatusOK, map[string]any{"paid": true, "order_id": session.OrderID})
		return
	}

	acquired, err := h.sessions.TrySettle(r.Context(), session.ID)
	if err != nil {
		h.logger.Error("failed to claim settlement", "error", err, "session_id", session.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !acquired {
		// Another poll holds the claim. Report the latest state; the
		// client keeps polling until that settlement lands.
		current, err := h.sessions.Get(r.Context(), sessionID)
		if err == nil && current.Paid {
			h.writeJSON(w, http.StatusOK, map[string]any{"paid": true, "order_id": current.OrderID})
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"paid": false})
		return
	}

	order, err := h.svc.PlaceOrder(r.Context(), id.UserID, PlaceOrderInput{
		Shipping:      session.Shipping,
		PaymentMethod: domain.PaymentCard,
		CouponCode:    session.CouponCode,
		SessionID:     session.ID,
	})
	if err != nil {
		if abortErr := h.sessions.AbortSettle(r.Context(), session.ID); abortErr != nil {
			h.logger.Error("failed to release settlement claim", "error", abortErr, "session_id", session.ID)
		}
		h.writeCheckoutError(w, err, id.UserID)
		return
	}

	session.Paid = true
	session.OrderID = order.ID
	if err := h.sessions.Update(r.Context(), session); err != nil {
		h.logger.Error("failed to settle payment session", "error", err, "session_id", session.ID)
	}

	h.logger.Info("payment session settled", "session_id", session.ID, "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, map[string]any{"paid": true, "order_id": order.ID})
}

// writeCheckoutError maps checkout failures onto the API contract. The
// cart is left intact on every path so the customer can retry.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error, userID string) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		h.writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coupon.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "coupon not found")
	case errors.Is(err, coupon.ErrExpired):
		h.writeError(w, http.StatusGone, "coupon expired")
	default:
		h.logger.Error("checkout failed", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
