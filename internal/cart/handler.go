package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcollection/storefront/internal/auth"
	"github.com/mcollection/storefront/internal/domain"
)

// CouponValidator resolves an applied coupon code for totals
// computation; the coupon package's service satisfies it. This is the
// same validation checkout runs, so an expired code never discounts the
// cart view. The coupon row is only consumed at checkout.
type CouponValidator interface {
	ValidateAndApply(ctx context.Context, code, userID string) (*domain.Coupon, error)
}

type Handler struct {
	repo    *CartRepository
	coupons CouponValidator
	logger  *slog.Logger
}

func NewHandler(repo *CartRepository, coupons CouponValidator, logger *slog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		coupons: coupons,
		logger:  logger,
	}
}

type cartResponse struct {
	Items  []domain.CartItem `json:"items"`
	Totals domain.CartTotals `json:"totals"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	items, err := h.repo.Items(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithTotals(w, r, id.UserID, items)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product_id")
		return
	}

	if err := h.repo.AddItem(r.Context(), id.UserID, req.ProductID, 1); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to add cart item", "error", err, "user_id", id.UserID, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.repo.Items(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item added", "user_id", id.UserID, "product_id", req.ProductID)
	h.respondWithTotals(w, r, id.UserID, items)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repo.SetQuantity(r.Context(), id.UserID, productID, req.Quantity); err != nil {
		h.logger.Error("failed to update cart quantity", "error", err, "user_id", id.UserID, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.repo.Items(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart quantity updated", "user_id", id.UserID, "product_id", productID, "quantity", req.Quantity)
	h.respondWithTotals(w, r, id.UserID, items)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	if err := h.repo.RemoveItem(r.Context(), id.UserID, productID); err != nil {
		h.logger.Error("failed to remove cart item", "error", err, "user_id", id.UserID, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.repo.Items(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item removed", "user_id", id.UserID, "product_id", productID)
	h.respondWithTotals(w, r, id.UserID, items)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	if err := h.repo.Clear(r.Context(), id.UserID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart cleared", "user_id", id.UserID)
	h.writeJSON(w, http.StatusOK, cartResponse{Items: []domain.CartItem{}, Totals: domain.CartTotals{}})
}

// respondWithTotals recomputes totals after every mutation. A `coupon`
// query parameter folds that coupon's discount in when it validates for
// the caller; an unknown or expired code is reflected as no discount
// rather than an error so a stale client code cannot break the cart view.
func (h *Handler) respondWithTotals(w http.ResponseWriter, r *http.Request, userID string, items []domain.CartItem) {
	var applied *domain.Coupon
	if code := r.URL.Query().Get("coupon"); code != "" {
		coupon, err := h.coupons.ValidateAndApply(r.Context(), code, userID)
		if err == nil {
			applied = coupon
		}
	}

	h.writeJSON(w, http.StatusOK, cartResponse{
		Items:  items,
		Totals: Totals(items, applied),
	})
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
