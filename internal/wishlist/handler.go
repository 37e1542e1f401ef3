package wishlist

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcollection/storefront/internal/auth"
)

type Handler struct {
	repo   *WishlistRepository
	logger *slog.Logger
}

func NewHandler(repo *WishlistRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	items, err := h.repo.List(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to list wishlist", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

type addRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product_id")
		return
	}

	added, err := h.repo.Add(r.Context(), id.UserID, req.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to add wishlist item", "error", err, "user_id", id.UserID, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("wishlist item added", "user_id", id.UserID, "product_id", req.ProductID, "added", added)
	h.writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	removed, err := h.repo.Remove(r.Context(), id.UserID, productID)
	if err != nil {
		h.logger.Error("failed to remove wishlist item", "error", err, "user_id", id.UserID, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("wishlist item removed", "user_id", id.UserID, "product_id", productID, "removed", removed)
	h.writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
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
