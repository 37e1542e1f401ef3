package review

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcollection/storefront/internal/auth"
	"github.com/mcollection/storefront/internal/domain"
)

type Handler struct {
	repo   *ReviewRepository
	logger *slog.Logger
}

func NewHandler(repo *ReviewRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type addReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	rev := &domain.Review{
		UserID:    id.UserID,
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.repo.Create(r.Context(), rev); err != nil {
		h.logger.Error("failed to add review", "error", err, "product_id", productID, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("review added", "product_id", productID, "user_id", id.UserID, "rating", req.Rating)
	h.writeJSON(w, http.StatusCreated, rev)
}

type reviewsResponse struct {
	Reviews []domain.Review `json:"reviews"`
	Average float64         `json:"average"`
	Count   int             `json:"count"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	reviews, err := h.repo.ListForProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	summary, err := h.repo.Summary(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to summarize reviews", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, reviewsResponse{
		Reviews: reviews,
		Average: summary.Average,
		Count:   summary.Count,
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
