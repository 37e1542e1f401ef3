package coupon

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcollection/storefront/internal/auth"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// HandleGet returns the caller's active coupon. Having none is not an
// error; the coupon field is simply null.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	coupon, err := h.svc.ActiveForUser(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusOK, map[string]any{"coupon": nil})
			return
		}
		h.logger.Error("failed to get coupon", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"coupon": coupon})
}

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	code := r.PathValue("code")
	if code == "" {
		h.writeError(w, http.StatusBadRequest, "missing coupon code")
		return
	}

	coupon, err := h.svc.ValidateAndApply(r.Context(), code, id.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.writeError(w, http.StatusNotFound, "coupon not found")
		case errors.Is(err, ErrExpired):
			h.writeError(w, http.StatusGone, "coupon expired")
		default:
			h.logger.Error("failed to validate coupon", "error", err, "user_id", id.UserID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("coupon validated", "user_id", id.UserID, "code", code)
	h.writeJSON(w, http.StatusOK, map[string]any{"coupon": coupon})
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
