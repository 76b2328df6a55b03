package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"brandstudio/internal/domain"
)

// CreditBalance reports a business's remaining credits. The client
// refreshes this after a failed job to reflect the refund.
func (a *App) CreditBalance(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "business_id")
	if businessID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "business_id required")
		return
	}
	balance, err := a.Credits.Balance(r.Context(), businessID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "business not found")
			return
		}
		a.Logger.Error().Err(err).Str("business_id", businessID).Msg("handlers: balance lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"balance": balance})
}
