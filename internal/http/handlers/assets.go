package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BusinessAssets lists a business's durable assets, newest first. The
// client uses this to confirm a pending placeholder may collapse into
// its finished asset.
func (a *App) BusinessAssets(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "business_id")
	if businessID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "business_id required")
		return
	}
	assets, err := a.Assets.ListByBusiness(r.Context(), businessID)
	if err != nil {
		a.Logger.Error().Err(err).Str("business_id", businessID).Msg("handlers: asset list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	items := make([]assetView, 0, len(assets))
	for _, asset := range assets {
		items = append(items, assetView{
			ID:          asset.ID,
			Content:     asset.Content,
			Prompt:      asset.Prompt,
			AspectRatio: asset.AspectRatio,
			StylePreset: asset.StylePreset,
			CreatedAt:   asset.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"assets": items})
}
