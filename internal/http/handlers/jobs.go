package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"brandstudio/internal/admission"
	"brandstudio/internal/assembler"
	"brandstudio/internal/domain"
	"brandstudio/internal/executor"
)

type createJobRequest struct {
	BusinessID   string   `json:"business_id"`
	Prompt       string   `json:"prompt"`
	AspectRatio  string   `json:"aspect_ratio"`
	StyleID      string   `json:"style_id"`
	SubjectID    string   `json:"subject_id"`
	ModelTier    string   `json:"model_tier"`
	SubjectURL   string   `json:"subject_url"`
	BrandMarkURL string   `json:"brand_mark_url"`
	StyleRefURLs []string `json:"style_reference_urls"`
}

type jobResponse struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	ResultAssetID string     `json:"result_asset_id,omitempty"`
	Asset         *assetView `json:"asset,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type assetView struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Prompt      string    `json:"prompt"`
	AspectRatio string    `json:"aspect_ratio"`
	StylePreset string    `json:"style_preset,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateJob admits and dispatches a generation job, answering with the
// job id before generation runs.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.BusinessID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "business_id required")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt required")
		return
	}

	job, err := a.Submitter.Submit(r.Context(), executor.SubmitRequest{
		BusinessID:  req.BusinessID,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		StyleID:     req.StyleID,
		SubjectID:   req.SubjectID,
		ModelTier:   domain.NormalizeModelTier(req.ModelTier),
		References:  buildReferences(req),
	})
	if err != nil {
		var denied *admission.DeniedError
		switch {
		case errors.As(err, &denied):
			a.error(w, http.StatusPaymentRequired, "insufficient_credits",
				fmt.Sprintf("this request needs %d credits", denied.Required))
		case errors.Is(err, domain.ErrInvalidPrompt):
			a.error(w, http.StatusBadRequest, "bad_request", "prompt required")
		case errors.Is(err, executor.ErrQueueFull):
			a.error(w, http.StatusServiceUnavailable, "overloaded", "try again shortly")
		default:
			a.Logger.Error().Err(err).Msg("handlers: job submission failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		}
		return
	}

	a.json(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// buildReferences orders the request's context images. The subject and
// brand mark are critical; style references are best-effort.
func buildReferences(req createJobRequest) []assembler.Reference {
	var refs []assembler.Reference
	if req.SubjectURL != "" {
		refs = append(refs, assembler.Reference{URL: req.SubjectURL, Role: assembler.RoleSubject, Critical: true})
	}
	if req.BrandMarkURL != "" {
		refs = append(refs, assembler.Reference{URL: req.BrandMarkURL, Role: assembler.RoleBrandMark, Critical: true})
	}
	for _, url := range req.StyleRefURLs {
		if url == "" {
			continue
		}
		refs = append(refs, assembler.Reference{URL: url, Role: assembler.RoleStyle})
	}
	return refs
}

// JobStatus returns the current state of a job, embedding the produced
// asset once the job has completed. Reads are idempotent: they never
// re-trigger generation.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	resp := jobResponse{
		ID:            job.ID,
		Status:        string(job.Status),
		ErrorMessage:  job.ErrorMessage,
		ResultAssetID: job.ResultAssetID,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
	if job.Status == domain.JobStatusCompleted && job.ResultAssetID != "" {
		if asset, err := a.Assets.GetByID(r.Context(), job.ResultAssetID); err == nil {
			resp.Asset = &assetView{
				ID:          asset.ID,
				Content:     asset.Content,
				Prompt:      asset.Prompt,
				AspectRatio: asset.AspectRatio,
				StylePreset: asset.StylePreset,
				CreatedAt:   asset.CreatedAt,
			}
		} else {
			a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("handlers: completed job without loadable asset")
		}
	}
	a.json(w, http.StatusOK, resp)
}

// PendingJobs lists a business's non-terminal jobs for reload recovery.
func (a *App) PendingJobs(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "business_id")
	if businessID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "business_id required")
		return
	}
	jobs, err := a.Jobs.ListPendingByBusiness(r.Context(), businessID)
	if err != nil {
		a.Logger.Error().Err(err).Str("business_id", businessID).Msg("handlers: pending jobs lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load jobs")
		return
	}
	items := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobResponse{
			ID:        job.ID,
			Status:    string(job.Status),
			CreatedAt: job.CreatedAt,
			UpdatedAt: job.UpdatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": items})
}

// DeleteJob hard-deletes the job row. An in-flight execution is not
// interrupted; the caller is forgetting the job, not aborting it.
func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	if err := a.Jobs.Delete(r.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: job delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
