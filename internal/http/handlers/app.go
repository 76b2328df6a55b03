package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"brandstudio/internal/domain"
	"brandstudio/internal/executor"
	"brandstudio/internal/infra"
)

// JobSubmitter is the slice of the executor the handlers need.
type JobSubmitter interface {
	Submit(ctx context.Context, req executor.SubmitRequest) (*domain.Job, error)
}

// App aggregates the dependencies shared by all handlers.
type App struct {
	Config    *infra.Config
	Logger    infra.Logger
	Jobs      domain.JobRepository
	Assets    domain.AssetRepository
	Credits   domain.CreditRepository
	Submitter JobSubmitter
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{
			"code":    errCode,
			"message": message,
		},
	})
}
