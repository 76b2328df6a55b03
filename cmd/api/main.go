package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"brandstudio/internal/adapter/repo"
	"brandstudio/internal/admission"
	"brandstudio/internal/assembler"
	"brandstudio/internal/executor"
	"brandstudio/internal/generation"
	"brandstudio/internal/http/handlers"
	httpapi "brandstudio/internal/http/httpapi"
	"brandstudio/internal/infra"
	"brandstudio/internal/metrics"
	"brandstudio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	assets := repo.NewAssetRepository(pool)
	credits := repo.NewCreditRepository(pool)

	blobs, staticDir, err := configureBlobStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	generator, err := generation.NewClient(ctx, generation.Options{
		APIKey:     cfg.GeminiAPIKey,
		ModelFlash: cfg.GeminiModelFlash,
		ModelPro:   cfg.GeminiModelPro,
		ModelUltra: cfg.GeminiModelUltra,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure generation client")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("api: gemini api key missing, using synthetic asset generation")
	}

	exec := executor.New(executor.Options{
		Jobs:      jobs,
		Assets:    assets,
		Gate:      admission.NewGate(credits),
		Assembler: assembler.New(nil, cfg.ReferenceTimeout, logger),
		Generator: generator,
		Blobs:     blobs,
		Logger:    logger,
		Workers:   cfg.DispatchWorkers,
		QueueSize: cfg.DispatchQueueSize,
	})
	if err := exec.RecoverOrphans(ctx, cfg.StaleJobAge); err != nil {
		logger.Error().Err(err).Msg("api: orphan recovery failed")
	}
	exec.Start(ctx)

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Jobs:      jobs,
		Assets:    assets,
		Credits:   credits,
		Submitter: exec,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, staticDir))

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	exec.Wait()
	logger.Info().Msg("server stopped")
}

func configureBlobStore(cfg *infra.Config) (storage.BlobStore, string, error) {
	if cfg.StorageBackend == "supabase" {
		store, err := storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		return store, "", err
	}
	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.BasePath(), nil
}
