package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"brandstudio/internal/adapter/repo"
	"brandstudio/internal/admission"
	"brandstudio/internal/executor"
	"brandstudio/internal/infra"
	"brandstudio/internal/metrics"
)

// The worker sweeps jobs stuck in processing, fails them and refunds
// the held credits. API instances run the same recovery once at boot;
// this binary covers deployments where an instance dies and is never
// restarted.
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
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	credits := repo.NewCreditRepository(pool)

	exec := executor.New(executor.Options{
		Jobs:   jobs,
		Gate:   admission.NewGate(credits),
		Logger: logger,
	})

	interval := cfg.StaleJobAge / 2
	if interval < time.Minute {
		interval = time.Minute
	}

	logger.Info().Dur("interval", interval).Msg("worker: stale job sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep(ctx, exec, cfg.StaleJobAge, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			sweep(ctx, exec, cfg.StaleJobAge, logger)
		}
	}
}

func sweep(ctx context.Context, exec *executor.Executor, olderThan time.Duration, logger infra.Logger) {
	if err := exec.RecoverOrphans(ctx, olderThan); err != nil {
		logger.Error().Err(err).Msg("worker: sweep failed")
	}
}
