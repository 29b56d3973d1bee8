package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dreamapp/internal/adapter/repo"
	"dreamapp/internal/domain"
	"dreamapp/internal/infra"
	"dreamapp/internal/orchestrator"
	"dreamapp/internal/render"
)

const (
	reconcileInterval = 30 * time.Second
	staleAfter        = 2 * time.Minute
	batchLimit        = 25
)

// reconciler resweeps artifacts whose render was dispatched but whose status
// the API was never asked about, so renders finish even when clients stop
// polling.
type reconciler struct {
	artifacts domain.ArtifactRepository
	tracker   *orchestrator.Tracker
	logger    infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	artifacts := repo.NewArtifactRepository(pool)

	var video render.VideoRenderer
	if cfg.ShotstackAPIKey != "" {
		shotstack, err := render.NewShotstackClient(render.ShotstackOptions{
			APIKey:     cfg.ShotstackAPIKey,
			BaseURL:    cfg.ShotstackBaseURL,
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure shotstack client")
		}
		video = shotstack
	} else {
		logger.Warn().Msg("worker: shotstack api key missing, stale reels will stay pending")
	}

	tracker := orchestrator.NewTracker(artifacts, video, logger)

	w := &reconciler{artifacts: artifacts, tracker: tracker, logger: logger}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *reconciler) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *reconciler) sweep(ctx context.Context) {
	stale, err := w.artifacts.ListStalePending(ctx, time.Now().Add(-staleAfter), batchLimit)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: failed to list stale artifacts")
		return
	}
	for _, artifact := range stale {
		result, err := w.tracker.Poll(ctx, artifact.ID, artifact.State.Handle)
		if err != nil {
			w.logger.Error().Err(err).Str("artifact_id", artifact.ID).Msg("worker: poll failed")
			continue
		}
		if result.Status != orchestrator.PollProcessing {
			w.logger.Info().
				Str("artifact_id", artifact.ID).
				Str("status", string(result.Status)).
				Msg("worker: artifact resolved")
		}
	}
}
