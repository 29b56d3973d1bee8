package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dreamapp/internal/adapter/repo"
	"dreamapp/internal/creative"
	"dreamapp/internal/http/handlers"
	"dreamapp/internal/http/httpapi"
	"dreamapp/internal/infra"
	"dreamapp/internal/infra/geoip"
	"dreamapp/internal/orchestrator"
	"dreamapp/internal/providers/gemini"
	"dreamapp/internal/providers/groq"
	"dreamapp/internal/providers/llm"
	"dreamapp/internal/render"
	"dreamapp/internal/storage"
	"dreamapp/internal/trace"
	"dreamapp/internal/trends"
	"dreamapp/internal/vision"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	// Repositories
	businesses := repo.NewBusinessRepository(dbpool)
	media := repo.NewMediaRepository(dbpool)
	artifacts := repo.NewArtifactRepository(dbpool)
	traces := repo.NewTraceRepository(dbpool)

	recorder := trace.NewRecorder(traces, logger)

	// Storage
	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	// Provider clients
	httpClient := &http.Client{Timeout: 60 * time.Second}
	var (
		geminiClient *gemini.Client
		groqClient   *groq.Client
	)
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = gemini.NewClient(gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			VisionModel: cfg.GeminiVision,
			BaseURL:     cfg.GeminiBaseURL,
			HTTPClient:  httpClient,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure gemini client")
		}
	}
	if cfg.GroqAPIKey != "" {
		groqClient, err = groq.NewClient(groq.Options{
			APIKey:      cfg.GroqAPIKey,
			Model:       cfg.GroqModel,
			VisionModel: cfg.GroqVision,
			BaseURL:     cfg.GroqBaseURL,
			HTTPClient:  httpClient,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure groq client")
		}
	}
	chain := buildChain(geminiClient, groqClient)

	// Vision summarizer: Gemini reads inline bytes, Groq reads one URL.
	visionOpts := vision.Options{
		HTTPClient:   httpClient,
		ProbeTimeout: cfg.MediaProbeTimeout,
		FetchTimeout: cfg.MediaFetchTimeout,
		Logger:       logger,
	}
	if geminiClient != nil {
		visionOpts.Primary = geminiClient
	}
	if groqClient != nil {
		visionOpts.Fallback = groqClient
	}
	summarizer := vision.NewSummarizer(visionOpts)

	// Trends
	geoResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	trendSource := trends.NewProvider(geoResolver, traces, nil)

	// Creative stage
	gatePolicy := creative.GatePolicy{MaxAttempts: cfg.DiversityMaxAttempts, FailOpen: true}
	generator := creative.NewGenerator(chain, recorder, gatePolicy, logger, nil)
	var critic *creative.Critic
	if groqClient != nil {
		critic = creative.NewCritic(groqClient, recorder, logger)
	}
	corrector := creative.NewCorrector(chain, recorder, logger)

	// Render stage
	var video render.VideoRenderer
	if cfg.ShotstackAPIKey != "" {
		shotstack, err := render.NewShotstackClient(render.ShotstackOptions{
			APIKey:     cfg.ShotstackAPIKey,
			BaseURL:    cfg.ShotstackBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure shotstack client")
		}
		video = shotstack
	}
	templates := render.NewTemplateClient(render.TemplateOptions{
		APIKey:     cfg.TemplateAPIKey,
		BaseURL:    cfg.TemplateBaseURL,
		HTTPClient: httpClient,
	})
	poster, err := render.NewPosterClient(render.PosterOptions{
		EndpointURL: cfg.PosterRendererURL,
		HTTPClient:  httpClient,
		Store:       fileStore,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure poster renderer")
	}
	audio := render.NewITunesResolver(httpClient, fileStore, logger)

	dispatcherOpts := render.DispatcherOptions{
		Video:     video,
		Poster:    poster,
		Audio:     audio,
		Critic:    critic,
		Corrector: corrector,
		Policy:    render.CritiquePolicy{MaxAttempts: cfg.CritiqueMaxAttempts, FailOpen: true},
		Logger:    logger,
	}
	if templates != nil {
		dispatcherOpts.Templates = templates
	}
	dispatcher := render.NewDispatcher(dispatcherOpts)

	pipeline := orchestrator.NewPipeline(orchestrator.Options{
		Businesses: businesses,
		Media:      media,
		Artifacts:  artifacts,
		Summarizer: summarizer,
		Generator:  generator,
		Dispatcher: dispatcher,
		Trends:     trendSource,
		Recorder:   recorder,
		Logger:     logger,
	})
	tracker := orchestrator.NewTracker(artifacts, video, logger)

	app := &handlers.App{
		Pipeline:   pipeline,
		Tracker:    tracker,
		Recorder:   recorder,
		Businesses: businesses,
		Media:      media,
		Artifacts:  artifacts,
		Logger:     logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildChain assembles the ordered text-generation fallback chain from the
// configured provider clients.
func buildChain(geminiClient *gemini.Client, groqClient *groq.Client) *llm.Chain {
	providers := make([]llm.Provider, 0, 2)
	if geminiClient != nil {
		providers = append(providers, llm.Func{
			ProviderName: gemini.ProviderName,
			CompleteFunc: func(ctx context.Context, req llm.Request) (string, error) {
				return geminiClient.Complete(ctx, req.Prompt, req.Temperature, req.JSONMode)
			},
		})
	}
	if groqClient != nil {
		providers = append(providers, llm.Func{
			ProviderName: groq.ProviderName,
			CompleteFunc: func(ctx context.Context, req llm.Request) (string, error) {
				return groqClient.Complete(ctx, req.Prompt, req.Temperature, req.JSONMode)
			},
		})
	}
	return llm.NewChain(providers...)
}
