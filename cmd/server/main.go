package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"clinicalcopilot/internal/app"
	"clinicalcopilot/internal/config"
	"clinicalcopilot/internal/server"
	"clinicalcopilot/internal/store"
	"clinicalcopilot/internal/util"
	"clinicalcopilot/pkg/ai"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("invalid trustedProxies config", "err", err)
		os.Exit(1)
	}

	var st store.Store
	if cfg.DemoMode() {
		slog.Warn("no databaseURL configured; running in demo mode, nothing will be persisted")
		st = store.NewDemoStore()
	} else {
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to init store", "err", err)
			os.Exit(1)
		}
		st = gs
	}

	var generator ai.ReportGenerator
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			logger.Error("failed to init gemini client", "err", err)
			os.Exit(1)
		}
		generator = ai.NewGeminiReportGenerator(client, cfg.GenerationModel)
	} else {
		slog.Warn("GEMINI_API_KEY not set; report generation is disabled")
	}

	appCore, err := app.New(app.Config{
		Store:     st,
		Generator: generator,
	})
	if err != nil {
		logger.Error("failed to init app", "err", err)
		os.Exit(1)
	}

	staticDir := cfg.StaticDir
	if cfg.Serverless {
		// The hosting platform serves the frontend; this process is API-only.
		staticDir = ""
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		StaticDir:      staticDir,
		TrustedProxies: trusted,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("clinical copilot server listening",
		"addr", addr,
		"demo_mode", cfg.DemoMode(),
		"serverless", cfg.Serverless,
		"generation_model", cfg.GenerationModel,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
