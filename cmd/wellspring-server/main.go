package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mossline/wellspring-server/internal/alerts"
	"github.com/mossline/wellspring-server/internal/api"
	"github.com/mossline/wellspring-server/internal/challenge"
	"github.com/mossline/wellspring-server/internal/coach"
	"github.com/mossline/wellspring-server/internal/config"
	"github.com/mossline/wellspring-server/internal/fit"
	"github.com/mossline/wellspring-server/internal/llm"
	"github.com/mossline/wellspring-server/internal/scheduler"
	"github.com/mossline/wellspring-server/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting wellspring-server...")

	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Open the document store
	var backend store.Backend
	switch cfg.StoreDriver {
	case "sqlite":
		backend, err = store.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
	default:
		backend = store.NewFileBackend(cfg.DataPath)
	}

	st, err := store.Open(backend)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	log.Printf("Store opened (%s driver)", cfg.StoreDriver)

	// Create LLM client
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	if llmClient.Configured() {
		log.Println("Validating LLM provider connection...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := llmClient.HealthCheck(ctx); err != nil {
			log.Printf("WARNING: LLM health check failed: %v", err)
			log.Println("Server will start; generation falls back to the deterministic engine")
		} else {
			log.Printf("LLM provider connected: %s (model: %s)", cfg.LLMBaseURL, cfg.LLMModel)
		}
		cancel()
	} else {
		log.Println("No LLM API key; running on the deterministic engine only")
	}

	// Google Fit client
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("WARNING: unknown timezone %q, using UTC", cfg.Timezone)
		tz = time.UTC
	}
	fitClient := fit.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, tz)
	if !fitClient.Configured() {
		log.Println("Google Fit not configured; fitness endpoints disabled")
	}

	// Alert fan-out, challenge orchestrator, AI coach
	broadcaster := alerts.NewBroadcaster(cfg.AdminUsers)
	orchestrator := challenge.NewOrchestrator(st, broadcaster, nil)
	aiCoach := coach.New(llmClient)

	// Create router
	router := api.NewRouter(api.Deps{
		Config:       cfg,
		Store:        st,
		Orchestrator: orchestrator,
		Coach:        aiCoach,
		LLM:          llmClient,
		Fit:          fitClient,
		Alerts:       broadcaster,
	})

	// Create and start the scheduler
	sched, err := scheduler.New(st, broadcaster, llmClient, scheduler.Config{
		Timezone: cfg.Timezone,
	})
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()

	// Start server
	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down gracefully...")

	// Give ongoing requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Stopping scheduler...")
	if err := sched.Stop(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}

	log.Println("Closing store...")
	if err := st.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	}

	log.Println("Shutdown complete")
}
