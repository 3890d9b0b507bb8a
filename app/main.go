package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shubhamdixena/opportunity-harvester/app/ai"
	"github.com/shubhamdixena/opportunity-harvester/app/api"
	"github.com/shubhamdixena/opportunity-harvester/app/campaign"
	"github.com/shubhamdixena/opportunity-harvester/app/cfg"
	"github.com/shubhamdixena/opportunity-harvester/app/config"
	"github.com/shubhamdixena/opportunity-harvester/app/database"
	"github.com/shubhamdixena/opportunity-harvester/app/discovery"
	"github.com/shubhamdixena/opportunity-harvester/app/scrape"
	"github.com/shubhamdixena/opportunity-harvester/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Opportunity Harvester", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	if err := database.RunMigrations(db); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	sourceRepo := database.NewSourceRepository(db)
	campRepo := database.NewCampaignRepository(db)
	queueRepo := database.NewQueueRepository(db)
	contentRepo := database.NewContentRepository(db)

	// Scraping and discovery components share one HTTP client
	httpClient := &http.Client{Timeout: time.Duration(appCfg.FetchTimeout) * time.Second}
	fetcher := scrape.NewFetcher(httpClient, appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)
	discoverer := discovery.NewDiscoverer(fetcher)

	// AI extraction is optional; without an API key the pipeline stores
	// content items and skips opportunity creation.
	var aiExtractor *ai.Extractor
	if appCfg.AnthropicAPIKey != "" {
		generator := ai.NewAnthropicGenerator(appCfg.AnthropicAPIKey, appCfg.AIModel)
		aiExtractor = ai.NewExtractor(generator)
		slog.Info("AI extraction enabled", "model", appCfg.AIModel)
	} else {
		slog.Warn("AI extraction disabled (ANTHROPIC_API_KEY not set)")
	}

	processor := campaign.NewProcessor(fetcher, aiExtractor,
		sourceRepo, campRepo, queueRepo, contentRepo,
		appCfg.ConfidenceThreshold, appCfg.DomainRateRPS)
	orchestrator := campaign.NewOrchestrator(sourceRepo, campRepo, queueRepo,
		discoverer, processor, appCfg.DrainBatchSize)

	// Background scheduler
	sourceLoader := config.NewLoader(appCfg.SourcesFile)
	scheduler := tasks.NewScheduler(orchestrator, campRepo, sourceRepo, sourceLoader)
	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval", appCfg.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	apiHandler := api.NewHandler(sourceRepo, campRepo, queueRepo, contentRepo,
		orchestrator, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
