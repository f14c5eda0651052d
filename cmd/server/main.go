package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/modootree/searchstream/pkg/cache"
	"github.com/modootree/searchstream/pkg/clients"
	"github.com/modootree/searchstream/pkg/config"
	"github.com/modootree/searchstream/pkg/database"
	"github.com/modootree/searchstream/pkg/enrich"
	"github.com/modootree/searchstream/pkg/history"
	"github.com/modootree/searchstream/pkg/pipeline"
	"github.com/modootree/searchstream/pkg/provider"
	"github.com/modootree/searchstream/pkg/quota"
	"github.com/modootree/searchstream/pkg/server"
	"github.com/modootree/searchstream/pkg/synth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()
	ctx := context.Background()

	// Database is optional; without it quota and history are disabled.
	var db *database.PostgresDB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		slog.Warn("DATABASE_URL not set, quota and history disabled")
	}

	// Search providers, by available credentials.
	registry := provider.NewRegistry()
	if cfg.NaverClientID != "" && cfg.NaverClientSecret != "" {
		registry.Register(provider.NewNaver(cfg.NaverClientID, cfg.NaverClientSecret))
	}
	if cfg.SerperApiKey != "" {
		registry.Register(provider.NewSerper(cfg.SerperApiKey))
	}
	if cfg.YouTubeEnabled {
		registry.Register(provider.NewYouTube())
	}
	slog.Info("Providers registered", "providers", registry.Names())

	// Synthesis clients.
	llm, err := clients.GoogleAI(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.SynthModel))
	if err != nil {
		log.Fatalf("Failed to init synthesis model: %v", err)
	}
	structured, err := clients.NewGenai(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.StructuredModel))
	if err != nil {
		log.Fatalf("Failed to init structured model: %v", err)
	}

	var enricher *enrich.Enricher
	if !cfg.ScrapeDisabled {
		enricher = enrich.New(enrich.NewPageExtractor(), slog.Default())
	}

	resultCache := cache.New(cfg.CacheTTL, cfg.CacheMaxSize)
	orchestrator := pipeline.New(registry, resultCache, enricher, synth.New(llm, structured, slog.Default()), slog.Default())
	orchestrator.ProviderTimeout = cfg.ProviderTimeout

	limiter := quota.NewLimiter(db, cfg.DailyChatLimit, slog.Default())
	recorder := history.NewRecorder(db, slog.Default())

	handler := server.NewHandler(orchestrator, resultCache, limiter, recorder, registry.Names(), slog.Default())

	// Web Server Setup
	r := gin.Default()

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
