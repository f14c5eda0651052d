package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/modootree/searchstream/pkg/cache"
	"github.com/modootree/searchstream/pkg/clients"
	"github.com/modootree/searchstream/pkg/config"
	"github.com/modootree/searchstream/pkg/enrich"
	"github.com/modootree/searchstream/pkg/pipeline"
	"github.com/modootree/searchstream/pkg/provider"
	"github.com/modootree/searchstream/pkg/synth"
)

var query string

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	rootCmd := &cobra.Command{
		Use:   "searchstream",
		Short: "Run one search query through the pipeline",
		Long:  `searchstream classifies a query, fans out to the configured search providers, and streams the synthesized answer to the terminal.`,
		Run: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("query") {
				// Interactive Mode
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Enter search query: ")
				input, _ := reader.ReadString('\n')
				query = strings.TrimSpace(input)
			}
			if query == "" {
				slog.Error("Query cannot be empty")
				os.Exit(1)
			}

			if err := run(query); err != nil {
				slog.Error("Search failed", "error", err)
				os.Exit(1)
			}
		},
	}

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The search query")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func run(query string) error {
	cfg := config.Load()
	ctx := context.Background()

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

	llm, err := clients.GoogleAI(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.SynthModel))
	if err != nil {
		return fmt.Errorf("failed to init synthesis model: %w", err)
	}
	structured, err := clients.NewGenai(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.StructuredModel))
	if err != nil {
		return fmt.Errorf("failed to init structured model: %w", err)
	}

	var enricher *enrich.Enricher
	if !cfg.ScrapeDisabled {
		enricher = enrich.New(enrich.NewPageExtractor(), slog.Default())
	}

	orchestrator := pipeline.New(registry, cache.New(cfg.CacheTTL, cfg.CacheMaxSize), enricher, synth.New(llm, structured, slog.Default()), slog.Default())
	orchestrator.ProviderTimeout = cfg.ProviderTimeout

	for event, err := range orchestrator.Run(ctx, query) {
		if err != nil {
			return fmt.Errorf("%s: %w", event.Error, err)
		}
		printEvent(event)
	}
	return nil
}

func printEvent(e pipeline.Event) {
	switch {
	case e.Stage == pipeline.StageSynthesis && e.Status == pipeline.StatusStreaming:
		if e.Item != nil {
			fmt.Printf("\n- %s", e.Item.Name)
			if e.Item.Summary != "" {
				fmt.Printf(": %s", e.Item.Summary)
			}
			if e.Item.Address != "" {
				fmt.Printf(" (%s)", e.Item.Address)
			}
		} else {
			fmt.Print(e.PartialAnswer)
		}
	case e.Stage == pipeline.StageComplete:
		fmt.Printf("\n\n[%s] %d sources, %.2fs", e.Category, len(e.Sources), e.Elapsed)
		if e.FromCache {
			fmt.Print(" (cached)")
		}
		fmt.Println()
	default:
		fmt.Fprintf(os.Stderr, "[%s] %s %s\n", e.Stage, e.Status, e.Message)
	}
}
