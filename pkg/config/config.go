package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string

	GoogleApiKey    string
	SynthModel      string
	StructuredModel string

	NaverClientID     string
	NaverClientSecret string
	SerperApiKey      string
	YouTubeEnabled    bool

	ScrapeDisabled    bool
	ScrapeConcurrency int

	CacheTTL     time.Duration
	CacheMaxSize int

	ProviderTimeout time.Duration
	DailyChatLimit  int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		GoogleApiKey:    getEnv("GOOGLE_API_KEY", ""),
		SynthModel:      getEnv("SYNTH_MODEL", "gemini-2.0-flash"),
		StructuredModel: getEnv("STRUCTURED_MODEL", "gemini-2.0-flash-lite"),

		NaverClientID:     getEnv("NAVER_CLIENT_ID", ""),
		NaverClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
		SerperApiKey:      getEnv("SERPER_API_KEY", ""),
		YouTubeEnabled:    getEnvAsBool("YOUTUBE_ENABLED", true),

		ScrapeDisabled:    getEnvAsBool("SCRAPE_DISABLED", false),
		ScrapeConcurrency: getEnvAsInt("SCRAPE_CONCURRENCY", 5),

		CacheTTL:     time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 10800)) * time.Second,
		CacheMaxSize: getEnvAsInt("CACHE_MAX_SIZE", 1000),

		ProviderTimeout: time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 5)) * time.Second,
		DailyChatLimit:  getEnvAsInt("DAILY_CHAT_LIMIT", 200),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
