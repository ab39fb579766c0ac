package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               int
	DBPath             string
	PersistenceEnabled bool
	LogLevel           string
	// Matching
	TextWeight       float64
	ContextWeight    float64
	DefaultThreshold float64
	MaxEntries       int // 0 = unbounded
	// Gateway
	APIKey          string
	CORSOrigins     []string
	RateLimitWindow time.Duration
	RateLimitMax    int
	// Translation
	OllamaBaseURL       string
	TranslationModel    string
	ProviderEnabled     bool
	CacheTTL            time.Duration
	CacheMaxItems       int // 0 = no cap
	ReuseThreshold      float64
	SuggestionThreshold float64
	MaxTextLength       int
	// Work files
	WorksDirs     []string
	WorksAutoSync bool
	// Clients (MCP adapter, tmctl)
	ServerURL string
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, fills in variables that are not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:                envInt("PORT", 8750),
		DBPath:              envStr("TRANSMEM_DB_PATH", "/data/transmem.db"),
		PersistenceEnabled:  envBool("PERSISTENCE_ENABLED", true),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		TextWeight:          envFloat("TEXT_WEIGHT", 0.7),
		ContextWeight:       envFloat("CONTEXT_WEIGHT", 0.3),
		DefaultThreshold:    envFloat("DEFAULT_THRESHOLD", 0.8),
		MaxEntries:          envInt("MAX_ENTRIES", 0),
		APIKey:              envStr("TRANSMEM_API_KEY", ""),
		CORSOrigins:         envList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitWindow:     envWindow("RATE_LIMIT_WINDOW", 900*time.Second),
		RateLimitMax:        envInt("RATE_LIMIT_MAX_REQUESTS", 100),
		OllamaBaseURL:       envStr("OLLAMA_BASE_URL", "http://localhost:11434"),
		TranslationModel:    envStr("TRANSLATION_MODEL", "qwen2.5:7b"),
		ProviderEnabled:     envBool("PROVIDER_ENABLED", true),
		CacheTTL:            envWindow("TRANSLATION_CACHE_TTL", 24*time.Hour),
		CacheMaxItems:       envInt("TRANSLATION_CACHE_MAX_ITEMS", 1000),
		ReuseThreshold:      envFloat("REUSE_THRESHOLD", 0.95),
		SuggestionThreshold: envFloat("SUGGESTION_THRESHOLD", 0.5),
		MaxTextLength:       envInt("MAX_TEXT_LENGTH", 5000),
		WorksDirs:           envWorksDirs("WORKS_DIRS"),
		WorksAutoSync:       envBool("WORKS_AUTO_SYNC", true),
		ServerURL:           envStr("TRANSMEM_SERVER_URL", "http://localhost:8750"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.PersistenceEnabled && c.DBPath == "" {
		return fmt.Errorf("TRANSMEM_DB_PATH must not be empty when persistence is enabled")
	}
	if c.ProviderEnabled && c.OllamaBaseURL == "" {
		return fmt.Errorf("OLLAMA_BASE_URL must not be empty")
	}
	if c.TextWeight < 0 || c.ContextWeight < 0 {
		return fmt.Errorf("TEXT_WEIGHT and CONTEXT_WEIGHT must not be negative")
	}
	sum := c.TextWeight + c.ContextWeight
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("TEXT_WEIGHT + CONTEXT_WEIGHT must equal 1.0, got %f", sum)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("MAX_ENTRIES must not be negative, got %d", c.MaxEntries)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("TRANSLATION_CACHE_TTL must be positive")
	}
	if c.CacheMaxItems < 0 {
		return fmt.Errorf("TRANSLATION_CACHE_MAX_ITEMS must not be negative, got %d", c.CacheMaxItems)
	}
	if c.MaxTextLength < 1 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be positive, got %d", c.MaxTextLength)
	}
	return nil
}

// ParseWindow converts a window like "900", "15m", "1h" or "1d" to a
// duration. A bare number is seconds.
func ParseWindow(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty window")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid window %q", s)
	}
	switch unit {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid window unit in %q", s)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envWindow(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := ParseWindow(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}

func envWorksDirs(key string) []string {
	if dirs := envList(key, nil); len(dirs) > 0 {
		return dirs
	}
	// Default: ~/.transmem/works
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".transmem", "works")}
}
