package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "900", want: 900 * time.Second},
		{in: "15m", want: 15 * time.Minute},
		{in: "1h", want: time.Hour},
		{in: "1d", want: 24 * time.Hour},
		{in: " 30S ", want: 30 * time.Second},
		{in: "", wantErr: true},
		{in: "5w", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseWindow(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env
	t.Setenv("TRANSMEM_DB_PATH", "")
	t.Setenv("TEXT_WEIGHT", "")
	t.Setenv("CONTEXT_WEIGHT", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("MAX_ENTRIES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TextWeight != 0.7 || cfg.ContextWeight != 0.3 {
		t.Errorf("weights = %v/%v, want 0.7/0.3", cfg.TextWeight, cfg.ContextWeight)
	}
	if cfg.DefaultThreshold != 0.8 {
		t.Errorf("threshold = %v, want 0.8", cfg.DefaultThreshold)
	}
	if cfg.MaxEntries != 0 {
		t.Errorf("max entries = %d, want unbounded", cfg.MaxEntries)
	}
	if cfg.RateLimitWindow != 900*time.Second || cfg.RateLimitMax != 100 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimitWindow, cfg.RateLimitMax)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TEXT_WEIGHT", "0.9")
	t.Setenv("CONTEXT_WEIGHT", "0.3")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "TEXT_WEIGHT") {
		t.Errorf("error = %v, want mention of TEXT_WEIGHT", err)
	}
}

func TestLoadReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	env := "RATE_LIMIT_WINDOW=15m\nCORS_ORIGINS=https://a.example, https://b.example\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides a variable that exists, even empty.
	unsetenv(t, "RATE_LIMIT_WINDOW")
	unsetenv(t, "CORS_ORIGINS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimitWindow != 15*time.Minute {
		t.Errorf("window = %v, want 15m", cfg.RateLimitWindow)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.CORSOrigins)
	}
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadRejectsZeroCacheTTL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRANSLATION_CACHE_TTL", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "TRANSLATION_CACHE_TTL") {
		t.Errorf("err = %v, want TRANSLATION_CACHE_TTL validation error", err)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the previous one on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
