package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	count := 3
	m := New(func() int { return count })

	m.ObserveCommit(false)
	m.ObserveCommit(true)
	m.ObserveCommit(true)
	m.ObserveEvictions(2)
	m.ObserveEvictions(0)
	m.ObserveSearch(4, 2*time.Millisecond)
	m.ObserveTranslation("ollama", "ok", time.Second)
	m.ObserveTranslation("memory", "reused", 0)
	m.ObserveHTTP("GET", "/entries", 200, time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`transmem_commits_total{outcome="deduplicated"} 2`,
		`transmem_commits_total{outcome="inserted"} 1`,
		`transmem_evictions_total 2`,
		`transmem_searches_total 1`,
		`transmem_entries 3`,
		`transmem_translations_total{outcome="reused",provider="memory"} 1`,
		`transmem_translation_duration_seconds_count{provider="ollama"} 1`,
		`transmem_http_requests_total{method="GET",route="/entries",status="200"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
	if strings.Contains(body, `translation_duration_seconds_count{provider="memory"}`) {
		t.Error("zero-duration reuse should not be observed as latency")
	}
}

func TestMetricsIndependentRegistries(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.ObserveCommit(false)

	if strings.Contains(scrape(t, b), `transmem_commits_total{outcome="inserted"} 1`) {
		t.Error("registries share state")
	}
	if strings.Contains(scrape(t, a), "transmem_entries") {
		t.Error("entries gauge registered without a source")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCommit(true)
	m.ObserveEvictions(1)
	m.ObserveSearch(1, time.Second)
	m.ObserveTranslation("x", "ok", time.Second)
	m.ObserveHTTP("GET", "/", 200, time.Second)
}
