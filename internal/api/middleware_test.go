package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(10*time.Second, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d denied", i)
		}
	}
	ok, wait := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("third request allowed")
	}
	if wait <= 0 || wait > 6*time.Second {
		t.Errorf("wait = %v, want about 5s", wait)
	}

	// Other clients have their own budget.
	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Error("separate client denied")
	}

	// Two requests per ten seconds refill one every five.
	now = now.Add(5 * time.Second)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Error("request after refill denied")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 0)
	for i := 0; i < 100; i++ {
		if ok, _ := rl.Allow("x"); !ok {
			t.Fatal("disabled limiter denied a request")
		}
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 5)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(2 * time.Minute)
	rl.Allow("new")
	rl.Sweep()

	if _, ok := rl.clients["old"]; ok {
		t.Error("idle client not swept")
	}
	if _, ok := rl.clients["new"]; !ok {
		t.Error("active client swept")
	}
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := CORS([]string{"http://allowed.example"})(ok)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed", "GET", "http://allowed.example", "http://allowed.example", http.StatusOK},
		{"other origin", "GET", "http://evil.example", "", http.StatusOK},
		{"preflight", "OPTIONS", "http://allowed.example", "http://allowed.example", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/entries", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestIDAndRecovery(t *testing.T) {
	var seen string
	h := RequestID(Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id = %q, header = %q", seen, rec.Header().Get("X-Request-ID"))
	}
}
