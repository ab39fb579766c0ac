package translate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/iammorganparry/transmem/internal/memory"
	"github.com/iammorganparry/transmem/internal/metrics"
	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/provider"
	"github.com/iammorganparry/transmem/internal/registry"
	"github.com/iammorganparry/transmem/internal/search"
)

// fakeProvider records the last request and echoes a canned translation.
type fakeProvider struct {
	text  string
	err   error
	calls int
	last  provider.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Translate(ctx context.Context, req provider.Request) (*provider.Result, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Result{Text: f.text, Confidence: 0.9, Provider: "fake"}, nil
}

func setup(t *testing.T, p provider.Provider) (*Service, *memory.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.NewStore(0)
	mem := memory.NewService(
		st,
		search.NewEngine(st, st, 0.7, 0.3),
		registry.New(st, nil),
		nil,
		metrics.New(nil),
		logger,
	)
	svc := NewService(mem, p, Options{
		MaxTextLength:  20,
		ReuseThreshold: 0.95,
		SuggestionMin:  0.5,
	}, nil, logger)
	return svc, mem
}

func TestTranslateValidation(t *testing.T) {
	svc, _ := setup(t, &fakeProvider{text: "x"})

	tests := []struct {
		name string
		req  models.TranslateRequest
	}{
		{"empty text", models.TranslateRequest{Text: " ", TargetLang: "ar"}},
		{"too long", models.TranslateRequest{Text: strings.Repeat("a", 21), TargetLang: "ar"}},
		{"no target", models.TranslateRequest{Text: "hi"}},
		{"same language", models.TranslateRequest{Text: "hi", SourceLang: "ar", TargetLang: "ar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Translate(context.Background(), &tt.req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}

	// The limit counts characters, not bytes.
	req := models.TranslateRequest{Text: strings.Repeat("ق", 20), TargetLang: "en"}
	if _, err := svc.Translate(context.Background(), &req); err != nil {
		t.Errorf("20 runes should pass: %v", err)
	}
}

func TestTranslateCallsProviderAndCommits(t *testing.T) {
	p := &fakeProvider{text: "Aiko drew her katana"}
	svc, mem := setup(t, p)
	ctx := context.Background()

	mem.SetWorkContext(ctx, &models.WorkContextRequest{
		Title:            "Novel",
		Characters:       []models.Character{{NameOriginal: "Aiko", NameTranslated: "أيكو"}},
		Glossary:         map[string]string{"katana": "كاتانا"},
		TranslationStyle: "literary",
	})
	mem.Commit(ctx, &models.CommitRequest{OriginalText: "Aiko drew", TranslatedText: "سحبت أيكو", WorkID: "Novel"})

	resp, err := svc.Translate(ctx, &models.TranslateRequest{
		Text:       "Aiko drew her sword",
		SourceLang: "en",
		TargetLang: "ar",
		WorkID:     "Novel",
		Terms:      []models.Term{{Original: "Aiko", Translation: "أيكو"}},
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", p.calls)
	}
	if p.last.Style != "literary" || p.last.WorkID != "Novel" || len(p.last.Characters) != 1 || len(p.last.Suggestions) != 1 {
		t.Errorf("provider request = %+v", p.last)
	}
	if p.last.Glossary["katana"] != "كاتانا" || p.last.Glossary["Aiko"] != "أيكو" {
		t.Errorf("glossary = %v", p.last.Glossary)
	}

	if resp.TranslatedText != "أيكو drew her كاتانا" {
		t.Errorf("text = %q", resp.TranslatedText)
	}
	if resp.FromMemory || resp.Provider != "fake" || len(resp.TermsApplied) != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.EntryID == "" {
		t.Fatal("translation was not committed")
	}
	e, err := mem.Get(resp.EntryID)
	if err != nil || e.TranslatedText != resp.TranslatedText || e.WorkID != "Novel" {
		t.Errorf("committed entry = %+v, %v", e, err)
	}
}

func TestTranslateReusesExactMatch(t *testing.T) {
	p := &fakeProvider{text: "should not be used"}
	svc, mem := setup(t, p)
	ctx := context.Background()

	first, _ := mem.Commit(ctx, &models.CommitRequest{OriginalText: "Hello world", TranslatedText: "مرحبا بالعالم"})

	resp, err := svc.Translate(ctx, &models.TranslateRequest{Text: "Hello world", TargetLang: "ar"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times for an exact match", p.calls)
	}
	if !resp.FromMemory || resp.Provider != "memory" || resp.TranslatedText != "مرحبا بالعالم" {
		t.Errorf("response = %+v", resp)
	}
	if resp.EntryID != first.ID {
		t.Errorf("entry id = %s, want %s", resp.EntryID, first.ID)
	}
	e, _ := mem.Get(first.ID)
	if e.Frequency != 2 {
		t.Errorf("frequency = %d, want 2 after reuse", e.Frequency)
	}
}

func TestTranslateNoCommit(t *testing.T) {
	svc, mem := setup(t, &fakeProvider{text: "x"})

	resp, err := svc.Translate(context.Background(), &models.TranslateRequest{Text: "hi", TargetLang: "ar", NoCommit: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.EntryID != "" || mem.EntryCount() != 0 {
		t.Errorf("noCommit stored an entry: %+v", resp)
	}
}

func TestTranslateProviderFailure(t *testing.T) {
	svc, mem := setup(t, &fakeProvider{err: provider.ErrNoTranslation})

	_, err := svc.Translate(context.Background(), &models.TranslateRequest{Text: "hi", TargetLang: "ar"})
	if !errors.Is(err, provider.ErrNoTranslation) {
		t.Errorf("err = %v", err)
	}
	if mem.EntryCount() != 0 {
		t.Error("failed translation was committed")
	}
}

func TestApplyGlossary(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		glossary map[string]string
		want     string
		applied  int
	}{
		{"none", "abc", nil, "abc", 0},
		{"single", "the Sword", map[string]string{"Sword": "سيف"}, "the سيف", 1},
		{"longer first", "Iron Sword and Sword", map[string]string{"Sword": "S", "Iron Sword": "IS"}, "IS and S", 2},
		{"missing term", "text", map[string]string{"x y": "z"}, "text", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := ApplyGlossary(tt.text, tt.glossary)
			if got != tt.want || len(applied) != tt.applied {
				t.Errorf("ApplyGlossary = %q %v, want %q (%d applied)", got, applied, tt.want, tt.applied)
			}
		})
	}
}
