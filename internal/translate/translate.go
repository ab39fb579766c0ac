package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iammorganparry/transmem/internal/memory"
	"github.com/iammorganparry/transmem/internal/metrics"
	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/provider"
)

// ErrInvalidRequest is returned for requests that fail validation.
var ErrInvalidRequest = errors.New("invalid translate request")

// memoryProvider is the provider label reported for reused translations.
const memoryProvider = "memory"

// Options tunes the translate flow.
type Options struct {
	MaxTextLength  int     // in runes
	ReuseThreshold float64 // exact-text match score needed to skip the provider
	SuggestionMin  float64 // threshold for suggestions handed to the provider
	MaxSuggestions int
}

// Service translates text, consulting and feeding the translation memory.
type Service struct {
	memory   *memory.Service
	provider provider.Provider
	opts     Options
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(mem *memory.Service, p provider.Provider, opts Options, m *metrics.Metrics, logger *slog.Logger) *Service {
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = 5000
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = 5
	}
	return &Service{memory: mem, provider: p, opts: opts, metrics: m, logger: logger}
}

// Translate runs the translate-with-memory flow.
func (s *Service) Translate(ctx context.Context, req *models.TranslateRequest) (*models.TranslateResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	threshold := s.opts.SuggestionMin
	found, err := s.memory.FindSimilar(ctx, &models.SearchRequest{
		Query:      req.Text,
		Context:    req.Context,
		Threshold:  &threshold,
		WorkID:     req.WorkID,
		MaxResults: s.opts.MaxSuggestions,
	})
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}

	resp := &models.TranslateResponse{
		SourceLang:  req.SourceLang,
		Suggestions: found.Matches,
	}

	glossary := mergeTerms(found.Glossary, req.Terms)

	if best, ok := s.reusable(req.Text, found.Matches); ok {
		resp.TranslatedText = best.Entry.TranslatedText
		resp.Provider = memoryProvider
		resp.Confidence = best.Score
		resp.FromMemory = true
		s.metrics.ObserveTranslation(memoryProvider, "reused", 0)
	} else {
		var style string
		if w, ok := s.memory.GetWorkContext(req.WorkID); ok {
			style = w.TranslationStyle
		}
		chars := s.memory.Registry().ResolveCharacters(req.WorkID, req.Text)

		start := time.Now()
		res, err := s.provider.Translate(ctx, provider.Request{
			Text:        req.Text,
			SourceLang:  req.SourceLang,
			TargetLang:  req.TargetLang,
			Suggestions: found.Matches,
			Glossary:    glossary,
			Characters:  chars,
			Style:       style,
			WorkID:      req.WorkID,
			Preferred:   req.Provider,
		})
		if err != nil {
			s.metrics.ObserveTranslation(s.provider.Name(), "error", time.Since(start))
			return nil, fmt.Errorf("translate: %w", err)
		}
		s.metrics.ObserveTranslation(res.Provider, "ok", time.Since(start))

		resp.TranslatedText = res.Text
		resp.Provider = res.Provider
		resp.Confidence = res.Confidence
	}

	resp.TranslatedText, resp.TermsApplied = ApplyGlossary(resp.TranslatedText, glossary)

	// A reuse is committed too; dedup turns it into a frequency bump.
	if !req.NoCommit {
		s.commit(ctx, req, resp)
	}
	return resp, nil
}

func (s *Service) commit(ctx context.Context, req *models.TranslateRequest, resp *models.TranslateResponse) {
	cr, err := s.memory.Commit(ctx, &models.CommitRequest{
		OriginalText:   req.Text,
		TranslatedText: resp.TranslatedText,
		Context:        req.Context,
		WorkID:         req.WorkID,
		Tags:           req.Tags,
	})
	if err != nil {
		s.logger.Warn("failed to commit translation", "error", err)
	}
	if cr != nil {
		resp.EntryID = cr.ID
	}
}

func (s *Service) validate(req *models.TranslateRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if n := utf8.RuneCountInString(req.Text); n > s.opts.MaxTextLength {
		return fmt.Errorf("%w: text is %d characters, limit is %d", ErrInvalidRequest, n, s.opts.MaxTextLength)
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		return fmt.Errorf("%w: targetLang is required", ErrInvalidRequest)
	}
	if req.SourceLang != "" && req.SourceLang == req.TargetLang {
		return fmt.Errorf("%w: source and target language are the same", ErrInvalidRequest)
	}
	return nil
}

// reusable returns the top match when it is a translation of exactly this text
// and scores at least the reuse threshold.
func (s *Service) reusable(text string, matches []models.Match) (models.Match, bool) {
	if len(matches) == 0 || s.opts.ReuseThreshold <= 0 {
		return models.Match{}, false
	}
	best := matches[0]
	if best.Entry.OriginalText != text || best.Score < s.opts.ReuseThreshold {
		return models.Match{}, false
	}
	if strings.TrimSpace(best.Entry.TranslatedText) == "" {
		return models.Match{}, false
	}
	return best, true
}

// mergeTerms layers request terms over the work glossary.
func mergeTerms(glossary map[string]string, terms []models.Term) map[string]string {
	out := make(map[string]string, len(glossary)+len(terms))
	for k, v := range glossary {
		out[k] = v
	}
	for _, t := range terms {
		if t.Original == "" {
			continue
		}
		out[t.Original] = t.Translation
	}
	return out
}

// ApplyGlossary replaces every glossary term found in text with its fixed
// translation and reports which terms were applied. Longer terms are applied
// first so a term never clobbers a longer one containing it.
func ApplyGlossary(text string, glossary map[string]string) (string, []string) {
	if len(glossary) == 0 {
		return text, nil
	}

	terms := make([]string, 0, len(glossary))
	for k := range glossary {
		if k != "" {
			terms = append(terms, k)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})

	var applied []string
	for _, t := range terms {
		if !strings.Contains(text, t) {
			continue
		}
		text = strings.ReplaceAll(text, t, glossary[t])
		applied = append(applied, t)
	}
	return text, applied
}
