// Package provider turns text in one language into another. The translation
// memory only ever hands a provider hints; the provider owns the output.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iammorganparry/transmem/internal/models"
)

// ErrNoTranslation is returned when no provider produced any text.
var ErrNoTranslation = errors.New("no translation produced")

// Request is one translation job.
type Request struct {
	Text       string
	SourceLang string // empty means the provider should infer it
	TargetLang string

	// Suggestions are prior translations of similar text, best first.
	Suggestions []models.Match
	Glossary    map[string]string
	Characters  []models.Character
	Style       string
	// WorkID scopes cached results to the work the text belongs to.
	WorkID string

	// Preferred names the provider to try first in a Chain.
	Preferred string
}

// Result is a provider's answer.
type Result struct {
	Text       string
	Confidence float64
	Provider   string
}

// Provider translates text.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
}

// HealthChecker is implemented by providers that can report reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Chain tries providers in order and returns the first non-empty result.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

func (c *Chain) Name() string { return "chain" }

// Translate walks the chain. A provider that errors or returns empty text is
// skipped; the preferred provider, when named, goes first.
func (c *Chain) Translate(ctx context.Context, req Request) (*Result, error) {
	var errs []error
	for _, p := range c.ordered(req.Preferred) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.Translate(ctx, req)
		if err != nil {
			c.logger.Warn("provider failed, falling back", "provider", p.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if res == nil || strings.TrimSpace(res.Text) == "" {
			c.logger.Warn("provider returned empty text, falling back", "provider", p.Name())
			continue
		}
		if res.Provider == "" {
			res.Provider = p.Name()
		}
		return res, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoTranslation, errors.Join(errs...))
	}
	return nil, ErrNoTranslation
}

func (c *Chain) ordered(preferred string) []Provider {
	if preferred == "" {
		return c.providers
	}
	out := make([]Provider, 0, len(c.providers))
	for _, p := range c.providers {
		if p.Name() == preferred {
			out = append(out, p)
		}
	}
	for _, p := range c.providers {
		if p.Name() != preferred {
			out = append(out, p)
		}
	}
	return out
}

// HealthCheck succeeds when any provider in the chain is reachable.
func (c *Chain) HealthCheck(ctx context.Context) error {
	var errs []error
	for _, p := range c.providers {
		hc, ok := p.(HealthChecker)
		if !ok {
			return nil
		}
		if err := hc.HealthCheck(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		return nil
	}
	if len(errs) == 0 {
		return fmt.Errorf("no providers configured")
	}
	return errors.Join(errs...)
}
