// Package registry exposes per-work metadata (character name mappings and
// glossary terms) without the entry-commit surface of the memory store.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iammorganparry/transmem/internal/models"
)

// ErrEmptyTitle is returned when a work context is set without a title.
var ErrEmptyTitle = errors.New("work title is required")

// Backend holds the work-context table. *memory.Store satisfies it.
type Backend interface {
	SetWorkContext(w models.WorkContext) models.WorkContext
	GetWorkContext(title string) (models.WorkContext, bool)
	CharactersFor(title string) []models.Character
	WorkTitles() []string
}

// Saver persists a work context after it has been set in memory.
type Saver interface {
	SaveWork(w *models.WorkContext) error
}

// Registry is the Context/Character Registry.
type Registry struct {
	backend Backend
	saver   Saver // nil when persistence is disabled

	writeMu sync.Mutex
}

// New creates a Registry. saver may be nil.
func New(backend Backend, saver Saver) *Registry {
	return &Registry{backend: backend, saver: saver}
}

// SetWorkContext creates or replaces the record for w.Title (last write wins).
func (r *Registry) SetWorkContext(w models.WorkContext) (models.WorkContext, error) {
	if strings.TrimSpace(w.Title) == "" {
		return models.WorkContext{}, ErrEmptyTitle
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	stored := r.backend.SetWorkContext(w)
	if r.saver != nil {
		if err := r.saver.SaveWork(&stored); err != nil {
			return stored, fmt.Errorf("persist work %q: %w", stored.Title, err)
		}
	}
	return stored, nil
}

// GetWorkContext returns the record for title.
func (r *Registry) GetWorkContext(title string) (models.WorkContext, bool) {
	return r.backend.GetWorkContext(title)
}

// Characters returns the character mappings of a work; empty when unknown.
func (r *Registry) Characters(title string) []models.Character {
	return r.backend.CharactersFor(title)
}

// Glossary returns the fixed term translations of a work; empty when unknown.
func (r *Registry) Glossary(title string) map[string]string {
	w, ok := r.backend.GetWorkContext(title)
	if !ok || w.Glossary == nil {
		return map[string]string{}
	}
	return w.Glossary
}

// Titles lists the registered works.
func (r *Registry) Titles() []string {
	return r.backend.WorkTitles()
}

// ResolveCharacters returns the characters of a work whose original name or
// one of whose aliases occurs in text, compared case-insensitively.
func (r *Registry) ResolveCharacters(title, text string) []models.Character {
	chars := r.backend.CharactersFor(title)
	if len(chars) == 0 || text == "" {
		return nil
	}

	lower := cases.Lower(language.Und)
	haystack := lower.String(text)

	var found []models.Character
	for _, c := range chars {
		if mentions(haystack, lower.String(c.NameOriginal)) {
			found = append(found, c)
			continue
		}
		for _, alias := range c.Aliases {
			if mentions(haystack, lower.String(alias)) {
				found = append(found, c)
				break
			}
		}
	}
	return found
}

func mentions(haystack, name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && strings.Contains(haystack, name)
}
