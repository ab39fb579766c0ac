package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iammorganparry/transmem/internal/models"
)

var (
	// ErrInvalidIndex is returned by positional updates outside [0, len).
	ErrInvalidIndex = errors.New("entry index out of range")
	// ErrEntryNotFound is returned when no entry carries the given ID.
	ErrEntryNotFound = errors.New("entry not found")
)

// Store owns the translation memory entries and the per-work context table.
// A single store-wide RWMutex serializes writers; the dedup scan and the
// append it guards must be atomic.
type Store struct {
	mu sync.RWMutex

	entries []*models.Entry          // insertion order
	byText  map[string]*models.Entry // dedup key -> entry
	byID    map[string]*models.Entry // stable handle -> entry
	works   map[string]*models.WorkContext

	maxEntries int // 0 = unbounded
	now        func() time.Time
}

// NewStore creates an empty store. maxEntries <= 0 disables eviction.
func NewStore(maxEntries int) *Store {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Store{
		byText:     make(map[string]*models.Entry),
		byID:       make(map[string]*models.Entry),
		works:      make(map[string]*models.WorkContext),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// CommitResult describes what a commit did to the store.
type CommitResult struct {
	Entry        models.Entry
	Deduplicated bool
	// Evicted is the entry dropped to stay within capacity, if any.
	Evicted *models.Entry
}

// Commit records a translation. When an entry with the same original text
// exists its frequency is bumped and its last-used time refreshed; every other
// field of e is discarded so the first translation stays canonical.
func (s *Store) Commit(e models.Entry) CommitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if existing, ok := s.byText[e.OriginalText]; ok {
		existing.Frequency++
		existing.LastUsed = now
		return CommitResult{Entry: existing.Clone(), Deduplicated: true}
	}

	var res CommitResult
	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		if evicted := s.evictLocked(); evicted != nil {
			cp := evicted.Clone()
			res.Evicted = &cp
		}
	}

	entry := e.Clone()
	entry.ID = uuid.New().String()
	entry.Frequency = 1
	entry.CreatedAt = now
	entry.LastUsed = now
	entry.ConfidenceScore = 1.0
	entry.Tags = uniqueTags(entry.Tags)
	if entry.Characters == nil {
		entry.Characters = []models.Character{}
	}

	s.insertLocked(&entry)
	res.Entry = entry.Clone()
	return res
}

// Restore replaces the store contents with previously persisted state.
// Entries keep their IDs; a repeated original text keeps the first copy.
func (s *Store) Restore(entries []models.Entry, works []models.WorkContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.byText = make(map[string]*models.Entry, len(entries))
	s.byID = make(map[string]*models.Entry, len(entries))
	s.works = make(map[string]*models.WorkContext, len(works))

	for _, e := range entries {
		if _, dup := s.byText[e.OriginalText]; dup {
			continue
		}
		cp := e.Clone()
		if cp.ID == "" {
			cp.ID = uuid.New().String()
		}
		s.insertLocked(&cp)
	}
	for _, w := range works {
		cp := w.Clone()
		s.works[cp.Title] = &cp
	}
}

// AllEntries returns a copy of every entry in insertion order.
func (s *Store) AllEntries() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Get returns a copy of the entry with the given ID.
func (s *Store) Get(id string) (models.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return models.Entry{}, false
	}
	return e.Clone(), true
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// MaxEntries returns the configured capacity (0 = unbounded).
func (s *Store) MaxEntries() int {
	return s.maxEntries
}

// UpdateEntryContextAt replaces the context of the entry at a position in the
// current insertion order. Positions shift under eviction; prefer
// UpdateEntryContext.
func (s *Store) UpdateEntryContextAt(index int, ctx *models.Context) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) {
		return models.Entry{}, fmt.Errorf("update context at %d (have %d entries): %w", index, len(s.entries), ErrInvalidIndex)
	}
	e := s.entries[index]
	e.Context = ctx.Clone()
	return e.Clone(), nil
}

// UpdateEntryContext replaces the context of the entry with the given ID.
func (s *Store) UpdateEntryContext(id string, ctx *models.Context) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return models.Entry{}, fmt.Errorf("update context of %s: %w", id, ErrEntryNotFound)
	}
	e.Context = ctx.Clone()
	return e.Clone(), nil
}

// Trim evicts least recently used entries until at most max remain and
// returns what it removed.
func (s *Store) Trim(max int) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []models.Entry
	for max >= 0 && len(s.entries) > max {
		e := s.evictLocked()
		if e == nil {
			break
		}
		evicted = append(evicted, e.Clone())
	}
	return evicted
}

// SetWorkContext creates or fully replaces the context stored for w.Title.
func (s *Store) SetWorkContext(w models.WorkContext) models.WorkContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := w.Clone()
	if cp.Glossary == nil {
		cp.Glossary = map[string]string{}
	}
	cp.UpdatedAt = s.now()
	s.works[cp.Title] = &cp
	return cp.Clone()
}

// GetWorkContext returns a copy of the context stored for title.
func (s *Store) GetWorkContext(title string) (models.WorkContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.works[title]
	if !ok {
		return models.WorkContext{}, false
	}
	return w.Clone(), true
}

// CharactersFor returns the characters of a work, or an empty slice when the
// title is unknown.
func (s *Store) CharactersFor(title string) []models.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.works[title]
	if !ok || len(w.Characters) == 0 {
		return []models.Character{}
	}
	return w.Clone().Characters
}

// WorkTitles returns the registered work titles, sorted.
func (s *Store) WorkTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, 0, len(s.works))
	for t := range s.works {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// Stats summarizes the store contents.
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := models.Stats{
		TotalEntries:  len(s.entries),
		Works:         len(s.works),
		EntriesByWork: make(map[string]int),
		MaxEntries:    s.maxEntries,
	}
	for _, e := range s.entries {
		st.TotalCommits += e.Frequency
		if e.WorkID != "" {
			st.EntriesByWork[e.WorkID]++
		}
	}
	return st
}

func (s *Store) insertLocked(e *models.Entry) {
	s.entries = append(s.entries, e)
	s.byText[e.OriginalText] = e
	s.byID[e.ID] = e
}

// evictLocked removes the least recently used entry: oldest LastUsed, then
// lowest frequency, then earliest inserted.
func (s *Store) evictLocked() *models.Entry {
	if len(s.entries) == 0 {
		return nil
	}
	victim := 0
	for i := 1; i < len(s.entries); i++ {
		a, b := s.entries[i], s.entries[victim]
		if a.LastUsed.Before(b.LastUsed) ||
			(a.LastUsed.Equal(b.LastUsed) && a.Frequency < b.Frequency) {
			victim = i
		}
	}

	e := s.entries[victim]
	s.entries = append(s.entries[:victim], s.entries[victim+1:]...)
	delete(s.byText, e.OriginalText)
	delete(s.byID, e.ID)
	return e
}

// uniqueTags drops repeated tags, keeping first-seen order.
func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
