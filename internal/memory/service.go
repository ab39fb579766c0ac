package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iammorganparry/transmem/internal/metrics"
	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/registry"
	"github.com/iammorganparry/transmem/internal/search"
)

// ErrInvalidEntry is returned when a commit has no original text.
var ErrInvalidEntry = errors.New("original text is required")

// Persister is the durability boundary. *store.Persistence satisfies it.
type Persister interface {
	SaveEntry(e *models.Entry) error
	DeleteEntry(id string) error
	SaveWork(w *models.WorkContext) error
	LoadEntries() ([]models.Entry, error)
	LoadWorks() ([]models.WorkContext, error)
}

// Service is the main facade for all translation memory operations.
type Service struct {
	store     *Store
	engine    *search.Engine
	registry  *registry.Registry
	persister Persister // nil when persistence is disabled
	lifecycle *LifecycleManager
	metrics   *metrics.Metrics
	logger    *slog.Logger

	defaultThreshold float64

	// writeMu keeps in-memory mutation and persistence in the same order.
	writeMu sync.Mutex
}

// NewService creates a new memory service with all dependencies.
// persister and m may be nil.
func NewService(
	st *Store,
	engine *search.Engine,
	reg *registry.Registry,
	persister Persister,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	s := &Service{
		store:     st,
		engine:    engine,
		registry:  reg,
		persister: persister,
		metrics:   m,
		logger:    logger,

		defaultThreshold: models.DefaultThreshold,
	}
	s.lifecycle = NewLifecycleManager(st, persister, m, logger)
	return s
}

// SetDefaultThreshold changes the threshold used when a search omits one.
func (s *Service) SetDefaultThreshold(t float64) { s.defaultThreshold = t }

// Registry exposes the work-context registry the service resolves against.
func (s *Service) Registry() *registry.Registry { return s.registry }

// Load restores entries and works from the persister, if any.
func (s *Service) Load() error {
	if s.persister == nil {
		return nil
	}
	entries, err := s.persister.LoadEntries()
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	works, err := s.persister.LoadWorks()
	if err != nil {
		return fmt.Errorf("load works: %w", err)
	}
	s.store.Restore(entries, works)
	s.logger.Info("translation memory restored", "entries", len(entries), "works", len(works))
	return nil
}

// Commit records a translation, bumping frequency when the original text is
// already known.
func (s *Service) Commit(ctx context.Context, req *models.CommitRequest) (*models.CommitResponse, error) {
	if req.OriginalText == "" {
		return nil, ErrInvalidEntry
	}

	chars := req.Characters
	if len(chars) == 0 && req.WorkID != "" {
		chars = s.registry.ResolveCharacters(req.WorkID, req.OriginalText)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res := s.store.Commit(models.Entry{
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
		Context:        req.Context,
		Characters:     chars,
		Tags:           req.Tags,
		WorkID:         req.WorkID,
		ChapterID:      req.ChapterID,
	})
	s.metrics.ObserveCommit(res.Deduplicated)

	resp := &models.CommitResponse{
		ID:           res.Entry.ID,
		Frequency:    res.Entry.Frequency,
		Deduplicated: res.Deduplicated,
	}
	if res.Evicted != nil {
		resp.EvictedID = res.Evicted.ID
		s.metrics.ObserveEvictions(1)
		s.logger.Debug("evicted entry at capacity", "id", res.Evicted.ID, "max_entries", s.store.MaxEntries())
	}

	if s.persister != nil {
		if res.Evicted != nil {
			if err := s.persister.DeleteEntry(res.Evicted.ID); err != nil {
				s.logger.Warn("failed to delete evicted entry", "id", res.Evicted.ID, "error", err)
			}
		}
		if err := s.persister.SaveEntry(&res.Entry); err != nil {
			return resp, fmt.Errorf("persist entry: %w", err)
		}
	}

	return resp, nil
}

// FindSimilar ranks stored translations against the query. A missing
// threshold means the service default (models.DefaultThreshold unless changed).
func (s *Service) FindSimilar(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	threshold := s.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	res := s.engine.Search(search.SearchParams{
		Query:      req.Query,
		Context:    req.Context,
		Threshold:  threshold,
		WorkID:     req.WorkID,
		MaxResults: req.MaxResults,
	})
	s.metrics.ObserveSearch(len(res.Matches), res.Duration)

	resp := &models.SearchResponse{
		Matches: res.Matches,
		Meta: models.SearchMeta{
			Scanned:      res.Scanned,
			TotalResults: len(res.Matches),
			Threshold:    threshold,
			SearchTimeMs: int(res.Duration.Milliseconds()),
		},
	}
	if res.Work != nil {
		resp.Characters = res.Work.Characters
		resp.Glossary = res.Work.Glossary
	}
	return resp, nil
}

// SetWorkContext creates or replaces the metadata of a work.
func (s *Service) SetWorkContext(ctx context.Context, req *models.WorkContextRequest) (*models.WorkContext, error) {
	w, err := s.registry.SetWorkContext(models.WorkContext{
		Title:            req.Title,
		Characters:       req.Characters,
		Glossary:         req.Glossary,
		Genre:            req.Genre,
		TranslationStyle: req.TranslationStyle,
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetCharacters returns the characters of a work; empty when unknown.
func (s *Service) GetCharacters(title string) []models.Character {
	return s.registry.Characters(title)
}

// GetWorkContext returns the metadata of a work.
func (s *Service) GetWorkContext(title string) (models.WorkContext, bool) {
	return s.registry.GetWorkContext(title)
}

// ListWorks returns the registered work titles.
func (s *Service) ListWorks() []string {
	return s.registry.Titles()
}

// UpdateEntryContext replaces the context of the entry with the given ID.
func (s *Service) UpdateEntryContext(ctx context.Context, id string, c *models.Context) (*models.Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	e, err := s.store.UpdateEntryContext(id, c)
	if err != nil {
		return nil, err
	}
	return s.persistUpdated(e)
}

// UpdateEntryContextAt replaces the context of the entry at a position in
// insertion order.
func (s *Service) UpdateEntryContextAt(ctx context.Context, index int, c *models.Context) (*models.Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	e, err := s.store.UpdateEntryContextAt(index, c)
	if err != nil {
		return nil, err
	}
	return s.persistUpdated(e)
}

func (s *Service) persistUpdated(e models.Entry) (*models.Entry, error) {
	if s.persister != nil {
		if err := s.persister.SaveEntry(&e); err != nil {
			return &e, fmt.Errorf("persist entry: %w", err)
		}
	}
	return &e, nil
}

// Get returns an entry by ID.
func (s *Service) Get(id string) (*models.Entry, error) {
	e, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrEntryNotFound)
	}
	return &e, nil
}

// List returns a page of entries in insertion order, optionally restricted to
// one work.
func (s *Service) List(page, limit int, workID string) *models.ListResponse {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}

	all := s.store.AllEntries()
	if workID != "" {
		filtered := all[:0]
		for _, e := range all {
			if e.WorkID == workID {
				filtered = append(filtered, e)
			}
		}
		all = filtered
	}

	total := len(all)
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &models.ListResponse{
		Entries: append([]models.Entry{}, all[start:end]...),
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// BulkCommit commits many translations. Items that fail are counted and
// skipped.
func (s *Service) BulkCommit(ctx context.Context, req *models.BulkCommitRequest) *models.BulkCommitResponse {
	resp := &models.BulkCommitResponse{}

	for i := range req.Entries {
		item := req.Entries[i]
		if item.WorkID == "" {
			item.WorkID = req.WorkID
		}

		result, err := s.Commit(ctx, &item)
		if err != nil {
			s.logger.Error("bulk commit item failed", "index", i, "error", err)
			resp.Failed++
			continue
		}
		if result.Deduplicated {
			resp.Deduplicated++
		} else {
			resp.Stored++
		}
	}

	return resp
}

// Stats summarizes the memory.
func (s *Service) Stats() models.Stats {
	st := s.store.Stats()
	st.PersistenceMode = "memory"
	if s.persister != nil {
		st.PersistenceMode = "sqlite"
	}
	return st
}

// EntryCount returns the number of stored entries.
func (s *Service) EntryCount() int {
	return s.store.Len()
}

// Compact trims the store to its configured capacity.
func (s *Service) Compact(ctx context.Context) (*models.CompactResponse, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	evicted, err := s.lifecycle.Compact()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(evicted))
	for i, e := range evicted {
		ids[i] = e.ID
	}
	return &models.CompactResponse{
		Evicted:    len(evicted),
		EvictedIDs: ids,
		Remaining:  s.store.Len(),
	}, nil
}
