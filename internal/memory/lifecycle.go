package memory

import (
	"log/slog"

	"github.com/iammorganparry/transmem/internal/metrics"
	"github.com/iammorganparry/transmem/internal/models"
)

// LifecycleManager keeps the store within its configured capacity.
type LifecycleManager struct {
	store     *Store
	persister Persister
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewLifecycleManager(st *Store, persister Persister, m *metrics.Metrics, logger *slog.Logger) *LifecycleManager {
	return &LifecycleManager{
		store:     st,
		persister: persister,
		metrics:   m,
		logger:    logger,
	}
}

// Compact evicts least recently used entries until the store fits its
// capacity, removing them from the persister as well. An unbounded store is
// left untouched.
func (l *LifecycleManager) Compact() ([]models.Entry, error) {
	max := l.store.MaxEntries()
	if max <= 0 {
		return nil, nil
	}

	evicted := l.store.Trim(max)
	if len(evicted) == 0 {
		return nil, nil
	}
	l.metrics.ObserveEvictions(len(evicted))

	if l.persister != nil {
		for _, e := range evicted {
			if err := l.persister.DeleteEntry(e.ID); err != nil {
				l.logger.Error("failed to delete compacted entry", "id", e.ID, "error", err)
			}
		}
	}

	l.logger.Info("compacted translation memory", "evicted", len(evicted), "max_entries", max)
	return evicted, nil
}
