package worksync

import (
	"fmt"
	"log/slog"

	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/registry"
)

// SyncService loads work-context files into the registry.
type SyncService struct {
	registry *registry.Registry
	dirs     []string
	logger   *slog.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(reg *registry.Registry, dirs []string, logger *slog.Logger) *SyncService {
	return &SyncService{
		registry: reg,
		dirs:     dirs,
		logger:   logger,
	}
}

// Sync scans the configured directories and sets every work found. A file
// replaces whatever the registry held for its title.
func (s *SyncService) Sync() (*models.WorkSyncResult, error) {
	return s.SyncDirs(s.dirs)
}

// SyncDirs runs sync for specific directories (used by API override).
func (s *SyncService) SyncDirs(dirs []string) (*models.WorkSyncResult, error) {
	files, invalid, err := ScanWorks(dirs)
	if err != nil {
		return nil, fmt.Errorf("scan works: %w", err)
	}

	result := &models.WorkSyncResult{Found: len(files) + len(invalid), Errors: len(invalid)}
	for _, path := range invalid {
		s.logger.Warn("skipping unreadable work file", "path", path)
	}

	for _, f := range files {
		if _, err := s.registry.SetWorkContext(f.Work); err != nil {
			s.logger.Error("failed to store work context",
				"title", f.Work.Title,
				"path", f.Path,
				"error", err,
			)
			result.Errors++
			continue
		}
		result.Stored++
	}

	s.logger.Info("work files synced", "found", result.Found, "stored", result.Stored, "errors", result.Errors)
	return result, nil
}

// ListWorks returns the currently scannable work files (without syncing).
func (s *SyncService) ListWorks() ([]WorkFile, error) {
	files, _, err := ScanWorks(s.dirs)
	return files, err
}
