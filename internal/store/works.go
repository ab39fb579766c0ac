package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iammorganparry/transmem/internal/models"
)

// WorkStore persists per-work context (characters, glossary) keyed by title.
type WorkStore struct {
	db *DB
}

func NewWorkStore(db *DB) *WorkStore {
	return &WorkStore{db: db}
}

// Save creates or fully replaces the record for w.Title.
func (s *WorkStore) Save(w *models.WorkContext) error {
	charsJSON, _ := json.Marshal(w.Characters)
	glossaryJSON, _ := json.Marshal(w.Glossary)

	updatedAt := w.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO works (title, characters, glossary, genre, translation_style, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			characters = excluded.characters,
			glossary = excluded.glossary,
			genre = excluded.genre,
			translation_style = excluded.translation_style,
			updated_at = excluded.updated_at
	`, w.Title, string(charsJSON), string(glossaryJSON),
		nullableText(w.Genre), nullableText(w.TranslationStyle), updatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save work: %w", err)
	}
	return nil
}

// Get returns a work by title, or nil when unknown.
func (s *WorkStore) Get(title string) (*models.WorkContext, error) {
	rows, err := s.db.Query(`
		SELECT title, characters, glossary, genre, translation_style, updated_at
		FROM works WHERE title = ?
	`, title)
	if err != nil {
		return nil, fmt.Errorf("get work: %w", err)
	}
	defer rows.Close()

	works, err := scanWorks(rows)
	if err != nil {
		return nil, err
	}
	if len(works) == 0 {
		return nil, nil
	}
	return &works[0], nil
}

// LoadAll returns every persisted work ordered by title.
func (s *WorkStore) LoadAll() ([]models.WorkContext, error) {
	rows, err := s.db.Query(`
		SELECT title, characters, glossary, genre, translation_style, updated_at
		FROM works ORDER BY title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load works: %w", err)
	}
	defer rows.Close()
	return scanWorks(rows)
}

func scanWorks(rows *sql.Rows) ([]models.WorkContext, error) {
	var works []models.WorkContext
	for rows.Next() {
		var w models.WorkContext
		var charsJSON, glossaryJSON, genre, style sql.NullString
		var updatedAt int64
		if err := rows.Scan(&w.Title, &charsJSON, &glossaryJSON, &genre, &style, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan work: %w", err)
		}
		if charsJSON.Valid {
			json.Unmarshal([]byte(charsJSON.String), &w.Characters)
		}
		if glossaryJSON.Valid {
			json.Unmarshal([]byte(glossaryJSON.String), &w.Glossary)
		}
		if genre.Valid {
			w.Genre = genre.String
		}
		if style.Valid {
			w.TranslationStyle = style.String
		}
		w.UpdatedAt = time.UnixMilli(updatedAt)
		works = append(works, w)
	}
	return works, rows.Err()
}
