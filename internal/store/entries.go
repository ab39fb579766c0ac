package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iammorganparry/transmem/internal/models"
)

// entryColumns is the canonical column list for all SELECT queries.
// Order must match scanEntries.
const entryColumns = `id, original_text, translated_text, context,
	frequency, last_used, created_at,
	characters, tags, work_id, chapter_id,
	confidence_score`

// EntryStore persists translation memory entries in SQLite.
type EntryStore struct {
	db *DB
}

func NewEntryStore(db *DB) *EntryStore {
	return &EntryStore{db: db}
}

// Save inserts an entry or updates the mutable columns of an existing one.
// New rows are appended to the insertion order.
func (s *EntryStore) Save(e *models.Entry) error {
	var ctxJSON []byte
	if e.Context != nil {
		ctxJSON, _ = json.Marshal(e.Context)
	}
	charsJSON, _ := json.Marshal(e.Characters)
	tagsJSON, _ := json.Marshal(e.Tags)

	_, err := s.db.Exec(`
		INSERT INTO entries (
			id, seq, original_text, translated_text, context,
			frequency, last_used, created_at,
			characters, tags, work_id, chapter_id,
			confidence_score
		) VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entries), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			translated_text = excluded.translated_text,
			context = excluded.context,
			frequency = excluded.frequency,
			last_used = excluded.last_used,
			characters = excluded.characters,
			tags = excluded.tags,
			confidence_score = excluded.confidence_score
	`,
		e.ID, e.OriginalText, e.TranslatedText, nullableString(ctxJSON),
		e.Frequency, e.LastUsed.UnixMilli(), e.CreatedAt.UnixMilli(),
		string(charsJSON), string(tagsJSON), nullableText(e.WorkID), nullableText(e.ChapterID),
		e.ConfidenceScore,
	)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

// Delete removes an entry by ID.
func (s *EntryStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("entry not found: %s", id)
	}
	return nil
}

// LoadAll returns every persisted entry in insertion order.
func (s *EntryStore) LoadAll() ([]models.Entry, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT %s FROM entries ORDER BY seq ASC`, entryColumns))
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]models.Entry, error) {
	var result []models.Entry
	for rows.Next() {
		var e models.Entry
		var ctxJSON, charsJSON, tagsJSON sql.NullString
		var workID, chapterID sql.NullString
		var lastUsed, createdAt int64

		if err := rows.Scan(
			&e.ID, &e.OriginalText, &e.TranslatedText, &ctxJSON,
			&e.Frequency, &lastUsed, &createdAt,
			&charsJSON, &tagsJSON, &workID, &chapterID,
			&e.ConfidenceScore,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e.LastUsed = time.UnixMilli(lastUsed)
		e.CreatedAt = time.UnixMilli(createdAt)
		if ctxJSON.Valid {
			var ctx models.Context
			if json.Unmarshal([]byte(ctxJSON.String), &ctx) == nil {
				e.Context = &ctx
			}
		}
		if charsJSON.Valid {
			json.Unmarshal([]byte(charsJSON.String), &e.Characters)
		}
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &e.Tags)
		}
		if workID.Valid {
			e.WorkID = workID.String
		}
		if chapterID.Valid {
			e.ChapterID = chapterID.String
		}

		result = append(result, e)
	}
	return result, rows.Err()
}

// nullableString converts a byte slice to a *string for nullable TEXT columns.
func nullableString(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}

// nullableText maps the empty string to NULL.
func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
