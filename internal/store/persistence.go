package store

import "github.com/iammorganparry/transmem/internal/models"

// Persistence bundles the entry and work stores behind the method set the
// memory service writes through.
type Persistence struct {
	Entries *EntryStore
	Works   *WorkStore
}

func NewPersistence(db *DB) *Persistence {
	return &Persistence{
		Entries: NewEntryStore(db),
		Works:   NewWorkStore(db),
	}
}

func (p *Persistence) SaveEntry(e *models.Entry) error { return p.Entries.Save(e) }

func (p *Persistence) DeleteEntry(id string) error { return p.Entries.Delete(id) }

func (p *Persistence) SaveWork(w *models.WorkContext) error { return p.Works.Save(w) }

func (p *Persistence) LoadEntries() ([]models.Entry, error) { return p.Entries.LoadAll() }

func (p *Persistence) LoadWorks() ([]models.WorkContext, error) { return p.Works.LoadAll() }
