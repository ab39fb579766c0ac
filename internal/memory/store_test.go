package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iammorganparry/transmem/internal/models"
)

// fakeClock advances by one second on every reading.
func fakeClock(s *Store) {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestStoreCommitDeduplicates(t *testing.T) {
	s := NewStore(0)

	first := s.Commit(models.Entry{OriginalText: "hello world", TranslatedText: "hola mundo"})
	if first.Deduplicated || first.Entry.Frequency != 1 || first.Entry.ID == "" {
		t.Fatalf("unexpected first commit: %+v", first)
	}

	second := s.Commit(models.Entry{
		OriginalText:   "hello world",
		TranslatedText: "HOLA",
		Context:        &models.Context{SceneType: "dialogue"},
	})
	if !second.Deduplicated {
		t.Fatal("expected dedup on second commit")
	}

	if s.Len() != 1 {
		t.Fatalf("store size = %d, want 1", s.Len())
	}
	e, _ := s.Get(first.Entry.ID)
	if e.Frequency != 2 {
		t.Errorf("frequency = %d, want 2", e.Frequency)
	}
	if e.TranslatedText != "hola mundo" {
		t.Errorf("translation = %q, want first committed value", e.TranslatedText)
	}
	if e.Context != nil {
		t.Errorf("context should not be taken from a duplicate, got %+v", e.Context)
	}
	if e.LastUsed.Before(e.CreatedAt) {
		t.Errorf("last used %v before created %v", e.LastUsed, e.CreatedAt)
	}
}

func TestStoreCommitNormalizesTags(t *testing.T) {
	s := NewStore(0)
	res := s.Commit(models.Entry{OriginalText: "x", Tags: []string{"a", "", "b", "a"}})
	if got := res.Entry.Tags; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("tags = %v, want [a b]", got)
	}
	if res.Entry.Characters == nil {
		t.Error("characters should be an empty slice, not nil")
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore(0)
	res := s.Commit(models.Entry{OriginalText: "x", Context: &models.Context{SceneType: "action"}})

	all := s.AllEntries()
	all[0].TranslatedText = "mutated"
	all[0].Context.SceneType = "mutated"

	e, _ := s.Get(res.Entry.ID)
	if e.TranslatedText == "mutated" || e.Context.SceneType == "mutated" {
		t.Errorf("store entry changed through a copy: %+v", e)
	}
}

func TestStoreUpdateEntryContext(t *testing.T) {
	s := NewStore(0)
	a := s.Commit(models.Entry{OriginalText: "a"})
	s.Commit(models.Entry{OriginalText: "b"})

	t.Run("by index", func(t *testing.T) {
		e, err := s.UpdateEntryContextAt(1, &models.Context{SceneType: "action"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.OriginalText != "b" || e.Context.SceneType != "action" {
			t.Errorf("updated wrong entry: %+v", e)
		}
	})

	t.Run("invalid index", func(t *testing.T) {
		for _, idx := range []int{5, 2, -1} {
			_, err := s.UpdateEntryContextAt(idx, &models.Context{})
			if !errors.Is(err, ErrInvalidIndex) {
				t.Errorf("index %d: err = %v, want ErrInvalidIndex", idx, err)
			}
		}
	})

	t.Run("by id", func(t *testing.T) {
		ctx := &models.Context{ChapterNumber: models.IntPtr(7)}
		e, err := s.UpdateEntryContext(a.Entry.ID, ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		*ctx.ChapterNumber = 99
		if *e.Context.ChapterNumber != 7 {
			t.Errorf("store kept a reference to the caller's context")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.UpdateEntryContext("nope", nil)
		if !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("err = %v, want ErrEntryNotFound", err)
		}
	})
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewStore(2)
	fakeClock(s)

	a := s.Commit(models.Entry{OriginalText: "a"})
	b := s.Commit(models.Entry{OriginalText: "b"})
	s.Commit(models.Entry{OriginalText: "a"}) // refresh a

	c := s.Commit(models.Entry{OriginalText: "c"})
	if c.Evicted == nil || c.Evicted.ID != b.Entry.ID {
		t.Fatalf("evicted = %+v, want b", c.Evicted)
	}
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
	if _, ok := s.Get(a.Entry.ID); !ok {
		t.Error("recently used entry a was evicted")
	}

	// The evicted text is free to be committed again as a new entry.
	again := s.Commit(models.Entry{OriginalText: "b"})
	if again.Deduplicated || again.Entry.ID == b.Entry.ID {
		t.Errorf("re-commit of evicted text = %+v", again)
	}
}

func TestStoreTrim(t *testing.T) {
	s := NewStore(0)
	fakeClock(s)
	for i := 0; i < 5; i++ {
		s.Commit(models.Entry{OriginalText: fmt.Sprintf("line %d", i)})
	}

	evicted := s.Trim(2)
	if len(evicted) != 3 {
		t.Fatalf("evicted %d, want 3", len(evicted))
	}
	if evicted[0].OriginalText != "line 0" {
		t.Errorf("first evicted = %q, want oldest", evicted[0].OriginalText)
	}
	all := s.AllEntries()
	if len(all) != 2 || all[0].OriginalText != "line 3" || all[1].OriginalText != "line 4" {
		t.Errorf("remaining = %+v", all)
	}
}

func TestStoreWorkContext(t *testing.T) {
	s := NewStore(0)

	if chars := s.CharactersFor("unknown"); chars == nil || len(chars) != 0 {
		t.Errorf("unknown title characters = %#v, want empty slice", chars)
	}
	if _, ok := s.GetWorkContext("unknown"); ok {
		t.Error("unknown title reported as found")
	}

	s.SetWorkContext(models.WorkContext{
		Title:      "Novel",
		Characters: []models.Character{{NameOriginal: "Aiko", NameTranslated: "أيكو"}},
		Genre:      "drama",
	})
	s.SetWorkContext(models.WorkContext{Title: "Novel", Genre: "comedy"})

	w, ok := s.GetWorkContext("Novel")
	if !ok {
		t.Fatal("work not found")
	}
	if w.Genre != "comedy" || len(w.Characters) != 0 {
		t.Errorf("set did not fully replace: %+v", w)
	}
	if w.Glossary == nil {
		t.Error("glossary should default to an empty map")
	}
	if titles := s.WorkTitles(); len(titles) != 1 || titles[0] != "Novel" {
		t.Errorf("titles = %v", titles)
	}
}

func TestStoreRestore(t *testing.T) {
	s := NewStore(0)
	s.Commit(models.Entry{OriginalText: "discarded"})

	s.Restore([]models.Entry{
		{ID: "1", OriginalText: "one", Frequency: 4},
		{ID: "2", OriginalText: "one", Frequency: 1},
		{OriginalText: "two", Frequency: 1},
	}, []models.WorkContext{{Title: "W"}})

	all := s.AllEntries()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].ID != "1" || all[0].Frequency != 4 {
		t.Errorf("first restored entry = %+v", all[0])
	}
	if all[1].ID == "" {
		t.Error("restored entry without ID was not assigned one")
	}
	if _, ok := s.GetWorkContext("W"); !ok {
		t.Error("work not restored")
	}

	// Dedup index follows the restored entries.
	if res := s.Commit(models.Entry{OriginalText: "one"}); !res.Deduplicated {
		t.Error("expected restored text to dedup")
	}
}

func TestStoreConcurrentCommits(t *testing.T) {
	s := NewStore(0)

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Commit(models.Entry{OriginalText: fmt.Sprintf("shared %d", i)})
				if w%4 == 0 {
					s.AllEntries()
				}
			}
		}(w)
	}
	wg.Wait()

	if s.Len() != perWorker {
		t.Fatalf("len = %d, want %d (same text must never be stored twice)", s.Len(), perWorker)
	}
	st := s.Stats()
	if st.TotalCommits != workers*perWorker {
		t.Errorf("total commits = %d, want %d", st.TotalCommits, workers*perWorker)
	}
}
