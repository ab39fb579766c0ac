package search

import (
	"sort"
	"time"

	"github.com/iammorganparry/transmem/internal/models"
)

// EntrySource supplies a copy snapshot of the stored entries in insertion order.
type EntrySource interface {
	AllEntries() []models.Entry
}

// WorkLookup resolves a work title to its registry record.
type WorkLookup interface {
	GetWorkContext(title string) (models.WorkContext, bool)
}

// Engine ranks stored translations against a query fragment by combined
// textual and contextual similarity. It never mutates the entries it reads.
type Engine struct {
	source        EntrySource
	works         WorkLookup
	textWeight    float64
	contextWeight float64
}

// NewEngine creates an Engine. works may be nil when no registry is wired.
func NewEngine(source EntrySource, works WorkLookup, textWeight, contextWeight float64) *Engine {
	return &Engine{
		source:        source,
		works:         works,
		textWeight:    textWeight,
		contextWeight: contextWeight,
	}
}

// SearchParams controls how a search is executed.
type SearchParams struct {
	Query     string
	Context   *models.Context
	Threshold float64
	// WorkID restricts candidates to entries of one work when set.
	WorkID string
	// MaxResults caps the ranked list; 0 returns every passing entry.
	MaxResults int
}

// Result is the outcome of a search.
type Result struct {
	Matches  []models.Match
	Scanned  int
	Work     *models.WorkContext
	Duration time.Duration
}

// FindSimilar returns every stored entry whose combined score is at least
// threshold, best first. The threshold is used as given, without clamping.
func (e *Engine) FindSimilar(query string, ctx *models.Context, threshold float64) []models.Match {
	return e.Search(SearchParams{Query: query, Context: ctx, Threshold: threshold}).Matches
}

// Search executes a ranked similarity search.
func (e *Engine) Search(params SearchParams) Result {
	start := time.Now()
	entries := e.source.AllEntries()

	matches := make([]models.Match, 0)
	scanned := 0
	for _, entry := range entries {
		if params.WorkID != "" && entry.WorkID != params.WorkID {
			continue
		}
		scanned++

		combined, textScore, ctxScore := e.Score(params.Query, params.Context, &entry)
		if combined < params.Threshold {
			continue
		}
		entry.ConfidenceScore = combined
		matches = append(matches, models.Match{
			Entry:        entry,
			Score:        combined,
			TextScore:    textScore,
			ContextScore: ctxScore,
		})
	}

	Rank(matches)

	if params.MaxResults > 0 && len(matches) > params.MaxResults {
		matches = matches[:params.MaxResults]
	}

	res := Result{Matches: matches, Scanned: scanned}
	if params.WorkID != "" && e.works != nil {
		if w, ok := e.works.GetWorkContext(params.WorkID); ok {
			res.Work = &w
		}
	}
	res.Duration = time.Since(start)
	return res
}

// Score computes the combined, text and context scores of entry against the
// query. A nil query context is "don't care" and scores 1.0.
func (e *Engine) Score(query string, ctx *models.Context, entry *models.Entry) (combined, textScore, ctxScore float64) {
	textScore = TextSimilarity(query, entry.OriginalText)
	ctxScore = 1.0
	if ctx != nil {
		ctxScore = ContextSimilarity(ctx, entry.Context)
	}
	combined = textScore*e.textWeight + ctxScore*e.contextWeight
	return combined, textScore, ctxScore
}

// Rank orders matches by score, then frequency, both descending. Equal pairs
// keep their store order.
func Rank(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Entry.Frequency > matches[j].Entry.Frequency
	})
}
