package models

// DefaultThreshold is the combined-score cutoff used when a search omits one.
const DefaultThreshold = 0.8

// CommitRequest is the payload for POST /entries.
type CommitRequest struct {
	OriginalText   string      `json:"originalText"`
	TranslatedText string      `json:"translatedText"`
	Context        *Context    `json:"context,omitempty"`
	WorkID         string      `json:"workId,omitempty"`
	ChapterID      string      `json:"chapterId,omitempty"`
	Tags           []string    `json:"tags"`
	Characters     []Character `json:"characters,omitempty"`
}

// CommitResponse is returned from POST /entries.
type CommitResponse struct {
	ID           string `json:"id"`
	Frequency    int    `json:"frequency"`
	Deduplicated bool   `json:"deduplicated"`
	EvictedID    string `json:"evictedId,omitempty"`
}

// SearchRequest is the payload for POST /entries/search.
type SearchRequest struct {
	Query      string   `json:"query"`
	Context    *Context `json:"context,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"` // nil means DefaultThreshold
	WorkID     string   `json:"workId,omitempty"`
	MaxResults int      `json:"maxResults"` // 0 means no cap
}

// SearchResponse is returned from POST /entries/search.
type SearchResponse struct {
	Matches    []Match           `json:"matches"`
	Characters []Character       `json:"characters,omitempty"`
	Glossary   map[string]string `json:"glossary,omitempty"`
	Meta       SearchMeta        `json:"meta"`
}

type SearchMeta struct {
	Scanned      int     `json:"scanned"`
	TotalResults int     `json:"totalResults"`
	Threshold    float64 `json:"threshold"`
	SearchTimeMs int     `json:"searchTimeMs"`
}

// WorkContextRequest is the payload for PUT /works/{title}.
type WorkContextRequest struct {
	Title            string            `json:"title"`
	Characters       []Character       `json:"characters"`
	Glossary         map[string]string `json:"glossary"`
	Genre            string            `json:"genre,omitempty"`
	TranslationStyle string            `json:"translationStyle,omitempty"`
}

// UpdateContextRequest is the payload for PATCH /entries/{id}/context.
type UpdateContextRequest struct {
	Context *Context `json:"context"`
}

// BulkCommitRequest is the payload for POST /entries/bulk.
type BulkCommitRequest struct {
	WorkID  string          `json:"workId,omitempty"`
	Entries []CommitRequest `json:"entries"`
}

// BulkCommitResponse is returned from POST /entries/bulk.
type BulkCommitResponse struct {
	Stored       int `json:"stored"`
	Deduplicated int `json:"deduplicated"`
	Failed       int `json:"failed"`
}

// CompactResponse is returned from POST /compact.
type CompactResponse struct {
	Evicted    int      `json:"evicted"`
	EvictedIDs []string `json:"evictedIds,omitempty"`
	Remaining  int      `json:"remaining"`
}

// Pagination holds pagination metadata.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResponse is returned from GET /entries.
type ListResponse struct {
	Entries    []Entry    `json:"entries"`
	Pagination Pagination `json:"pagination"`
}

// Stats summarizes the memory contents.
type Stats struct {
	TotalEntries    int            `json:"totalEntries"`
	TotalCommits    int            `json:"totalCommits"`
	Works           int            `json:"works"`
	EntriesByWork   map[string]int `json:"entriesByWork"`
	MaxEntries      int            `json:"maxEntries"`
	PersistenceMode string         `json:"persistenceMode"`
}

// Term is a per-request glossary override (original term -> translation).
type Term struct {
	Original    string `json:"original"`
	Translation string `json:"translation"`
}

// TranslateRequest is the payload for POST /translate.
type TranslateRequest struct {
	Text       string   `json:"text"`
	SourceLang string   `json:"sourceLang,omitempty"`
	TargetLang string   `json:"targetLang"`
	Context    *Context `json:"context,omitempty"`
	WorkID     string   `json:"workId,omitempty"`
	Terms      []Term   `json:"terms,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	NoCommit   bool     `json:"noCommit,omitempty"`
}

// TranslateResponse is returned from POST /translate.
type TranslateResponse struct {
	TranslatedText string   `json:"translatedText"`
	SourceLang     string   `json:"sourceLang,omitempty"`
	Provider       string   `json:"provider"`
	Confidence     float64  `json:"confidence"`
	FromMemory     bool     `json:"fromMemory"`
	TermsApplied   []string `json:"termsApplied,omitempty"`
	Suggestions    []Match  `json:"suggestions"`
	EntryID        string   `json:"entryId,omitempty"`
}

// ServiceCheck reports the state of one dependency.
type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status     string       `json:"status"`
	DB         ServiceCheck `json:"db"`
	Provider   ServiceCheck `json:"provider"`
	EntryCount int          `json:"entryCount"`
}

// WorkSyncResult reports what happened during a work-file sync.
type WorkSyncResult struct {
	Found  int `json:"found"`
	Stored int `json:"stored"`
	Errors int `json:"errors"`
}
