package models

import "time"

// Context captures the narrative situation a fragment was translated in.
// Empty strings mean "absent"; ChapterNumber is nil when unknown.
type Context struct {
	PreviousParagraph string `json:"previousParagraph,omitempty"`
	NextParagraph     string `json:"nextParagraph,omitempty"`
	SceneType         string `json:"sceneType,omitempty"` // dialogue, description, action, ...
	ChapterNumber     *int   `json:"chapterNumber,omitempty"`
	ChapterTitle      string `json:"chapterTitle,omitempty"`
}

// Clone returns a deep copy of the context, or nil for a nil receiver.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ChapterNumber != nil {
		n := *c.ChapterNumber
		cp.ChapterNumber = &n
	}
	return &cp
}

// Character maps a character's name in the source work to its fixed translation.
type Character struct {
	NameOriginal   string   `json:"nameOriginal" yaml:"nameOriginal"`
	NameTranslated string   `json:"nameTranslated" yaml:"nameTranslated"`
	Description    string   `json:"description,omitempty" yaml:"description"`
	Aliases        []string `json:"aliases" yaml:"aliases"`
}

// Entry is one remembered translation. Entries are owned by the memory store;
// everything handed out is a copy.
type Entry struct {
	ID              string      `json:"id"`
	OriginalText    string      `json:"originalText"`
	TranslatedText  string      `json:"translatedText"`
	Context         *Context    `json:"context,omitempty"`
	Frequency       int         `json:"frequency"`
	LastUsed        time.Time   `json:"lastUsed"`
	CreatedAt       time.Time   `json:"createdAt"`
	Characters      []Character `json:"characters"`
	Tags            []string    `json:"tags"`
	WorkID          string      `json:"workId,omitempty"`
	ChapterID       string      `json:"chapterId,omitempty"`
	ConfidenceScore float64     `json:"confidenceScore"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() Entry {
	cp := *e
	cp.Context = e.Context.Clone()
	cp.Characters = cloneCharacters(e.Characters)
	if e.Tags != nil {
		cp.Tags = append([]string(nil), e.Tags...)
	}
	return cp
}

// WorkContext is the registry record for one work (novel), keyed by title.
type WorkContext struct {
	Title            string            `json:"title" yaml:"title"`
	Characters       []Character       `json:"characters" yaml:"characters"`
	Glossary         map[string]string `json:"glossary" yaml:"glossary"`
	Genre            string            `json:"genre,omitempty" yaml:"genre"`
	TranslationStyle string            `json:"translationStyle,omitempty" yaml:"translationStyle"`
	UpdatedAt        time.Time         `json:"updatedAt" yaml:"-"`
}

// Clone returns a deep copy of the work context.
func (w *WorkContext) Clone() WorkContext {
	cp := *w
	cp.Characters = cloneCharacters(w.Characters)
	if w.Glossary != nil {
		cp.Glossary = make(map[string]string, len(w.Glossary))
		for k, v := range w.Glossary {
			cp.Glossary[k] = v
		}
	}
	return cp
}

// Match is one ranked result of a similarity query. Entry is a copy whose
// ConfidenceScore equals Score.
type Match struct {
	Entry        Entry   `json:"entry"`
	Score        float64 `json:"score"`
	TextScore    float64 `json:"textScore"`
	ContextScore float64 `json:"contextScore"`
}

func cloneCharacters(in []Character) []Character {
	if in == nil {
		return nil
	}
	out := make([]Character, len(in))
	for i, c := range in {
		out[i] = c
		if c.Aliases != nil {
			out[i].Aliases = append([]string(nil), c.Aliases...)
		}
	}
	return out
}

// IntPtr is a small helper for building contexts with a chapter number.
func IntPtr(n int) *int {
	return &n
}
