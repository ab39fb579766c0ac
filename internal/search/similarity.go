package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iammorganparry/transmem/internal/models"
)

// Context similarity weights. The parts sum to at most 1.0 before clamping.
const (
	sceneTypeWeight = 0.4
	chapterWeight   = 0.2
	neighborWeight  = 0.2
)

// TextSimilarity returns the Jaccard index of the case-folded,
// whitespace-separated word sets of a and b. Two texts with no words score 0.
func TextSimilarity(a, b string) float64 {
	return setOverlapRatio(wordSet(a), wordSet(b))
}

// ContextSimilarity scores how alike two narrative contexts are, in [0, 1].
// A nil context on either side scores 0. Absent scene types (and absent
// chapter numbers) compare equal to each other.
func ContextSimilarity(a, b *models.Context) float64 {
	if a == nil || b == nil {
		return 0.0
	}

	score := 0.0
	if a.SceneType == b.SceneType {
		score += sceneTypeWeight
	}
	if sameChapter(a.ChapterNumber, b.ChapterNumber) {
		score += chapterWeight
	}

	prev := TextSimilarity(a.PreviousParagraph, b.PreviousParagraph)
	next := TextSimilarity(a.NextParagraph, b.NextParagraph)
	score += (prev + next) * neighborWeight

	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}

func sameChapter(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// wordSet lower-cases s and splits it on Unicode whitespace.
// A Caser carries state, so each call gets its own.
func wordSet(s string) map[string]struct{} {
	words := strings.Fields(cases.Lower(language.Und).String(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// setOverlapRatio returns |A ∩ B| / |A ∪ B| (Jaccard index).
func setOverlapRatio(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
