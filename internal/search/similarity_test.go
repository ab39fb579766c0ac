package search

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/iammorganparry/transmem/internal/models"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "the cat sat", "the cat sat", 1.0},
		{"both empty", "", "", 0.0},
		{"one empty", "hello", "", 0.0},
		{"whitespace only", "   ", "\t\n", 0.0},
		{"case folded", "The Cat SAT", "the cat sat", 1.0},
		{"partial overlap", "the cat sat", "the dog sat", 0.5},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"repeated words count once", "go go go", "go", 1.0},
		{"punctuation is part of a word", "hello, world", "hello world", 1.0 / 3.0},
		{"non latin", "القطة جلست", "القطة نامت", 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextSimilarity(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("TextSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if rev := TextSimilarity(tt.b, tt.a); !almostEqual(rev, got) {
				t.Errorf("not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestContextSimilarity(t *testing.T) {
	ch := models.IntPtr

	tests := []struct {
		name string
		a, b *models.Context
		want float64
	}{
		{"nil left", nil, &models.Context{}, 0},
		{"nil right", &models.Context{SceneType: "dialogue"}, nil, 0},
		{"both empty", &models.Context{}, &models.Context{}, 0.6},
		{
			"scene and chapter match",
			&models.Context{SceneType: "dialogue", ChapterNumber: ch(3)},
			&models.Context{SceneType: "dialogue", ChapterNumber: ch(3)},
			0.6,
		},
		{
			"chapter differs",
			&models.Context{SceneType: "dialogue", ChapterNumber: ch(3)},
			&models.Context{SceneType: "dialogue", ChapterNumber: ch(4)},
			0.4,
		},
		{
			"one chapter absent",
			&models.Context{SceneType: "action", ChapterNumber: ch(1)},
			&models.Context{SceneType: "action"},
			0.4,
		},
		{
			"scene differs",
			&models.Context{SceneType: "action"},
			&models.Context{SceneType: "dialogue"},
			0.2,
		},
		{
			"everything matches is clamped",
			&models.Context{SceneType: "action", ChapterNumber: ch(1), PreviousParagraph: "a b", NextParagraph: "c d"},
			&models.Context{SceneType: "action", ChapterNumber: ch(1), PreviousParagraph: "a b", NextParagraph: "c d"},
			1.0,
		},
		{
			"half matching neighbor",
			&models.Context{SceneType: "x", PreviousParagraph: "a b"},
			&models.Context{SceneType: "y", PreviousParagraph: "a c b d"},
			0.2 + 0.5*0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContextSimilarity(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("ContextSimilarity = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("score %v out of [0,1]", got)
			}
		})
	}
}

func TestContextSimilarityEmptySceneTypeIsAbsent(t *testing.T) {
	var explicit, missing models.Context
	if err := json.Unmarshal([]byte(`{"sceneType":""}`), &explicit); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{}`), &missing); err != nil {
		t.Fatal(err)
	}

	if got := ContextSimilarity(&explicit, &missing); !almostEqual(got, 0.6) {
		t.Errorf("empty vs missing scene type = %v, want 0.6", got)
	}
}
