package worksync

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseWork(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantChars int
		wantGloss int
		wantStyle string
		wantErr   bool
	}{
		{
			name: "full work",
			input: `title: Lord of the Mysteries
genre: fantasy
translationStyle: formal
characters:
  - nameOriginal: 克莱恩
    nameTranslated: Klein
    aliases: [周明瑞]
glossary:
  序列: Sequence
  非凡者: Beyonder
`,
			wantTitle: "Lord of the Mysteries",
			wantChars: 1,
			wantGloss: 2,
			wantStyle: "formal",
		},
		{
			name: "folded style",
			input: `title: Novel
translationStyle: >
  Keep honorifics,
  prefer short sentences.
`,
			wantTitle: "Novel",
			wantStyle: "Keep honorifics, prefer short sentences.",
		},
		{
			name:    "unknown key",
			input:   "title: Novel\nauthor: someone\n",
			wantErr: true,
		},
		{
			name:    "not yaml",
			input:   "title: [unterminated\n",
			wantErr: true,
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWork([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if len(got.Characters) != tt.wantChars {
				t.Errorf("characters = %d, want %d", len(got.Characters), tt.wantChars)
			}
			if len(got.Glossary) != tt.wantGloss {
				t.Errorf("glossary = %d, want %d", len(got.Glossary), tt.wantGloss)
			}
			if got.TranslationStyle != tt.wantStyle {
				t.Errorf("style = %q, want %q", got.TranslationStyle, tt.wantStyle)
			}
		})
	}
}

func TestScanWorks(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "one.yaml"), []byte("title: Work One\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "two.yml"), []byte("title: Work Two\n"), 0o644)
	// Not YAML, skipped silently
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a work"), 0o644)
	// Broken YAML, reported as invalid
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("title: [oops\n"), 0o644)
	// Subdirectories are not walked
	os.MkdirAll(filepath.Join(dir, "nested"), 0o755)
	os.WriteFile(filepath.Join(dir, "nested", "three.yaml"), []byte("title: Work Three\n"), 0o644)

	works, invalid, err := ScanWorks([]string{dir})
	if err != nil {
		t.Fatalf("ScanWorks error: %v", err)
	}

	if len(works) != 2 {
		t.Fatalf("expected 2 works, got %d", len(works))
	}
	if len(invalid) != 1 {
		t.Fatalf("expected 1 invalid file, got %d", len(invalid))
	}

	for _, w := range works {
		if w.Path == "" {
			t.Errorf("work %q has empty path", w.Work.Title)
		}
	}
}

func TestScanWorksNonexistentDir(t *testing.T) {
	works, invalid, err := ScanWorks([]string{"/nonexistent/path"})
	if err != nil {
		t.Fatalf("expected no error for nonexistent dir, got: %v", err)
	}
	if len(works) != 0 || len(invalid) != 0 {
		t.Fatalf("expected nothing, got %d works, %d invalid", len(works), len(invalid))
	}
}

func TestScanWorksFallbackTitle(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "my-novel.yaml"), []byte("genre: wuxia\n"), 0o644)

	works, _, err := ScanWorks([]string{dir})
	if err != nil {
		t.Fatalf("ScanWorks error: %v", err)
	}

	if len(works) != 1 {
		t.Fatalf("expected 1 work, got %d", len(works))
	}
	if works[0].Work.Title != "my-novel" {
		t.Errorf("expected fallback title 'my-novel', got %q", works[0].Work.Title)
	}
}
