package main

import (
	"github.com/spf13/cobra"

	"github.com/iammorganparry/transmem/internal/models"
)

// contextFlags collects the surrounding-context flags of a fragment.
type contextFlags struct {
	sceneType    string
	chapter      int
	chapterTitle string
	prev         string
	next         string
}

func (f *contextFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sceneType, "scene", "", "Scene type (dialogue, action, ...)")
	cmd.Flags().IntVar(&f.chapter, "chapter", -1, "Chapter number")
	cmd.Flags().StringVar(&f.chapterTitle, "chapter-title", "", "Chapter title")
	cmd.Flags().StringVar(&f.prev, "prev", "", "Previous paragraph")
	cmd.Flags().StringVar(&f.next, "next", "", "Next paragraph")
}

// build returns nil when no context flag was given.
func (f *contextFlags) build() *models.Context {
	if f.sceneType == "" && f.chapter < 0 && f.chapterTitle == "" && f.prev == "" && f.next == "" {
		return nil
	}
	c := &models.Context{
		SceneType:         f.sceneType,
		ChapterTitle:      f.chapterTitle,
		PreviousParagraph: f.prev,
		NextParagraph:     f.next,
	}
	if f.chapter >= 0 {
		c.ChapterNumber = models.IntPtr(f.chapter)
	}
	return c
}
