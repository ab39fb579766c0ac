package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iammorganparry/transmem/internal/models"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var workID string
	var threshold float64
	var maxResults int
	var cf contextFlags

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find stored translations similar to a fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.SearchRequest{
				Query:      args[0],
				Context:    cf.build(),
				WorkID:     workID,
				MaxResults: maxResults,
			}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}

			resp, err := ctx.client().Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}

			if len(resp.Matches) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No matches (scanned %d, threshold %s)\n", resp.Meta.Scanned, formatScore(resp.Meta.Threshold))
				return nil
			}
			rows := make([][]string, 0, len(resp.Matches))
			for _, m := range resp.Matches {
				rows = append(rows, []string{
					formatScore(m.Score),
					formatScore(m.TextScore),
					formatScore(m.ContextScore),
					strconv.Itoa(m.Entry.Frequency),
					truncate(m.Entry.OriginalText, cellWidth),
					truncate(m.Entry.TranslatedText, cellWidth),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Score", "Text", "Context", "Freq", "Original", "Translation"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&workID, "work", "", "Restrict to one work")
	cmd.Flags().Float64Var(&threshold, "threshold", models.DefaultThreshold, "Minimum combined score")
	cmd.Flags().IntVar(&maxResults, "max", 0, "Maximum results (0 = all)")
	cf.register(cmd)
	return cmd
}

func newCommitCommand(ctx *commandContext) *cobra.Command {
	var workID, chapterID string
	var tags []string
	var cf contextFlags

	cmd := &cobra.Command{
		Use:   "commit <original> <translation>",
		Short: "Record a translation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Commit(cmd.Context(), &models.CommitRequest{
				OriginalText:   args[0],
				TranslatedText: args[1],
				Context:        cf.build(),
				WorkID:         workID,
				ChapterID:      chapterID,
				Tags:           tags,
			})
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}

			if resp.Deduplicated {
				fmt.Fprintf(cmd.OutOrStdout(), "Known fragment %s, frequency now %d\n", resp.ID, resp.Frequency)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", resp.ID)
			}
			if resp.EvictedID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Evicted %s to stay within capacity\n", resp.EvictedID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workID, "work", "", "Work the fragment belongs to")
	cmd.Flags().StringVar(&chapterID, "chapter-id", "", "Chapter identifier")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	cf.register(cmd)
	return cmd
}

func newEntriesCommand(ctx *commandContext) *cobra.Command {
	var page, limit int
	var workID string

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List stored translations",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().List(cmd.Context(), page, limit, workID)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}

			rows := make([][]string, 0, len(resp.Entries))
			for _, e := range resp.Entries {
				rows = append(rows, []string{
					e.ID[:8],
					strconv.Itoa(e.Frequency),
					e.WorkID,
					strings.Join(e.Tags, ","),
					truncate(e.OriginalText, cellWidth),
					truncate(e.TranslatedText, cellWidth),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Freq", "Work", "Tags", "Original", "Translation"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			p := resp.Pagination
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d entries)\n", p.Page, p.TotalPages, p.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 50, "Entries per page")
	cmd.Flags().StringVar(&workID, "work", "", "Restrict to one work")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, st)
			}

			capacity := "unbounded"
			if st.MaxEntries > 0 {
				capacity = strconv.Itoa(st.MaxEntries)
			}
			rows := [][]string{
				{"Entries", strconv.Itoa(st.TotalEntries)},
				{"Commits", strconv.Itoa(st.TotalCommits)},
				{"Works", strconv.Itoa(st.Works)},
				{"Capacity", capacity},
				{"Persistence", st.PersistenceMode},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newCompactCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Evict least recently used entries down to capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Compact(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d, %d remaining\n", resp.Evicted, resp.Remaining)
			return nil
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ctx.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, h)
			}
			rows := [][]string{
				{"status", h.Status, ""},
				{"db", h.DB.Status, h.DB.Message},
				{"provider", h.Provider.Status, h.Provider.Message},
				{"entries", strconv.Itoa(h.EntryCount), ""},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			return nil
		},
	}
}
