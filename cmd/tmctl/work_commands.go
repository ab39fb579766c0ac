package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/worksync"
)

func newWorkCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Manage per-work context (characters, glossary)",
	}
	cmd.AddCommand(newWorkListCommand(ctx))
	cmd.AddCommand(newWorkGetCommand(ctx))
	cmd.AddCommand(newWorkSetCommand(ctx))
	cmd.AddCommand(newWorkSyncCommand(ctx))
	return cmd
}

func newWorkListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered works",
		RunE: func(cmd *cobra.Command, args []string) error {
			works, err := ctx.client().ListWorks(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, works)
			}
			for _, w := range works {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}
}

func newWorkGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <title>",
		Short: "Show the context of a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.client().GetWork(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, w)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", w.Title)
			if w.Genre != "" {
				fmt.Fprintf(out, "Genre: %s\n", w.Genre)
			}
			if w.TranslationStyle != "" {
				fmt.Fprintf(out, "Style: %s\n", w.TranslationStyle)
			}
			if len(w.Characters) > 0 {
				fmt.Fprintln(out, renderCharacters(w.Characters))
			}
			if len(w.Glossary) > 0 {
				terms := make([]string, 0, len(w.Glossary))
				for k := range w.Glossary {
					terms = append(terms, k)
				}
				sort.Strings(terms)
				rows := make([][]string, 0, len(terms))
				for _, k := range terms {
					rows = append(rows, []string{k, w.Glossary[k]})
				}
				fmt.Fprintln(out, renderTable([]string{"Term", "Translation"}, rows, nil))
			}
			return nil
		},
	}
}

func newWorkSetCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set --file <work.yaml>",
		Short: "Create or replace a work from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			w, err := worksync.ParseWork(data)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if w.Title == "" {
				return fmt.Errorf("%s: title is required", file)
			}

			stored, err := ctx.client().PutWork(cmd.Context(), &models.WorkContextRequest{
				Title:            w.Title,
				Characters:       w.Characters,
				Glossary:         w.Glossary,
				Genre:            w.Genre,
				TranslationStyle: w.TranslationStyle,
			})
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, stored)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d characters, %d glossary terms)\n",
				stored.Title, len(stored.Characters), len(stored.Glossary))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Work YAML file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newWorkSyncCommand(ctx *commandContext) *cobra.Command {
	var dirs []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reload work files on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.client().SyncWorks(cmd.Context(), dirs)
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d, stored %d, errors %d\n", res.Found, res.Stored, res.Errors)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "Directory on the server to scan instead of the configured ones")
	return cmd
}

func newCharactersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "characters <title>",
		Short: "List the characters of a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chars, err := ctx.client().Characters(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, chars)
			}
			if len(chars) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No characters registered for %q\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCharacters(chars))
			return nil
		},
	}
}

func renderCharacters(chars []models.Character) string {
	rows := make([][]string, 0, len(chars))
	for _, c := range chars {
		rows = append(rows, []string{c.NameOriginal, c.NameTranslated, strings.Join(c.Aliases, ", "), c.Description})
	}
	return renderTable([]string{"Original", "Translated", "Aliases", "Description"}, rows, nil)
}
