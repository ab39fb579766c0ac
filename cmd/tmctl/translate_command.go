package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iammorganparry/transmem/internal/models"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var from, to, workID, providerName string
	var noCommit bool
	var cf contextFlags

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text using the memory and the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Translate(cmd.Context(), &models.TranslateRequest{
				Text:       args[0],
				SourceLang: from,
				TargetLang: to,
				Context:    cf.build(),
				WorkID:     workID,
				Provider:   providerName,
				NoCommit:   noCommit,
			})
			if err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.TranslatedText)
			source := resp.Provider
			if resp.FromMemory {
				source = "memory"
			}
			fmt.Fprintf(out, "\n(%s, confidence %s, %d suggestions)\n", source, formatScore(resp.Confidence), len(resp.Suggestions))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source language (optional)")
	cmd.Flags().StringVar(&to, "to", "", "Target language")
	cmd.Flags().StringVar(&workID, "work", "", "Work the text belongs to")
	cmd.Flags().StringVar(&providerName, "provider", "", "Preferred provider")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "Do not record the result in memory")
	cmd.MarkFlagRequired("to")
	cf.register(cmd)
	return cmd
}
