package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/iammorganparry/transmem/internal/client"
)

// commandContext carries the persistent flags shared by every subcommand.
type commandContext struct {
	serverURL string
	apiKey    string
	jsonOut   bool
}

func (c *commandContext) client() *client.Client {
	return client.New(c.serverURL, c.apiKey)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "tmctl",
		Short:         "Translation memory CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.serverURL, "server", envOr("TRANSMEM_SERVER_URL", "http://localhost:8750"), "transmem server URL")
	rootCmd.PersistentFlags().StringVar(&ctx.apiKey, "api-key", os.Getenv("TRANSMEM_API_KEY"), "Bearer token for the server")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOut, "json", false, "Print raw JSON instead of tables")

	rootCmd.AddCommand(newHealthCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newCommitCommand(ctx))
	rootCmd.AddCommand(newEntriesCommand(ctx))
	rootCmd.AddCommand(newCharactersCommand(ctx))
	rootCmd.AddCommand(newWorkCommand(ctx))
	rootCmd.AddCommand(newTranslateCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newCompactCommand(ctx))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
