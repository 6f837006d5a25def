package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/lexigen-app/lexigen/internal/cli"
	"github.com/lexigen-app/lexigen/internal/fetch"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

func newSuggestCommand() *cobra.Command {
	var language string

	command := &cobra.Command{
		Use:   "suggest [word]",
		Short: "Stream related-word suggestions for a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return fmt.Errorf("newApp() > %w", err)
			}
			defer func() {
				_ = a.Close()
			}()

			if a.client == nil {
				return fmt.Errorf("suggestions need a configured generator backend (set GENERATOR_BASE_URL)")
			}

			renderer := cli.NewRenderer(cmd.OutOrStdout())
			suggester := fetch.NewSuggester(a.client.StreamSuggestions)
			_, err = suggester.Suggest(ctx, args[0], language, func(batch []lexicon.Suggestion) {
				renderer.RenderSuggestions(batch)
			})
			if err != nil {
				return fmt.Errorf("suggester.Suggest() > %w", err)
			}
			return nil
		},
	}

	command.Flags().StringVar(&language, "language", "en", "Language of the word")

	return command
}
