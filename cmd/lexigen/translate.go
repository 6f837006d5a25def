package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexigen-app/lexigen/internal/cli"
	"github.com/lexigen-app/lexigen/internal/generator"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

func newTranslateCommand() *cobra.Command {
	var (
		from string
		to   string
	)

	command := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate a phrase with a one-shot generation call",
		Args:  cobra.MinimumNArgs(1),
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
				return fmt.Errorf("translation needs a configured generator backend (set GENERATOR_BASE_URL)")
			}

			text := strings.Join(args, " ")
			prompt := fmt.Sprintf("Translate %q to %s. Reply with the translation only.", text, to)
			if from != "" {
				prompt = fmt.Sprintf("Translate %q from %s to %s. Reply with the translation only.", text, from, to)
			}

			translated, err := a.client.GenerateText(ctx, generator.GenerateRequest{Prompt: prompt})
			if err != nil {
				return fmt.Errorf("client.GenerateText() > %w", err)
			}

			cli.NewRenderer(cmd.OutOrStdout()).RenderTranslation(lexicon.Translation{
				Text:           translated,
				SourceLanguage: from,
			})
			return nil
		},
	}

	command.Flags().StringVar(&from, "from", "", "Source language (detected when empty)")
	command.Flags().StringVar(&to, "to", "en", "Target language")

	return command
}
