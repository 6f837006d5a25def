package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lexigen-app/lexigen/internal/cli"
	"github.com/lexigen-app/lexigen/internal/fetch"
)

type Format string

func (f *Format) Set(val string) error {
	for _, format := range allFormats {
		if val == string(format) {
			*f = format
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s", val)
}

func (f Format) String() string {
	return string(f)
}

func (f *Format) Type() string {
	return "Format"
}

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	_          pflag.Value = (*Format)(nil)
	allFormats             = []Format{FormatText, FormatJSON}
)

func newLookupCommand() *cobra.Command {
	var (
		language     string
		showProgress bool
	)
	format := FormatText

	command := &cobra.Command{
		Use:   "lookup [word]",
		Short: "Look up a dictionary entry, generating one when it is not cached",
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

			renderer := cli.NewRenderer(cmd.OutOrStdout())
			var onProgress fetch.ProgressFunc
			if showProgress && format == FormatText {
				onProgress = renderer.RenderProgress
			}

			entry, err := a.chain.Lookup(ctx, args[0], language, onProgress)
			if err != nil {
				return fmt.Errorf("chain.Lookup() > %w", err)
			}

			if format == FormatJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(entry)
			}
			renderer.RenderEntry(*entry)
			return nil
		},
	}

	command.Flags().StringVar(&language, "language", "en", "Language of the word")
	command.Flags().BoolVar(&showProgress, "progress", true, "Show partial results while generating")
	command.Flags().Var(&format, "output", fmt.Sprintf("Output format. Possible values are %v", allFormats))

	return command
}
