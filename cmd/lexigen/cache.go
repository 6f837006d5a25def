package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache management commands",
	}

	cacheCmd.AddCommand(newCacheStatsCommand())
	cacheCmd.AddCommand(newCachePurgeCommand())
	cacheCmd.AddCommand(newCacheInvalidateCommand())

	return cacheCmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("newApp() > %w", err)
			}
			defer func() {
				_ = a.Close()
			}()

			stats, err := a.cache.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("cache.Stats() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "entries: %d\nexpired: %d\n", stats.Entries, stats.Expired)
			return nil
		},
	}
}

func newCachePurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("newApp() > %w", err)
			}
			defer func() {
				_ = a.Close()
			}()

			removed, err := a.cache.PurgeExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("cache.PurgeExpired() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entr%s\n", removed, pluralY(removed))
			return nil
		},
	}
}

func newCacheInvalidateCommand() *cobra.Command {
	var language string

	command := &cobra.Command{
		Use:   "invalidate [word]",
		Short: "Drop the cached entry for a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("newApp() > %w", err)
			}
			defer func() {
				_ = a.Close()
			}()

			if err := a.chain.Invalidate(cmd.Context(), args[0], language); err != nil {
				return fmt.Errorf("chain.Invalidate() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "invalidated %q\n", args[0])
			return nil
		},
	}

	command.Flags().StringVar(&language, "language", "en", "Language of the word")

	return command
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
