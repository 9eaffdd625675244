// Package main provides the scholarsync CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// sitePath overrides site discovery
	sitePath string
	verbose  bool

	logger = slog.New(slog.DiscardHandler)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scholarsync",
	Short: "Refresh citation and blog data for a portfolio site",
	Long: `scholarsync keeps the data files of an academic portfolio site current.

It fetches citation metrics and the publication list from a Google Scholar
profile, reconciles them against the hand-curated publication list, and
persists a citation snapshot that is never replaced by an empty result.
It also refreshes recent blog posts and the citation line of a CV.

Output is JSON unless stdout is a terminal or --human is given.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupOutput,
}

func init() {
	// Load .env file if present (for SCHOLARSYNC_AUTHOR_ID, OPENALEX_MAILTO)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON (default when stdout is a terminal)")
	rootCmd.PersistentFlags().StringVar(&sitePath, "site", "", "Site root (default: discovered from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.Version = Version
}

func setupOutput(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("human") {
		humanOutput = isTerminal(os.Stdout)
	}
	logger = newLogger(os.Stderr, verbose)
	return nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
