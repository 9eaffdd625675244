package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kangning-huang/scholarsync/internal/history"
)

const DefaultHistoryLimit = 10

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", DefaultHistoryLimit, "Number of runs to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sync runs",
	Long: `List recent sync runs, newest first, with the outcome of each: written,
skipped (empty result, previous snapshot kept) or failed.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

// RunEntry is one run in the history response.
type RunEntry struct {
	ID               string     `json:"id"`
	StartedAt        time.Time  `json:"startedAt"`
	CapturedAt       *time.Time `json:"capturedAt,omitempty"`
	Outcome          string     `json:"outcome"`
	TotalCitations   int        `json:"totalCitations"`
	HIndex           int        `json:"hIndex"`
	I10Index         int        `json:"i10Index"`
	PublicationCount int        `json:"publicationCount"`
	Partial          bool       `json:"partial"`
	Error            string     `json:"error,omitempty"`
}

// HistoryResponse is the response for the history command.
type HistoryResponse struct {
	Runs        []RunEntry `json:"runs"`
	Total       int        `json:"total"`
	LastWritten *RunEntry  `json:"lastWritten,omitempty"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	root := mustFindSite()
	db := mustOpenHistory(root)
	defer db.Close()

	runs, err := db.Recent(historyLimit)
	if err != nil {
		exitWithError(ExitDataError, "reading history: %v", err)
	}
	total, err := db.Count()
	if err != nil {
		exitWithError(ExitDataError, "reading history: %v", err)
	}
	latest, err := db.Latest()
	if err != nil {
		exitWithError(ExitDataError, "reading history: %v", err)
	}

	if humanOutput {
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		now := time.Now()
		fmt.Println(renderHistoryTable(runs, now))
		if total > len(runs) {
			fmt.Printf("Showing %d of %d runs\n", len(runs), total)
		}
		fmt.Println(formatLastWritten(latest, now))
		return nil
	}

	entries := make([]RunEntry, 0, len(runs))
	for _, r := range runs {
		entries = append(entries, newRunEntry(r))
	}
	resp := HistoryResponse{Runs: entries, Total: total}
	if latest != nil {
		e := newRunEntry(*latest)
		resp.LastWritten = &e
	}
	return outputJSON(resp)
}

// formatLastWritten describes the run that produced the current snapshot.
func formatLastWritten(latest *history.Run, now time.Time) string {
	if latest == nil {
		return "No snapshot written yet."
	}
	return fmt.Sprintf("Current snapshot: written %s (%s citations, h-index %d)",
		humanize.RelTime(latest.StartedAt, now, "ago", "from now"),
		formatCount(latest.TotalCitations), latest.HIndex)
}

func newRunEntry(r history.Run) RunEntry {
	e := RunEntry{
		ID:               r.ID,
		StartedAt:        r.StartedAt,
		Outcome:          r.Outcome,
		TotalCitations:   r.TotalCitations,
		HIndex:           r.HIndex,
		I10Index:         r.I10Index,
		PublicationCount: r.PublicationCount,
		Partial:          r.Partial,
		Error:            r.Error,
	}
	if !r.CapturedAt.IsZero() {
		captured := r.CapturedAt
		e.CapturedAt = &captured
	}
	return e
}

func renderHistoryTable(runs []history.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			runOutcomeLabel(r),
			formatCount(r.TotalCitations),
			fmt.Sprint(r.HIndex),
			fmt.Sprint(r.PublicationCount),
			truncateString(r.Error, HistoryErrorMaxLen),
		})
	}
	return renderTable([]column{
		left("Started"), left("Outcome"), right("Citations"), right("h-index"), right("Pubs"), left("Error"),
	}, rows)
}

// runOutcomeLabel renders a run outcome, marking partial publication lists.
func runOutcomeLabel(r history.Run) string {
	if r.Partial {
		return r.Outcome + " (partial)"
	}
	return r.Outcome
}
