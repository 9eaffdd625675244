package main

import (
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/kangning-huang/scholarsync/internal/config"
	"github.com/kangning-huang/scholarsync/internal/openalex"
	"github.com/kangning-huang/scholarsync/internal/pipeline"
	"github.com/kangning-huang/scholarsync/internal/reconcile"
	"github.com/kangning-huang/scholarsync/internal/snapshot"
)

var (
	syncDryRun      bool
	syncProfileOnly bool
	syncOpenAlex    bool
	syncNoCV        bool
	syncShowLive    bool
)

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Fetch and reconcile without writing the snapshot, CV or history")
	syncCmd.Flags().BoolVar(&syncProfileOnly, "profile-only", false, "Keep only the first profile page of publications")
	syncCmd.Flags().BoolVar(&syncOpenAlex, "openalex", false, "Look up OpenAlex counts for curated DOIs without a Scholar match (default when openalex_mailto is set)")
	syncCmd.Flags().BoolVar(&syncNoCV, "no-cv", false, "Do not rewrite the CV summary line")
	syncCmd.Flags().BoolVar(&syncShowLive, "live", false, "Also list the curated publications with their displayed counts (human output)")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch citation metrics and refresh the snapshot",
	Long: `Fetch the Scholar profile and publication list, reconcile it against the
curated publication list, and write the citation snapshot.

A run that produces no citations and no publications is treated as a failed
fetch: the previous snapshot is kept and the command still succeeds.

Exit codes:
  3  curated publication list unreadable
  4  Scholar refused the request (bot detection)
  5  retries exhausted
  6  another sync is running`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	root := mustFindSite()
	cfg := mustValidConfig(root)

	lockPath := config.LockPath(root)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		exitWithError(ExitError, "acquiring lock %s: %v", lockPath, err)
	}
	if !locked {
		exitWithError(ExitLocked, "another sync is running (lock held on %s)", lockPath)
	}
	defer lock.Unlock()

	db := mustOpenHistory(root)
	defer db.Close()

	deps := pipeline.Deps{
		Scholar:   newScholarClient(cfg),
		Snapshots: snapshot.NewStore(config.Resolve(root, cfg.SnapshotPath)),
		History:   db,
		Logger:    logger,
	}
	if syncOpenAlex || cfg.OpenAlexMailto != "" {
		deps.OpenAlex = openalex.NewClient(
			openalex.WithBaseURL(cfg.OpenAlexBaseURL),
			openalex.WithMailto(cfg.OpenAlexMailto),
			openalex.WithLogger(logger),
		)
	}

	opts := pipeline.Options{
		CuratedPath: config.Resolve(root, cfg.CuratedPath),
		Matcher:     cfg.Match.Matcher(),
		ProfileOnly: syncProfileOnly,
		DryRun:      syncDryRun,
	}
	if !syncNoCV {
		opts.CVPath = config.Resolve(root, cfg.CVPath)
	}

	out, err := pipeline.Run(cmd.Context(), deps, opts)
	if err != nil {
		// os.Exit skips deferred cleanup
		db.Close()
		lock.Unlock()
		exitWithError(exitCodeFor(err), "sync failed: %v", err)
	}

	if humanOutput {
		printSyncHuman(out)
		return nil
	}
	return outputJSON(out)
}

func printSyncHuman(out *pipeline.Outcome) {
	snap := out.Snapshot
	fmt.Printf("Citations: %s  h-index: %d  i10-index: %d\n",
		formatCount(snap.TotalCitations), snap.HIndex, snap.I10Index)
	if byYear := formatCitedByYear(snap); byYear != "" {
		fmt.Printf("Cited by year: %s\n", byYear)
	}
	fmt.Printf("Publications: %d (%d page requests", len(snap.Publications), out.Requests)
	if out.Partial {
		fmt.Printf(", partial: %s", out.PaginationError)
	}
	fmt.Println(")")

	switch {
	case out.DryRun:
		fmt.Println("Snapshot: not written (dry run)")
	case out.Persist == snapshot.OutcomeSkipped:
		fmt.Println("Snapshot: kept previous (empty result)")
	default:
		fmt.Println("Snapshot: written")
	}

	fmt.Printf("Matched: %d curated publications", out.Matched)
	if out.Duplicates > 0 {
		fmt.Printf(" (%d duplicate versions)", out.Duplicates)
	}
	if out.OpenAlexUpdated > 0 {
		fmt.Printf(", %d from OpenAlex", out.OpenAlexUpdated)
	}
	fmt.Println()

	switch {
	case out.CVError != "":
		fmt.Printf("CV: not updated (%s)\n", out.CVError)
	case out.CVUpdated:
		fmt.Println("CV: updated")
	}

	if syncShowLive && len(out.Live) > 0 {
		fmt.Println()
		fmt.Println(renderLiveTable(out.Live))
	}
	printReportHuman(out.Report)
}

// formatCitedByYear renders per-year counts oldest first.
func formatCitedByYear(snap *snapshot.Snapshot) string {
	years := snap.Years()
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, y+" "+formatCount(snap.CitedByYear[y]))
	}
	return strings.Join(parts, ", ")
}

func printReportHuman(r reconcile.Report) {
	if r.Clean() {
		fmt.Println("\nCurated list and profile agree.")
		return
	}
	if len(r.Missing) > 0 {
		fmt.Printf("\nCurated but not on the profile (%d):\n", len(r.Missing))
		fmt.Println(renderEntryTable(r.Missing))
	}
	if len(r.Extra) > 0 {
		fmt.Printf("\nOn the profile but not curated (%d):\n", len(r.Extra))
		fmt.Println(renderEntryTable(r.Extra))
	}
}

func renderEntryTable(entries []reconcile.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		note := ""
		if e.LikelyNonArticle {
			note = "poster/abstract"
		}
		rows = append(rows, []string{
			truncateString(e.Title, ReportTitleMaxLen),
			formatYear(e.Year),
			formatCount(e.CitationCount),
			note,
		})
	}
	return renderTable([]column{left("Title"), right("Year"), right("Cited by"), left("Note")}, rows)
}

func renderLiveTable(live []reconcile.LivePublication) string {
	rows := make([][]string, 0, len(live))
	for _, l := range reconcile.SortedByCitations(live) {
		rows = append(rows, []string{
			truncateString(l.Title, ReportTitleMaxLen),
			formatYear(l.Year),
			formatCount(l.DisplayCitations),
			strings.TrimSpace(string(l.Source) + " " + l.MatchRule),
		})
	}
	return renderTable([]column{left("Title"), right("Year"), right("Cited by"), left("Source")}, rows)
}
