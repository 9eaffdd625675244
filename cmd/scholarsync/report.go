package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kangning-huang/scholarsync/internal/config"
	"github.com/kangning-huang/scholarsync/internal/pipeline"
	"github.com/kangning-huang/scholarsync/internal/reconcile"
)

var reportShowLive bool

func init() {
	reportCmd.Flags().BoolVar(&reportShowLive, "live", false, "Also list the curated publications with their displayed counts (human output)")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Review the stored snapshot against the curated list",
	Long: `Reconcile the stored citation snapshot against the curated publication
list without fetching anything, and list the publications that need a look:
curated entries missing from the profile and profile entries that are not
curated. Entries whose title mentions a poster or abstract are flagged.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

// ReportResponse is the response for the report command.
type ReportResponse struct {
	CapturedAt            time.Time                   `json:"capturedAt"`
	Live                  []reconcile.LivePublication `json:"live"`
	TotalDisplayCitations int                         `json:"totalDisplayCitations"`
	Report                reconcile.Report            `json:"report"`
}

func runReport(cmd *cobra.Command, args []string) error {
	root := mustFindSite()
	cfg := mustLoadConfig(root)
	_, snap := mustLoadSnapshot(root, cfg)

	live, report, err := pipeline.Review(snap, config.Resolve(root, cfg.CuratedPath), cfg.Match.Matcher())
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Snapshot captured %s\n", snap.CapturedAt.Local().Format(time.DateTime))
		fmt.Printf("Curated publications: %d, displayed citations: %s\n",
			len(live), formatCount(reconcile.TotalDisplayCitations(live)))
		if reportShowLive && len(live) > 0 {
			fmt.Println(renderLiveTable(live))
		}
		printReportHuman(report)
		return nil
	}

	return outputJSON(ReportResponse{
		CapturedAt:            snap.CapturedAt,
		Live:                  live,
		TotalDisplayCitations: reconcile.TotalDisplayCitations(live),
		Report:                report,
	})
}
