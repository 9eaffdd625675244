// Package pipeline drives one sync run: fetch the profile, walk the
// publication list, reconcile against the curated list, persist the
// snapshot and build the review report.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kangning-huang/scholarsync/internal/cvtext"
	"github.com/kangning-huang/scholarsync/internal/fetch"
	"github.com/kangning-huang/scholarsync/internal/history"
	"github.com/kangning-huang/scholarsync/internal/openalex"
	"github.com/kangning-huang/scholarsync/internal/publication"
	"github.com/kangning-huang/scholarsync/internal/reconcile"
	"github.com/kangning-huang/scholarsync/internal/scholar"
	"github.com/kangning-huang/scholarsync/internal/snapshot"
	"github.com/kangning-huang/scholarsync/internal/title"
)

// Deps are the collaborators of a run. History and OpenAlex are optional.
type Deps struct {
	Scholar   *scholar.Client
	Snapshots *snapshot.Store
	History   *history.DB
	OpenAlex  *openalex.Client
	Logger    *slog.Logger

	// Now and NewRunID default to time.Now and uuid.NewString.
	Now      func() time.Time
	NewRunID func() string
}

// Options control a run.
type Options struct {
	// CuratedPath is the curated publication list. Empty skips matching.
	CuratedPath string
	Matcher     title.Matcher
	// CVPath is rewritten after a written snapshot when set.
	CVPath string
	// ProfileOnly skips pagination and keeps the first profile page.
	ProfileOnly bool
	// DryRun runs every stage but leaves the snapshot and CV untouched.
	DryRun bool
}

// Outcome summarizes a run.
type Outcome struct {
	RunID           string                      `json:"runId"`
	DryRun          bool                        `json:"dryRun,omitempty"`
	StartedAt       time.Time                   `json:"startedAt"`
	Snapshot        *snapshot.Snapshot          `json:"snapshot"`
	Persist         snapshot.Outcome            `json:"persist"`
	Requests        int                         `json:"pageRequests"`
	Partial         bool                        `json:"partial"`
	PaginationError string                      `json:"paginationError,omitempty"`
	Matched         int                         `json:"matched"`
	Duplicates      int                         `json:"duplicates"`
	OpenAlexUpdated int                         `json:"openalexUpdated"`
	Live            []reconcile.LivePublication `json:"live,omitempty"`
	Report          reconcile.Report            `json:"report"`
	CVUpdated       bool                        `json:"cvUpdated"`
	CVError         string                      `json:"cvError,omitempty"`
}

// Run executes Fetch -> Parse -> Match -> Persist -> Report once. An
// unreadable curated list, an unreachable profile or a cancelled context is
// fatal; a failing publications page, an OpenAlex batch or the CV rewrite
// degrade the run and are logged. An empty candidate is not persisted and
// is not an error.
func Run(ctx context.Context, d Deps, opts Options) (*Outcome, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	newID := d.NewRunID
	if newID == nil {
		newID = uuid.NewString
	}

	out := &Outcome{RunID: newID(), StartedAt: now().UTC(), DryRun: opts.DryRun}
	logger = logger.With("run", out.RunID)

	var curated []publication.Publication
	if opts.CuratedPath != "" {
		var err error
		curated, err = publication.Load(opts.CuratedPath)
		if err != nil {
			return out, fail(d, logger, out, &StageError{Stage: StageInput, Err: err})
		}
	}

	// Fetch + Parse
	profile, err := d.Scholar.FetchProfile(ctx)
	if err != nil {
		stage := StageParse
		if fetch.IsBlocked(err) || fetch.IsExhausted(err) || fetch.IsTransient(err) || ctx.Err() != nil {
			stage = StageFetch
		}
		return out, fail(d, logger, out, &StageError{Stage: stage, Err: err})
	}
	logger.Info("profile fetched", "name", profile.Name,
		"citations", profile.TotalCitations, "h_index", profile.HIndex, "i10_index", profile.I10Index)

	pubs := profile.Publications
	out.Requests = 1
	if !opts.ProfileOnly {
		all, perr := d.Scholar.FetchAllPublications(ctx)
		out.Requests += all.Requests
		if perr != nil {
			out.Partial = true
			out.PaginationError = perr.Error()
			logger.Warn("publication pagination stopped early", "kept", len(all.Items), "error", perr)
		}
		if len(all.Items) > 0 {
			pubs = all.Items
		}
	}

	snap := &snapshot.Snapshot{
		TotalCitations: profile.TotalCitations,
		HIndex:         profile.HIndex,
		I10Index:       profile.I10Index,
		CitedByYear:    profile.CitedByYear,
		Publications:   pubs,
		CapturedAt:     now().UTC(),
	}
	out.Snapshot = snap

	// Match
	if opts.CuratedPath != "" {
		result := reconcile.Reconcile(curated, pubs, opts.Matcher)
		out.Matched = len(result.Matches)
		out.Duplicates = len(result.Duplicates)
		out.Live = result.Live()
		if d.OpenAlex != nil {
			out.OpenAlexUpdated = enrich(ctx, d.OpenAlex, logger, out.Live)
		}
		out.Report = reconcile.BuildReport(result)
	} else {
		out.Report = reconcile.Report{Missing: []reconcile.Entry{}, Extra: []reconcile.Entry{}}
	}

	// An interrupted run never replaces the stored snapshot with what it
	// gathered so far.
	if err := ctx.Err(); err != nil {
		return out, fail(d, logger, out, &StageError{Stage: StageFetch, Err: err})
	}

	// Persist
	if opts.DryRun {
		out.Persist = snapshot.OutcomeSkipped
		logger.Info("dry run, snapshot not written")
	} else {
		outcome, err := d.Snapshots.Save(snap)
		out.Persist = outcome
		switch {
		case errors.Is(err, snapshot.ErrEmptySnapshot):
			logger.Warn("empty snapshot treated as failed fetch, previous snapshot kept", "path", d.Snapshots.Path())
		case err != nil:
			return out, fail(d, logger, out, &StageError{Stage: StagePersist, Err: err})
		default:
			logger.Info("snapshot written", "path", d.Snapshots.Path(), "publications", len(snap.Publications))
		}
	}
	record(d, logger, out, "")

	// Report
	if out.Persist == snapshot.OutcomeWritten && opts.CVPath != "" {
		changed, err := cvtext.UpdateFile(opts.CVPath, snap.TotalCitations, snap.HIndex)
		if err != nil {
			out.CVError = err.Error()
			logger.Warn("cv summary not updated", "path", opts.CVPath, "error", err)
		} else {
			out.CVUpdated = changed
		}
	}
	for _, e := range out.Report.Missing {
		logger.Debug("curated publication not found upstream", "title", e.Title, "likely_non_article", e.LikelyNonArticle)
	}
	for _, e := range out.Report.Extra {
		logger.Debug("upstream publication not curated", "title", e.Title, "likely_non_article", e.LikelyNonArticle)
	}

	return out, nil
}

// Review reconciles an already persisted snapshot against the curated list
// without fetching anything.
func Review(snap *snapshot.Snapshot, curatedPath string, m title.Matcher) ([]reconcile.LivePublication, reconcile.Report, error) {
	curated, err := publication.Load(curatedPath)
	if err != nil {
		return nil, reconcile.Report{}, &StageError{Stage: StageInput, Err: err}
	}
	var scraped []snapshot.Publication
	if snap != nil {
		scraped = snap.Publications
	}
	result := reconcile.Reconcile(curated, scraped, m)
	return result.Live(), reconcile.BuildReport(result), nil
}

func enrich(ctx context.Context, c *openalex.Client, logger *slog.Logger, live []reconcile.LivePublication) int {
	var dois []string
	for _, l := range live {
		if l.Source == reconcile.SourceStatic && l.DOI != "" {
			dois = append(dois, l.DOI)
		}
	}
	if len(dois) == 0 {
		return 0
	}

	counts, err := c.CitationCounts(ctx, dois)
	if err != nil {
		logger.Warn("openalex lookup incomplete", "error", err)
	}
	n := reconcile.ApplyOpenAlex(live, counts)
	logger.Info("openalex enrichment", "looked_up", len(dois), "updated", n)
	return n
}

func fail(d Deps, logger *slog.Logger, out *Outcome, err error) error {
	logger.Error("sync failed", "error", err)
	record(d, logger, out, err.Error())
	return err
}

func record(d Deps, logger *slog.Logger, out *Outcome, errText string) {
	if d.History == nil || out.DryRun {
		return
	}

	run := history.Run{
		ID:        out.RunID,
		StartedAt: out.StartedAt,
		Outcome:   string(out.Persist),
		Partial:   out.Partial,
		Error:     errText,
	}
	switch {
	case errText != "":
		run.Outcome = history.OutcomeFailed
	case out.Persist == snapshot.OutcomeSkipped:
		run.Error = snapshot.ErrEmptySnapshot.Error()
	}
	if out.Snapshot != nil {
		run.CapturedAt = out.Snapshot.CapturedAt
		run.TotalCitations = out.Snapshot.TotalCitations
		run.HIndex = out.Snapshot.HIndex
		run.I10Index = out.Snapshot.I10Index
		run.PublicationCount = len(out.Snapshot.Publications)
	}
	if err := d.History.Record(run); err != nil {
		logger.Warn("run history not recorded", "error", err)
	}
}
