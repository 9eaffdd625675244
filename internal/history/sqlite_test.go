package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "cache", "history.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)

	runs := []Run{
		{ID: "a", StartedAt: base, CapturedAt: base.Add(time.Minute), Outcome: "written", TotalCitations: 1200, HIndex: 20, I10Index: 25, PublicationCount: 40},
		{ID: "b", StartedAt: base.Add(24 * time.Hour), Outcome: "skipped", Error: "snapshot has no citations and no publications"},
		{ID: "c", StartedAt: base.Add(48 * time.Hour), CapturedAt: base.Add(48*time.Hour + time.Minute), Outcome: "written", TotalCitations: 1250, Partial: true, PublicationCount: 38},
	}
	for _, r := range runs {
		if err := db.Record(r); err != nil {
			t.Fatalf("Record(%s) error = %v", r.ID, err)
		}
	}

	got, err := db.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("Recent(2) = %+v, want c then b", got)
	}
	if !got[0].Partial || got[0].TotalCitations != 1250 {
		t.Errorf("run c = %+v", got[0])
	}
	if !got[1].CapturedAt.IsZero() {
		t.Errorf("skipped run CapturedAt = %v, want zero", got[1].CapturedAt)
	}
	if got[1].Error == "" {
		t.Error("skipped run lost its error text")
	}

	all, err := db.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("Recent(0) = %d runs, want 3", len(all))
	}
	if !all[2].StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", all[2].StartedAt, base)
	}
}

func TestLatest(t *testing.T) {
	db := openTestDB(t)

	latest, err := db.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest != nil {
		t.Errorf("Latest() on empty db = %+v, want nil", latest)
	}

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	db.Record(Run{ID: "w", StartedAt: base, Outcome: "written", TotalCitations: 7})
	db.Record(Run{ID: "f", StartedAt: base.Add(time.Hour), Outcome: OutcomeFailed, Error: "blocked"})

	latest, err = db.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != "w" {
		t.Errorf("Latest() = %+v, want the written run", latest)
	}
}

func TestRecord_ReplacesSameID(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	db.Record(Run{ID: "x", StartedAt: now, Outcome: OutcomeFailed})
	db.Record(Run{ID: "x", StartedAt: now, Outcome: "written"})

	n, err := db.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	db.Record(Run{ID: "keep", StartedAt: time.Now(), Outcome: "written"})
	db.Close()

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	if n, _ := db.Count(); n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}
