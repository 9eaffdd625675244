package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kangning-huang/scholarsync/internal/fileutil"
)

// ErrEmptySnapshot is reported when a candidate has zero citations and no
// publications. It is treated as a failed fetch, never as a real state.
var ErrEmptySnapshot = errors.New("snapshot has no citations and no publications")

// Outcome says what Save did with a candidate.
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeSkipped Outcome = "skipped"
)

// Store persists a single snapshot file.
type Store struct {
	path string
}

// NewStore creates a store for the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored snapshot. A missing file yields (nil, nil).
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", s.path, err)
	}
	if snap.CitedByYear == nil {
		snap.CitedByYear = map[string]int{}
	}
	return &snap, nil
}

// Save replaces the stored snapshot with candidate. An empty candidate is
// refused and the file on disk is left untouched; the returned error is
// ErrEmptySnapshot with OutcomeSkipped. Writes go through a temp file and
// rename so a crash never leaves a truncated snapshot.
func (s *Store) Save(candidate *Snapshot) (Outcome, error) {
	if candidate.IsEmpty() {
		return OutcomeSkipped, ErrEmptySnapshot
	}

	out := *candidate
	if out.CitedByYear == nil {
		out.CitedByYear = map[string]int{}
	}
	if out.Publications == nil {
		out.Publications = []Publication{}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return OutcomeWritten, nil
}
