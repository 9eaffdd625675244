package scholar

import (
	"errors"
	"fmt"
)

// ErrMalformed marks a field that was absent or unparseable. Extraction
// defaults such fields instead of failing.
var ErrMalformed = errors.New("malformed scholar data")

// MalformedDataError names the field that could not be extracted.
type MalformedDataError struct {
	Field string
	Value string
}

func (e *MalformedDataError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("scholar field %s missing", e.Field)
	}
	return fmt.Sprintf("scholar field %s unparseable: %q", e.Field, e.Value)
}

func (e *MalformedDataError) Is(target error) bool { return target == ErrMalformed }
