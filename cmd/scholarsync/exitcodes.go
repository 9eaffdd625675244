package main

import (
	"github.com/kangning-huang/scholarsync/internal/fetch"
	"github.com/kangning-huang/scholarsync/internal/pipeline"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no site, invalid config)
	ExitDataError   = 3 // Data error (unreadable curated list, missing snapshot)
	ExitBlocked     = 4 // Upstream bot detection refused the request
	ExitExhausted   = 5 // Fetch retries exhausted
	ExitLocked      = 6 // Another sync run holds the site lock
)

// exitCodeFor maps a run failure to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case fetch.IsBlocked(err):
		return ExitBlocked
	case fetch.IsExhausted(err):
		return ExitExhausted
	case pipeline.FailedStage(err) == pipeline.StageInput:
		return ExitDataError
	default:
		return ExitError
	}
}
