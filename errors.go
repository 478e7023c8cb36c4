package mwzeval

import (
	"errors"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/database"
)

var (
	// ErrUnsupportedVersion is returned when the configured benchmark
	// version does not support a requested metric family.
	ErrUnsupportedVersion = errors.New("mwzeval: unsupported benchmark version")

	// ErrMissingStates is returned when DST metrics are the only family
	// requested and the input corpus carries no state predictions.
	ErrMissingStates = errors.New("mwzeval: input corpus has no state predictions")

	// ErrNoMetrics is returned when the evaluator is configured with every
	// metric family disabled.
	ErrNoMetrics = errors.New("mwzeval: no metric family enabled")

	// ErrProvisionFailed is returned when fetching or caching benchmark
	// data fails.
	ErrProvisionFailed = corpus.ErrFetchFailed

	// ErrUnknownDomain is returned when a corpus mentions a domain outside
	// the closed MultiWOZ domain set.
	ErrUnknownDomain = corpus.ErrUnknownDomain

	// ErrDatabaseClosed is returned when querying a closed venue database.
	ErrDatabaseClosed = database.ErrClosed
)
