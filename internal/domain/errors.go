package domain

import (
	"errors"
	"strings"
)

// Domain errors.
var (
	// ErrInvalidMediaReference is returned when a media URL matches no
	// recognized host prefix.
	ErrInvalidMediaReference = errors.New("unrecognized media reference")

	// ErrTooManyErrors is returned when a conversion run trips the
	// skipped-record circuit breaker.
	ErrTooManyErrors = errors.New("too many skipped records")

	// ErrPostNotFound is returned when a post cannot be found in the index.
	ErrPostNotFound = errors.New("post not found")
)

// MediaRefError wraps a classification failure with the offending URL.
type MediaRefError struct {
	URL string
	Err error
}

func (e *MediaRefError) Error() string {
	return "classify media url [" + e.URL + "]: " + e.Err.Error()
}

func (e *MediaRefError) Unwrap() error {
	return e.Err
}

// RecordError reports required fields missing from a single raw record.
// It is recoverable: the converter skips the record and counts the skip.
type RecordError struct {
	File    string
	PostID  string // empty if status_id itself was missing
	Missing []string
}

func (e *RecordError) Error() string {
	id := e.PostID
	if id == "" {
		id = "unknown"
	}
	return "record " + e.File + " [post " + id + "]: missing " + strings.Join(e.Missing, ", ")
}
