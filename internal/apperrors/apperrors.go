// Package apperrors implements the error taxonomy the pipeline reports
// against: sentinels for each failure class, an AppError wrapper that
// attaches the stage where the failure occurred, and a classifier that
// reports whether an error belongs to a fatal failure class. The cmd/
// binaries do not call the classifier; they exit on any error a stage
// returns.
// Grounded on the teacher's pkg/errors (pkg/errors/errors.go),
// generalised from HTTP-status-code classification to fatal/skip
// classification for a batch pipeline.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinels, one per failure class.
var (
	// ErrIOOpen: a required file could not be opened or created.
	// Always fatal.
	ErrIOOpen = errors.New("io open error")
	// ErrRecordParse: one input record was malformed. Reported and the
	// record is skipped; never fatal.
	ErrRecordParse = errors.New("record parse error")
	// ErrDecode: a VarByte-encoded block failed to decode. Reported and
	// the term is skipped; never fatal.
	ErrDecode = errors.New("decode error")
	// ErrConsistency: two related structures disagree (offsets, doc
	// frequency, gap ordering). Reported and the term or posting is
	// skipped; never fatal.
	ErrConsistency = errors.New("consistency error")
	// ErrPrecondition: a global invariant the whole run depends on is
	// violated (avgdl <= 0, zero documents). Always fatal.
	ErrPrecondition = errors.New("precondition error")
)

// AppError wraps a sentinel with the stage that raised it and the
// underlying cause.
type AppError struct {
	Err   error
	Stage string
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Err, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap attaches stage and cause to a sentinel.
func Wrap(sentinel error, stage string, cause error) *AppError {
	return &AppError{Err: sentinel, Stage: stage, Cause: cause}
}

// IsFatal reports whether err belongs to a failure class the spec
// requires the whole run to abort on (ErrIOOpen, ErrPrecondition).
// RecordParse/Decode/Consistency are always skip-and-continue.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIOOpen) || errors.Is(err, ErrPrecondition)
}
