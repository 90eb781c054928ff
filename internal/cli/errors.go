package cli

import "errors"

var (
	// ErrCancelled is returned when the user aborts the interactive form.
	// The binary exits 0 on it.
	ErrCancelled = errors.New("operation cancelled")
	// ErrInput reports an unreadable sample file or flag value.
	ErrInput = errors.New("invalid input")
	// ErrAnalysisFailed is returned when the classifier failed on the
	// sample; the report has already been printed.
	ErrAnalysisFailed = errors.New("analysis failed")
)

// IsCancelled reports whether err is a user abort rather than a failure.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }
