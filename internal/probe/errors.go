package probe

import "errors"

// Sentinel kinds for probe errors.
var (
	ErrUnhealthy  = errors.New("service is not healthy")
	ErrViolations = errors.New("reports violated invariants")
	ErrConfig     = errors.New("invalid probe config")
)
