// Package probe is a concurrent smoke test for a running classifier
// service: it posts generated samples to the JSON API and checks every
// report for internal consistency.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Samples int           // Number of random in-range samples, on top of the boundary ones
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Lang    string        // Optional locale sent with every request
	Verbose bool          // Log every violation as it is found
}

// Sample is one request body sent to the service.
type Sample struct {
	Name     string             `json:"-"`
	Features map[string]float64 `json:"features"`
	Lang     string             `json:"lang,omitempty"`
}

// Violation describes a response that broke a report invariant.
type Violation struct {
	Sample string
	Reason string
}

// Stats holds probe statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Good       int
	NotGood    int
	Failed     int // reports with status "error"
	Refused    int // non-200 responses or transport errors
	Violations []Violation
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
