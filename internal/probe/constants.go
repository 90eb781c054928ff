package probe

import "time"

// HTTP status code constants.
const (
	StatusOK = 200
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	DefaultTimeout          = 10 * time.Second
	PercentageMultiplier    = 100
)

// Sample names for the boundary vectors.
const (
	SampleDefaults = "defaults"
	SampleMinimum  = "minimum"
	SampleMaximum  = "maximum"
)

const randomFloatDivisor = 1000000
