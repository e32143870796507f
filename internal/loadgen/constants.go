package loadgen

import "time"

// Defaults used when the corresponding Config field is unset.
const (
	DefaultGigs    = 50
	DefaultAgents  = 200
	DefaultTimeout = 30 * time.Second
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Report constants.
const (
	PercentageMultiplier = 100
	progressInterval     = time.Second
)
