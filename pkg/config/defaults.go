package config

import "time"

// Server defaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Animation defaults.
const (
	DefaultTickRate    = 60
	DefaultSettleTicks = 10_000
)

// Recorder defaults.
const (
	DefaultRecorderCapacity = 512
	DefaultRecorderEvery    = 1
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultSeed is the tree shown when a session starts: a full tree of depth 4.
var DefaultSeed = []int{50, 25, 75, 10, 40, 60, 90, 5, 15, 30, 45, 55, 65, 80, 95}
