package consts

import "time"

// Activity timeouts. These reset on received data, so they catch
// stalls rather than slow transfers.
const (
	WorkerInactivityTimeout = 60 * time.Second
	FetchInactivityTimeout  = 60 * time.Second
)

// Retry configuration
const (
	DefaultMaxRetries = 3
	RetryInterval     = 1 * time.Second
	RetryBackoff      = 100 * time.Millisecond
)

// Network timeouts
const (
	DatabaseTimeout = 5 * time.Second
)

// File operations
const (
	FileCheckInterval = 100 * time.Millisecond
	FileWaitTimeout   = 10 * time.Second
)

// Progress reporting
const (
	ProgressNotifyInterval = 500 * time.Millisecond
)

// MaxRedirects bounds redirect chains when fetching dependency binaries.
const MaxRedirects = 10
