package wallet

import "time"

// Default configuration values
const (
	DefaultMaxBalance      int64 = 5000
	DefaultTopUpAmount     int64 = 1000
	DefaultStorageKey            = "walletBalance"
	DefaultPersistAttempts       = 3
	DefaultPersistTimeout        = 2 * time.Second
	DefaultPersistBackoff        = 25 * time.Millisecond
)

// Operation names used in logs and metrics
const (
	OperationTopUp    = "top_up"
	OperationAddFunds = "add_funds"
	OperationDeduct   = "deduct"
	OperationFlush    = "flush"
)

// Operation results
const (
	ResultApplied  = "applied"
	ResultNoop     = "noop"
	ResultRejected = "rejected"
)

// Hydration outcomes
const (
	HydrationMissing   = "missing"
	HydrationLoaded    = "loaded"
	HydrationClamped   = "clamped"
	HydrationInvalid   = "invalid"
	HydrationReadError = "read_error"
)
