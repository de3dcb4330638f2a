package wallet

import (
	"context"
	"fmt"
	"time"
)

// Store is the key-value capability a ledger persists through. Read reports
// found=false for a missing key without an error.
type Store interface {
	Read(ctx context.Context, key string) (value string, found bool, err error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Config holds configuration for a ledger
type Config struct {
	MaxBalance  int64
	TopUpAmount int64
	StorageKey  string

	// Persistence bounds: each write is tried at most PersistAttempts times,
	// each attempt limited to PersistTimeout, with PersistBackoff between attempts.
	PersistAttempts int
	PersistTimeout  time.Duration
	PersistBackoff  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxBalance == 0 {
		c.MaxBalance = DefaultMaxBalance
	}
	if c.TopUpAmount == 0 {
		c.TopUpAmount = DefaultTopUpAmount
	}
	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}
	if c.PersistAttempts <= 0 {
		c.PersistAttempts = DefaultPersistAttempts
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = DefaultPersistTimeout
	}
	if c.PersistBackoff <= 0 {
		c.PersistBackoff = DefaultPersistBackoff
	}
	return c
}

func (c Config) validate() error {
	if c.MaxBalance <= 0 {
		return fmt.Errorf("%w: max balance must be positive, got %d", ErrInvalidConfig, c.MaxBalance)
	}
	if c.TopUpAmount <= 0 {
		return fmt.Errorf("%w: top-up amount must be positive, got %d", ErrInvalidConfig, c.TopUpAmount)
	}
	return nil
}

// TopUpResult describes a TopUp call. Amount is the credit actually applied
// and Balance the balance once the call took effect.
type TopUpResult struct {
	Success bool
	Amount  int64
	Balance int64
	Reason  error
}

// CreditResult describes an AddFunds call. Amount is the credit actually
// applied, which is less than requested when the balance hits the ceiling.
// Balance is read under the same lock that applied the credit.
type CreditResult struct {
	Success bool
	Amount  int64
	Balance int64
}

// DebitResult describes a Deduct call. Remaining is the balance after the call.
type DebitResult struct {
	Success   bool
	Remaining int64
	Reason    error
}

// Snapshot is a consistent view of the display fields of a ledger.
type Snapshot struct {
	Balance     int64 `json:"balance"`
	MaxBalance  int64 `json:"max_balance"`
	TopUpAmount int64 `json:"top_up_amount"`
	CanTopUp    bool  `json:"can_top_up"`
	FillPercent int   `json:"fill_percent"`
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	// Operation metrics
	RecordOperationResult(operation, result string)

	// Balance metrics
	RecordBalanceChange(oldBalance, newBalance int64)

	// Persistence metrics
	RecordPersistDuration(duration time.Duration)
	RecordHydration(outcome string)

	// Error metrics
	RecordError(operation, errType string)
}
