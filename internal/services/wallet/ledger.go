package wallet

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Option configures optional ledger collaborators.
type Option func(*options)

type options struct {
	logger  zerolog.Logger
	metrics MetricsCollector
}

// WithLogger sets the logger used for hydration and persistence warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics collector. A nil collector is ignored.
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  zerolog.Nop(),
		metrics: &NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Ledger is a bounded balance owned by a single session. All methods are safe
// for concurrent use; mutations are serialized.
type Ledger struct {
	store   Store
	config  Config
	metrics MetricsCollector
	log     zerolog.Logger

	mu        sync.Mutex
	balance   int64
	version   uint64 // bumped by every applied mutation
	persisted uint64 // highest version known to be in the store
	// unhydrated is set while the stored balance could not be read. The next
	// mutation re-reads it first so a zero balance never replaces it.
	unhydrated bool

	lastUsed atomic.Int64 // unix nanos, maintained by Registry

	// persistMu orders writes so the last write always carries the latest balance.
	persistMu sync.Mutex
}

// Open creates a ledger and hydrates its balance from store. Read failures and
// malformed stored values fall back to a zero balance; only an invalid config
// fails construction.
func Open(ctx context.Context, store Store, cfg Config, opts ...Option) (*Ledger, error) {
	return open(ctx, store, cfg, buildOptions(opts))
}

func open(ctx context.Context, store Store, cfg Config, o options) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	l := &Ledger{
		store:   store,
		config:  cfg,
		metrics: o.metrics,
		log:     o.logger.With().Str("key", cfg.StorageKey).Logger(),
	}
	l.hydrate(ctx)
	return l, nil
}

func (l *Ledger) hydrate(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hydrateLocked(ctx)
}

func (l *Ledger) hydrateLocked(ctx context.Context) {
	raw, found, err := l.store.Read(ctx, l.config.StorageKey)
	switch {
	case err != nil:
		l.unhydrated = true
		l.log.Warn().Err(err).Msg("Failed to load wallet balance")
		l.metrics.RecordHydration(HydrationReadError)
		return
	case !found:
		l.unhydrated = false
		l.metrics.RecordHydration(HydrationMissing)
		return
	}

	balance, outcome := parseStoredBalance(raw, l.config.MaxBalance)
	if outcome != HydrationLoaded {
		l.log.Warn().Str("stored", raw).Int64("balance", balance).Str("outcome", outcome).
			Msg("Stored wallet balance corrected")
	}
	l.balance = balance
	l.persisted = l.version
	l.unhydrated = false
	l.metrics.RecordHydration(outcome)
}

// ensureHydratedLocked retries a failed hydration before a mutation. A
// successful read replaces the provisional balance.
func (l *Ledger) ensureHydratedLocked(ctx context.Context) {
	if !l.unhydrated {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, l.config.PersistTimeout)
	defer cancel()
	l.hydrateLocked(rctx)
}

// Hydrated reports whether the balance has been read from the store.
func (l *Ledger) Hydrated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.unhydrated
}

// Rehydrate retries the store read if the last one failed.
func (l *Ledger) Rehydrate(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureHydratedLocked(ctx)
	return !l.unhydrated
}

// Balance returns the current in-memory balance.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// MaxBalance returns the configured ceiling.
func (l *Ledger) MaxBalance() int64 { return l.config.MaxBalance }

// TopUpAmount returns the fixed increment applied by TopUp.
func (l *Ledger) TopUpAmount() int64 { return l.config.TopUpAmount }

// CanTopUp reports whether a full top-up fits under the ceiling.
func (l *Ledger) CanTopUp() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canTopUpLocked()
}

func (l *Ledger) canTopUpLocked() bool {
	return l.config.TopUpAmount <= l.config.MaxBalance-l.balance
}

// HasEnough reports whether a debit of amount would be accepted.
func (l *Ledger) HasEnough(amount int64) bool {
	if amount <= 0 {
		return true
	}
	return l.Balance() >= amount
}

// FillPercent returns how full the wallet is, rounded to the nearest percent.
func (l *Ledger) FillPercent() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fillPercentLocked()
}

func (l *Ledger) fillPercentLocked() int {
	pct := int(math.Round(float64(l.balance) * 100 / float64(l.config.MaxBalance)))
	return min(pct, 100)
}

// Snapshot returns every display field read under a single lock.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		Balance:     l.balance,
		MaxBalance:  l.config.MaxBalance,
		TopUpAmount: l.config.TopUpAmount,
		CanTopUp:    l.canTopUpLocked(),
		FillPercent: l.fillPercentLocked(),
	}
}

// InSync reports whether the store holds the current balance as far as the
// ledger knows. It is false after a failed write until a later write succeeds,
// and while the stored balance could not be read.
func (l *Ledger) InSync() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.unhydrated && l.persisted == l.version
}

// TopUp credits the fixed top-up amount. When the credit would pass the
// ceiling nothing is applied and the result carries ErrLimitExceeded.
func (l *Ledger) TopUp(ctx context.Context) (TopUpResult, error) {
	l.mu.Lock()
	l.ensureHydratedLocked(ctx)
	prev := l.balance
	if !l.canTopUpLocked() {
		l.mu.Unlock()
		l.metrics.RecordOperationResult(OperationTopUp, ResultRejected)
		return TopUpResult{Balance: prev, Reason: ErrLimitExceeded}, nil
	}
	next := l.commitLocked(clampedCredit(prev, l.config.TopUpAmount, l.config.MaxBalance))
	l.mu.Unlock()

	l.recordApplied(OperationTopUp, prev, next)
	return TopUpResult{Success: true, Amount: next - prev, Balance: next}, l.persist(ctx, OperationTopUp)
}

// AddFunds credits amount, clamping at the ceiling. Non-positive amounts are a
// successful no-op.
func (l *Ledger) AddFunds(ctx context.Context, amount int64) (CreditResult, error) {
	if amount <= 0 {
		l.metrics.RecordOperationResult(OperationAddFunds, ResultNoop)
		return CreditResult{Success: true, Balance: l.Balance()}, nil
	}

	l.mu.Lock()
	l.ensureHydratedLocked(ctx)
	prev := l.balance
	next := clampedCredit(prev, amount, l.config.MaxBalance)
	if next == prev {
		l.mu.Unlock()
		l.metrics.RecordOperationResult(OperationAddFunds, ResultNoop)
		return CreditResult{Success: true, Balance: prev}, nil
	}
	l.commitLocked(next)
	l.mu.Unlock()

	l.recordApplied(OperationAddFunds, prev, next)
	return CreditResult{Success: true, Amount: next - prev, Balance: next}, l.persist(ctx, OperationAddFunds)
}

// Deduct debits amount. A debit larger than the balance is rejected whole and
// the result carries ErrInsufficientFunds. Remaining is always the balance
// after the call.
func (l *Ledger) Deduct(ctx context.Context, amount int64) (DebitResult, error) {
	l.mu.Lock()
	if amount > 0 {
		l.ensureHydratedLocked(ctx)
	}
	prev := l.balance
	if amount <= 0 {
		l.mu.Unlock()
		l.metrics.RecordOperationResult(OperationDeduct, ResultNoop)
		return DebitResult{Success: true, Remaining: prev}, nil
	}
	if amount > prev {
		l.mu.Unlock()
		l.metrics.RecordOperationResult(OperationDeduct, ResultRejected)
		return DebitResult{Remaining: prev, Reason: ErrInsufficientFunds}, nil
	}
	next := l.commitLocked(prev - amount)
	l.mu.Unlock()

	l.recordApplied(OperationDeduct, prev, next)
	return DebitResult{Success: true, Remaining: next}, l.persist(ctx, OperationDeduct)
}

// Flush writes the current balance if an earlier write failed.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.persist(ctx, OperationFlush)
}

func (l *Ledger) commitLocked(next int64) int64 {
	l.balance = next
	l.version++
	return next
}

func (l *Ledger) recordApplied(operation string, prev, next int64) {
	l.metrics.RecordOperationResult(operation, ResultApplied)
	l.metrics.RecordBalanceChange(prev, next)
}

// persist writes the latest balance unless a concurrent persist already
// stored it or something newer.
func (l *Ledger) persist(ctx context.Context, operation string) error {
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	l.mu.Lock()
	version, value := l.version, l.balance
	current := l.persisted >= version
	l.mu.Unlock()
	if current {
		return nil
	}

	if err := l.write(ctx, value); err != nil {
		l.metrics.RecordError(operation, "persistence")
		l.log.Warn().Err(err).Str("operation", operation).Int64("balance", value).
			Msg("Failed to save wallet balance")
		return err
	}

	l.mu.Lock()
	if version > l.persisted {
		l.persisted = version
	}
	// The store now holds this ledger's value.
	l.unhydrated = false
	l.mu.Unlock()
	return nil
}

func (l *Ledger) write(ctx context.Context, value int64) error {
	encoded := strconv.FormatInt(value, 10)

	var (
		lastErr  error
		attempts int
	)
	for attempts < l.config.PersistAttempts {
		if attempts > 0 && !sleepCtx(ctx, l.config.PersistBackoff) {
			break
		}
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, l.config.PersistTimeout)
		start := time.Now()
		err := l.store.Write(attemptCtx, l.config.StorageKey, encoded)
		cancel()
		l.metrics.RecordPersistDuration(time.Since(start))

		if err == nil {
			return nil
		}
		lastErr = err
		l.log.Debug().Err(err).Int("attempt", attempts).Msg("Wallet balance write failed")
	}
	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return &PersistenceError{
		Key:      l.config.StorageKey,
		Value:    value,
		Attempts: attempts,
		Err:      lastErr,
	}
}

// clampedCredit returns min(balance+amount, ceiling) without overflowing.
func clampedCredit(balance, amount, ceiling int64) int64 {
	if amount >= ceiling-balance {
		return ceiling
	}
	return balance + amount
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
