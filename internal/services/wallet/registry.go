package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Registry hands out one ledger per owner, all persisted through one store.
type Registry struct {
	store  Store
	config Config
	opts   options

	mu      sync.RWMutex
	ledgers map[string]*Ledger
	group   singleflight.Group

	clock func() time.Time
}

// NewRegistry validates cfg up front so that Get only fails on bad owners.
func NewRegistry(store Store, cfg Config, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Registry{
		store:   store,
		config:  cfg,
		opts:    buildOptions(opts),
		ledgers: make(map[string]*Ledger),
		clock:   time.Now,
	}, nil
}

// KeyFor returns the storage key holding owner's balance.
func (r *Registry) KeyFor(owner string) string {
	return r.config.StorageKey + ":" + owner
}

// Get returns the owner's ledger, hydrating it on first use. Concurrent first
// calls for the same owner share a single hydration.
func (r *Registry) Get(ctx context.Context, owner string) (*Ledger, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	if l, ok := r.lookup(owner); ok {
		r.touch(l)
		if !l.Hydrated() {
			l.Rehydrate(ctx)
		}
		return l, nil
	}

	v, err, _ := r.group.Do(owner, func() (interface{}, error) {
		if l, ok := r.lookup(owner); ok {
			return l, nil
		}

		cfg := r.config
		cfg.StorageKey = r.KeyFor(owner)
		o := r.opts
		o.logger = r.opts.logger.With().Str("owner", owner).Logger()

		// The hydration is shared, so it must not die with the first caller.
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.PersistTimeout)
		defer cancel()

		l, err := open(hctx, r.store, cfg, o)
		if err != nil {
			return nil, fmt.Errorf("failed to open wallet for %s: %w", owner, err)
		}

		r.touch(l)
		r.mu.Lock()
		r.ledgers[owner] = l
		r.mu.Unlock()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	l := v.(*Ledger)
	r.touch(l)
	return l, nil
}

func (r *Registry) touch(l *Ledger) {
	l.lastUsed.Store(r.clock().UnixNano())
}

func (r *Registry) lookup(owner string) (*Ledger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[owner]
	return l, ok
}

// Len returns the number of open ledgers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ledgers)
}

// EvictIdle drops ledgers not handed out for at least idle. Each one is
// flushed first and kept if the flush fails; the next Get hydrates a fresh
// ledger from the store.
func (r *Registry) EvictIdle(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := r.clock().Add(-idle).UnixNano()
	idleSince := func(l *Ledger) bool { return l.lastUsed.Load() <= cutoff }

	r.mu.RLock()
	candidates := make(map[string]*Ledger)
	for owner, l := range r.ledgers {
		if idleSince(l) {
			candidates[owner] = l
		}
	}
	r.mu.RUnlock()

	var (
		errs    []error
		evicted int
	)
	for owner, l := range candidates {
		if err := l.Flush(ctx); err != nil {
			errs = append(errs, err)
			continue
		}

		r.mu.Lock()
		if cur, ok := r.ledgers[owner]; ok && cur == l && idleSince(l) && l.InSync() {
			delete(r.ledgers, owner)
			evicted++
		}
		r.mu.Unlock()
	}
	if evicted > 0 {
		r.opts.logger.Debug().Int("evicted", evicted).Msg("Evicted idle wallets")
	}
	return evicted, errors.Join(errs...)
}

// Close flushes every ledger whose last write failed.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.RLock()
	ledgers := make([]*Ledger, 0, len(r.ledgers))
	for _, l := range r.ledgers {
		ledgers = append(ledgers, l)
	}
	r.mu.RUnlock()

	var errs []error
	for _, l := range ledgers {
		if err := l.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
