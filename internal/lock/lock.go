// Package lock serializes ledger mutations per organization with an
// expiring lease held in a store shared by every process.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/oprema/internal/model"
)

// Backend stores leases keyed by organization ID.
type Backend interface {
	// TryAcquire takes the lease for owner if it is free or expired.
	// It reports false without error when another owner holds it.
	TryAcquire(ctx context.Context, orgID, owner string, ttl time.Duration) (bool, error)
	// Release drops the lease if owner still holds it.
	Release(ctx context.Context, orgID, owner string) error
}

// Locker runs a critical section while holding an organization's lease.
type Locker interface {
	WithOrganizationLock(ctx context.Context, orgID string, fn func(ctx context.Context) error) error
}

// Options tune lease lifetime and acquisition retries.
type Options struct {
	// TTL bounds how long a crashed holder can block the organization.
	TTL time.Duration
	// Timeout bounds how long acquisition waits before ErrLockTimeout.
	Timeout time.Duration
	// RetryMin and RetryMax bound the exponential backoff between attempts.
	RetryMin time.Duration
	RetryMax time.Duration
}

// DefaultOptions returns the lease settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		TTL:      30 * time.Second,
		Timeout:  10 * time.Second,
		RetryMin: 20 * time.Millisecond,
		RetryMax: 500 * time.Millisecond,
	}
}

// releaseTimeout bounds the release call, which runs even after the
// caller's context is done.
const releaseTimeout = 5 * time.Second

// Manager implements Locker on top of a lease Backend.
type Manager struct {
	backend Backend
	opts    Options
}

var _ Locker = (*Manager)(nil)

// NewManager creates a lock manager. Zero option fields take their defaults.
func NewManager(backend Backend, opts Options) *Manager {
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RetryMin <= 0 {
		opts.RetryMin = def.RetryMin
	}
	if opts.RetryMax < opts.RetryMin {
		opts.RetryMax = max(def.RetryMax, opts.RetryMin)
	}
	return &Manager{backend: backend, opts: opts}
}

// WithOrganizationLock acquires the organization's lease, runs fn and releases
// the lease on every exit path, including panics. The context passed to fn
// expires together with the lease so work never outlives it.
func (m *Manager) WithOrganizationLock(ctx context.Context, orgID string, fn func(ctx context.Context) error) error {
	owner := uuid.NewString()

	acquiredAt, err := m.acquire(ctx, orgID, owner)
	if err != nil {
		return err
	}

	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := m.backend.Release(rctx, orgID, owner); err != nil {
			// The lease expires on its own after TTL.
			slog.Error("failed to release organization lock", "org", orgID, "error", err)
		}
	}()

	fctx, cancel := context.WithDeadline(ctx, acquiredAt.Add(m.opts.TTL))
	defer cancel()

	return fn(fctx)
}

func (m *Manager) acquire(ctx context.Context, orgID, owner string) (time.Time, error) {
	start := time.Now()
	deadline := start.Add(m.opts.Timeout)
	delay := m.opts.RetryMin

	for attempt := 1; ; attempt++ {
		now := time.Now()
		ok, err := m.backend.TryAcquire(ctx, orgID, owner, m.opts.TTL)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			if attempt > 1 {
				slog.Debug("organization lock acquired", "org", orgID, "attempts", attempt, "waited", time.Since(start))
			}
			return now, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return time.Time{}, fmt.Errorf("%w: organization %s still locked after %s",
				model.ErrLockTimeout, orgID, m.opts.Timeout)
		}

		sleep := min(jitter(delay), remaining)
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Time{}, fmt.Errorf("%w: %w", model.ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}

		delay = min(delay*2, m.opts.RetryMax)
	}
}

// jitter returns a duration in [d/2, d].
func jitter(d time.Duration) time.Duration {
	half := d / 2
	return half + rand.N(half+1)
}
