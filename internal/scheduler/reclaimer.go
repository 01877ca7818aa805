// Package scheduler contains the background reclamation task that sweeps
// abandoned unpaid gateway reservations out of the store.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReclaimStore is the slice of the registration repository the sweeper
// needs: listing expired candidates and deleting them one at a time.
type ReclaimStore interface {
	ListExpiredGateway(ctx context.Context, cutoff time.Time) ([]uint64, error)
	Delete(ctx context.Context, id uint64) (bool, error)
}

// Reclaimer periodically deletes registrations that are unpaid, gateway
// paid-for and older than the TTL.  Cash reservations are exempt: they
// represent a physical commitment, not an abandoned checkout.  The sweep
// is a plain method so tests invoke it synchronously with a fixed clock.
type Reclaimer struct {
	store    ReclaimStore
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	stopChan chan struct{}
}

// NewReclaimer constructs a Reclaimer.  ttl is the age past which an
// unpaid gateway registration is reclaimed; interval is how often the
// sweep runs.
func NewReclaimer(store ReclaimStore, ttl, interval time.Duration, logger *zap.Logger) *Reclaimer {
	return &Reclaimer{
		store:    store,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start launches the periodic sweep in the background.
func (r *Reclaimer) Start(ctx context.Context) {
	r.logger.Info("starting reclamation scheduler",
		zap.Duration("ttl", r.ttl), zap.Duration("interval", r.interval))
	go r.run(ctx)
}

// Stop ends the periodic sweep.
func (r *Reclaimer) Stop() {
	close(r.stopChan)
}

func (r *Reclaimer) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("reclamation sweep failed", zap.Error(err))
			}
		case <-r.stopChan:
			r.logger.Info("reclamation scheduler stopped")
			return
		case <-ctx.Done():
			r.logger.Info("reclamation scheduler cancelled")
			return
		}
	}
}

// Sweep deletes every expired unpaid gateway registration and returns
// how many were removed.  Deletion is row by row; a row that disappears
// between listing and deleting (user cancel, concurrent sweep) is simply
// skipped.  Consumed coupons are not released here: explicit cancel only
// rolls usage back for paid or cash registrations, and a reclaimed
// registration is by definition neither.
func (r *Reclaimer) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().UTC().Add(-r.ttl)
	ids, err := r.store.ListExpiredGateway(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	reclaimed := 0
	for _, id := range ids {
		ok, err := r.store.Delete(ctx, id)
		if err != nil {
			r.logger.Error("reclaim delete failed", zap.Uint64("registration_id", id), zap.Error(err))
			continue
		}
		if ok {
			reclaimed++
		}
	}
	if reclaimed > 0 {
		r.logger.Info("reclaimed abandoned registrations",
			zap.Int("count", reclaimed), zap.Time("cutoff", cutoff))
	}
	return reclaimed, nil
}
