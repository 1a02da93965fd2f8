package matching

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultStaleAfter  = 15 * time.Minute
	DefaultBatchSize   = 200
	DefaultConcurrency = 4
)

// BatchReconciler refreshes profiles whose last match check is older than StaleAfter,
// so notifications appear even for owners who are not online to trigger a refresh.
type BatchReconciler struct {
	Service     *Service
	StaleAfter  time.Duration
	BatchSize   int
	Concurrency int
}

// BatchResult summarizes one RunOnce pass.
type BatchResult struct {
	Profiles         int `json:"profiles"`
	NewNotifications int `json:"new_notifications"`
}

// RunOnce reconciles one batch of stale profiles. Per-profile failures are absorbed by
// Reconcile; only listing the batch or a cancelled context return an error.
func (b *BatchReconciler) RunOnce(ctx context.Context) (BatchResult, error) {
	staleAfter := b.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	size := b.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	workers := b.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}

	cutoff := b.Service.now().Add(-staleAfter)
	profiles, err := b.Service.Profiles.ListStale(ctx, cutoff, size)
	if err != nil {
		return BatchResult{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var total atomic.Int64
	for _, p := range profiles {
		id := p.ProfileID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			total.Add(int64(b.Service.Reconcile(gctx, id)))
			return nil
		})
	}
	err = g.Wait()

	res := BatchResult{Profiles: len(profiles), NewNotifications: int(total.Load())}
	log.Info().Int("profiles", res.Profiles).Int("new", res.NewNotifications).Msg("batch reconcile finished")
	return res, err
}
