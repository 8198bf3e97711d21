// Package sweeper reclaims lapsed holds on a fixed cadence. Correctness never
// depends on it: every read already ignores expired rows.
package sweeper

import (
	"context"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
)

const leaderLockKey = "slotkeeper:sweeper:leader"

type HoldSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type Worker struct {
	holds    HoldSweeper
	leaser   Leaser
	schedule string
	lockTTL  time.Duration
	log      *logger.Logger

	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
}

// NewWorker builds a sweeper. A nil leaser means every instance sweeps on
// each tick, which is safe because a sweep is idempotent.
func NewWorker(holds HoldSweeper, leaser Leaser, cfg *config.Config) *Worker {
	return &Worker{
		holds:    holds,
		leaser:   leaser,
		schedule: cfg.SweepSchedule,
		lockTTL:  cfg.SweepLockTTL,
		log:      cfg.Log.Component("sweeper"),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.runCtx, w.cancel = context.WithCancel(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, func() { _, _ = w.RunOnce(w.runCtx) }); err != nil {
		w.cancel()
		return err
	}
	c.Start()
	w.cron = c

	w.log.Info("Hold sweeper started", "schedule", w.schedule, "leader_lease", w.leaser != nil)
	return nil
}

// Stop waits for an in-flight sweep to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
	w.log.Info("Hold sweeper stopped")
}

// RunOnce performs one sweep. With a leaser it first takes the leader lease
// and skips when another instance holds it. A lease failure does not stop
// the sweep.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	if w.leaser != nil {
		acquired, token, err := w.leaser.TryLock(ctx, leaderLockKey, w.lockTTL)
		switch {
		case err != nil:
			w.log.Warn("Sweeper lease unavailable, sweeping without it", "error", err)
		case !acquired:
			w.log.Debug("Sweeper lease held by another instance, skipping run")
			return 0, nil
		default:
			defer func() {
				if err := w.leaser.Unlock(context.WithoutCancel(ctx), leaderLockKey, token); err != nil {
					w.log.Warn("Failed to release sweeper lease", "error", err)
				}
			}()
		}
	}

	sweepCtx, cancel := context.WithTimeout(ctx, w.lockTTL)
	defer cancel()

	removed, err := w.holds.Sweep(sweepCtx)
	if err != nil {
		w.log.Error("Hold sweep failed", "error", err)
		return 0, err
	}
	return removed, nil
}
