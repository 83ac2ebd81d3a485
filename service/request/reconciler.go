package request

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Reconciler demotes expired loans to Overdue on a fixed interval and keeps
// their fines current. Fines are recomputed from the due date on every pass
// and overwritten, never added to, so repeated passes stay idempotent while
// the amount grows with time.
type Reconciler struct {
	ledger   Ledger
	rate     float64
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewReconciler(l Ledger, dailyRate float64, interval time.Duration, log *slog.Logger) *Reconciler {
	return &Reconciler{
		ledger:   l,
		rate:     dailyRate,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// WithClock swaps the time source. Tests use it to advance time without
// waiting.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Run ticks until the context is canceled. Each pass runs to completion
// over the candidate set regardless of individual failures.
func (r *Reconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info("overdue reconciler started", "interval", r.interval, "daily_rate", r.rate)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("overdue reconciler stopped")
			return
		case <-t.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce scans for expired loans and writes recomputed fines. Returns the
// number of requests updated.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	now := r.now().UTC()
	candidates, err := r.ledger.OverdueCandidates(ctx, now)
	if err != nil {
		r.log.Error("overdue scan failed", "err", err)
		return 0
	}

	updated := 0
	for _, req := range candidates {
		if req.InPrevDate == nil {
			// cannot fine a loan with no due-date commitment
			r.log.Warn("loan without due date skipped", "request_id", req.ID)
			continue
		}
		fine := r.FineFor(*req.InPrevDate, now)
		ok, err := r.ledger.MarkOverdue(ctx, req.ID, fine)
		if err != nil {
			r.log.Error("overdue update failed", "request_id", req.ID, "err", err)
			continue
		}
		if !ok {
			// checked in between scan and write; check-in wins
			continue
		}
		updated++
	}
	if updated > 0 {
		r.log.Info("overdue pass complete", "updated", updated, "candidates", len(candidates))
	}
	return updated
}

// FineFor computes ceil(days late) * daily rate.
func (r *Reconciler) FineFor(due, now time.Time) float64 {
	late := now.Sub(due)
	if late <= 0 {
		return 0
	}
	days := math.Ceil(late.Hours() / 24)
	return days * r.rate
}
