/*
scheduler.go - Automated sweep scheduler

PURPOSE:
  Periodically flags past-due installments and charges accrued late fees
  without operator intervention. Both sweeps recompute state wholesale, so
  overlapping or repeated runs converge to the same result.

DESIGN:
  - robfig/cron drives the schedule (cron expressions from config)
  - Each tick runs the overdue sweep first, then the late fee sweep, so
    fees are charged against freshly flagged installments
  - Disabled when no schedule is configured; the admin endpoints remain
    for manual runs

USAGE:
  scheduler := NewSweepScheduler(handler, log, "0 2 * * *")
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunLateFeeSweep / RunOverdueSweep (manual sweeps)
  - billing/latefee.go: LateFeeSweeper
  - billing/reconcile.go: MarkOverdueSweep
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweepScheduler runs the overdue and late fee sweeps on a cron schedule.
type SweepScheduler struct {
	handler  *Handler
	log      *logrus.Logger
	schedule string // cron expression; empty disables the scheduler

	cron *cron.Cron
}

// NewSweepScheduler creates a scheduler. An empty schedule disables it.
func NewSweepScheduler(handler *Handler, log *logrus.Logger, schedule string) *SweepScheduler {
	return &SweepScheduler{
		handler:  handler,
		log:      log,
		schedule: schedule,
	}
}

// Start registers the cron entry and begins ticking.
func (s *SweepScheduler) Start() error {
	if s.schedule == "" {
		s.log.Info("sweep scheduler disabled")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.RunNow); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()

	s.log.WithField("schedule", s.schedule).Info("sweep scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("sweep scheduler stopped")
}

// RunNow executes one sweep cycle immediately (also used for admin/testing).
func (s *SweepScheduler) RunNow() {
	ctx := context.Background()
	asOf := time.Now().UTC()

	overdue, err := s.handler.Recon.MarkOverdueSweep(ctx, asOf, nil)
	if err != nil {
		s.log.WithError(err).Error("overdue sweep failed")
		return
	}

	fees, err := s.handler.Sweeper.Run(ctx, asOf, nil)
	if err != nil {
		s.log.WithError(err).Error("late fee sweep failed")
		return
	}

	if overdue.Flagged > 0 || fees.Charged > 0 {
		s.log.WithFields(logrus.Fields{
			"flagged":     overdue.Flagged,
			"fees_count":  fees.Charged,
			"fees_amount": fees.Total.StringFixed(2),
		}).Info("scheduled sweep completed")
	}
}
