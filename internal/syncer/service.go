// Package syncer retries delivery of unsynced completed sessions in the background.
package syncer

import (
	"context"
	"log"
	"time"

	"cleaning-session-backend/internal/completion"
)

// Sweeper runs one retry pass over pending sessions.
type Sweeper interface {
	SyncAllPending(ctx context.Context) completion.SweepResult
}

// ReportRetrier resubmits undelivered reports.
type ReportRetrier interface {
	RetryFailed(ctx context.Context) (retried, synced int)
}

// Service sweeps once at startup and then on a fixed interval.
type Service struct {
	sweeper    Sweeper
	reports    ReportRetrier
	configured func() bool
	interval   time.Duration
}

// NewService creates a retry service. configured gates every sweep; an
// interval of zero runs only the startup sweep. reports may be nil.
func NewService(sweeper Sweeper, reports ReportRetrier, configured func() bool, interval time.Duration) *Service {
	return &Service{
		sweeper:    sweeper,
		reports:    reports,
		configured: configured,
		interval:   interval,
	}
}

// Run blocks until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.configured() {
		log.Println("Booking system is not configured. Retry service not starting.")
		return
	}
	log.Println("Starting retry service...")

	s.SweepOnce(ctx)

	if s.interval <= 0 {
		log.Println("Periodic retry disabled; startup sweep done.")
		return
	}

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retry service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce performs a single retry pass.
func (s *Service) SweepOnce(ctx context.Context) completion.SweepResult {
	res := s.sweeper.SyncAllPending(ctx)
	if res.Total == 0 {
		log.Println("Retry sweep: nothing pending.")
	}
	if s.reports != nil {
		s.reports.RetryFailed(ctx)
	}
	return res
}
