/*
scheduler.go - Automated overdue sweep scheduler

PURPOSE:
  Periodically marks due-and-unpaid installments overdue and refreshes
  contract statuses, so the portfolio stays accurate without anyone
  clicking the manual sweep endpoint.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick runs the same ledger operations as POST /api/admin/sweep
  - Idempotent: re-running a sweep on the same day is a no-op

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(ledger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Sweep endpoint (manual runs)
  - contract/ledger.go: SweepOverdue, RefreshStatuses
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/contract"
)

// SweepScheduler runs the overdue sweep on a timer.
type SweepScheduler struct {
	Ledger        *contract.Ledger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a new scheduler.
func NewSweepScheduler(ledger *contract.Ledger) *SweepScheduler {
	return &SweepScheduler{
		Ledger:        ledger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Scheduler] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler. Safe to call more than once.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker == nil {
		return
	}
	ss.ticker.Stop()
	ss.ticker = nil
	close(ss.stop)
	ss.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

// RunNow performs a single sweep outside the timer, for tests and startup.
func (ss *SweepScheduler) RunNow() {
	ss.sweep()
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.sweep()

	for {
		select {
		case <-ss.ticker.C:
			ss.sweep()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SweepScheduler) sweep() {
	ctx := context.Background()
	today := calendar.DateOf(time.Now())

	marked, err := ss.Ledger.SweepOverdue(ctx, today)
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return
	}
	if err := ss.Ledger.RefreshStatuses(ctx, today); err != nil {
		log.Printf("[Scheduler] Status refresh failed: %v", err)
		return
	}

	sweepRuns.Inc()
	installmentsMarkedOverdue.Add(float64(marked))

	if marked > 0 {
		log.Printf("[Scheduler] Marked %d installment(s) overdue (%s)", marked, calendar.FormatSolar(today))
	}
}
