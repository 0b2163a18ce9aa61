package settlement

import (
	"context"
	"errors"
	"log"
	"time"

	"marketplace-escrow/internal/store"
)

// systemActor marks transitions driven by the scheduler rather than a user.
const systemActor = "system"

// Escalator auto-escalates orders that sat in Delivered with no buyer action
// past the configured grace window. It is the only timeout semantics in the
// engine; the window and scan interval are configuration, never hardcoded.
type Escalator struct {
	store    store.Store
	coord    *Coordinator
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

// NewEscalator creates the scheduler. Start must be called to begin scanning.
func NewEscalator(st store.Store, coord *Coordinator, window, interval time.Duration) *Escalator {
	return &Escalator{
		store:    st,
		coord:    coord,
		window:   window,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic scan loop.
func (e *Escalator) Start() {
	go func() {
		defer close(e.done)
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.ScanOnce(context.Background())
			case <-e.stop:
				return
			}
		}
	}()
}

// Stop halts the scan loop and waits for it to exit.
func (e *Escalator) Stop() {
	close(e.stop)
	<-e.done
}

// ScanOnce escalates every order delivered before now-window and still
// awaiting buyer action. It returns the number of orders escalated.
func (e *Escalator) ScanOnce(ctx context.Context) int {
	cutoff := e.now().Add(-e.window)
	ids, err := e.store.ListOverdueDeliveries(ctx, cutoff)
	if err != nil {
		log.Printf("settlement: overdue delivery scan failed: %v", err)
		return 0
	}

	escalated := 0
	for _, id := range ids {
		err := e.coord.OpenDispute(ctx, id, systemActor)
		switch {
		case err == nil:
			log.Printf("settlement: order %s auto-escalated to dispute after grace window", id)
			escalated++
		case errors.Is(err, ErrInvalidState):
			// The order moved on between the scan and the lock. Fine.
		default:
			log.Printf("settlement: failed to auto-escalate order %s: %v", id, err)
		}
	}
	return escalated
}
