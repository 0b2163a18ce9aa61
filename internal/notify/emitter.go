package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"marketplace-escrow/internal/model"

	"github.com/google/uuid"
)

// Emitter delivers one message to one user. Implementations are best-effort
// transports; the dispatcher owns retries.
type Emitter interface {
	Send(ctx context.Context, userID, message string) error
}

// Recorder persists an audit row for a delivered notification. The ledger
// store satisfies this.
type Recorder interface {
	AppendNotification(ctx context.Context, n *model.Notification) error
}

type job struct {
	userID  string
	orderID string
	message string
}

// Dispatcher is the asynchronous fan-out between committed settlement
// transitions and the notification transport. Delivery is at-least-once with
// bounded retry; failures are logged and never reach back into settlement.
type Dispatcher struct {
	emitter     Emitter
	recorder    Recorder
	jobs        chan job
	maxAttempts int
	retryDelay  time.Duration
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewDispatcher starts a dispatcher with a single delivery worker. recorder
// may be nil to skip audit rows.
func NewDispatcher(emitter Emitter, recorder Recorder, queueSize, maxAttempts int, retryDelay time.Duration) *Dispatcher {
	d := &Dispatcher{
		emitter:     emitter,
		recorder:    recorder,
		jobs:        make(chan job, queueSize),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue queues a message for delivery. It never blocks the caller: when the
// queue is full the message is dropped with a log line, since notifications
// are not authoritative state.
func (d *Dispatcher) Enqueue(userID, orderID, message string) {
	select {
	case d.jobs <- job{userID: userID, orderID: orderID, message: message}:
	default:
		log.Printf("notify: queue full, dropping message for user %s (order %s)", userID, orderID)
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx := context.Background()
	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err = d.emitter.Send(ctx, j.userID, j.message); err == nil {
			d.record(ctx, j)
			return
		}
		log.Printf("notify: delivery to user %s failed (attempt %d/%d): %v", j.userID, attempt, d.maxAttempts, err)
		if attempt < d.maxAttempts {
			time.Sleep(d.retryDelay)
		}
	}
	log.Printf("notify: giving up on message to user %s for order %s: %v", j.userID, j.orderID, err)
}

func (d *Dispatcher) record(ctx context.Context, j job) {
	if d.recorder == nil {
		return
	}
	n := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  j.userID,
		OrderID: j.orderID,
		Message: j.message,
		SentAt:  time.Now(),
	}
	if err := d.recorder.AppendNotification(ctx, n); err != nil {
		log.Printf("notify: failed to record notification for user %s: %v", j.userID, err)
	}
}
