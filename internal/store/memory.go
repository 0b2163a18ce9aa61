package store

import (
	"context"
	"sync"
	"time"

	"marketplace-escrow/internal/model"
)

// MemoryStore is an in-memory ledger used by tests and local demo mode. It
// honors the same atomicity and version-check contract as the database store.
type MemoryStore struct {
	mu          sync.RWMutex
	orders      map[string]*OrderState
	notices     []model.Notification
	resolutions []model.DisputeResolution
	releases    map[string]int
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]*OrderState),
		releases: make(map[string]int),
	}
}

func cloneState(st *OrderState) *OrderState {
	out := &OrderState{
		Order:      st.Order,
		Validation: st.Validation,
	}
	if st.Payment != nil {
		p := *st.Payment
		out.Payment = &p
	}
	if st.Delivery != nil {
		d := *st.Delivery
		out.Delivery = &d
	}
	return out
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *model.Order, validation *model.Validation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = cloneState(&OrderState{Order: *order, Validation: *validation})
	return nil
}

func (s *MemoryStore) GetOrderState(_ context.Context, orderID string) (*OrderState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneState(st), nil
}

func (s *MemoryStore) ApplySettlement(_ context.Context, expectedVersion int64, next *OrderState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[next.Order.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Order.Version != expectedVersion {
		return ErrVersionConflict
	}

	// Count Held -> Released edges so tests can assert at-most-one release.
	if next.Payment != nil && next.Payment.Status == model.PaymentReleased {
		if current.Payment == nil || current.Payment.Status != model.PaymentReleased {
			s.releases[next.Order.ID]++
		}
	}

	committed := cloneState(next)
	committed.Order.Version = expectedVersion + 1
	s.orders[next.Order.ID] = committed
	next.Order.Version = committed.Order.Version
	return nil
}

func (s *MemoryStore) AppendNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, *n)
	return nil
}

func (s *MemoryStore) AppendDisputeResolution(_ context.Context, r *model.DisputeResolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolutions = append(s.resolutions, *r)
	return nil
}

func (s *MemoryStore) ListOverdueDeliveries(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, st := range s.orders {
		if st.Order.Status != model.OrderDelivered {
			continue
		}
		if st.Delivery != nil && st.Delivery.DeliveredAt != nil && st.Delivery.DeliveredAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ReleaseCount reports how many times the order's payment transitioned into
// Released. Anything above one indicates a double release.
func (s *MemoryStore) ReleaseCount(orderID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.releases[orderID]
}

// Notifications returns a snapshot of the recorded notification audit rows.
func (s *MemoryStore) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Notification, len(s.notices))
	copy(out, s.notices)
	return out
}

// Resolutions returns a snapshot of the recorded dispute verdicts.
func (s *MemoryStore) Resolutions() []model.DisputeResolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DisputeResolution, len(s.resolutions))
	copy(out, s.resolutions)
	return out
}
