package store

import (
	"context"
	"errors"
	"time"

	"marketplace-escrow/internal/model"
)

var (
	// ErrNotFound is returned when no order exists for the given ID.
	ErrNotFound = errors.New("store: order not found")

	// ErrVersionConflict is returned when a settlement write loses an
	// optimistic concurrency check. Callers re-read and retry.
	ErrVersionConflict = errors.New("store: version conflict")
)

// OrderState bundles the four settlement rows of a single order. Payment and
// Delivery are nil until the funds have been captured.
type OrderState struct {
	Order      model.Order
	Payment    *model.Payment
	Delivery   *model.Delivery
	Validation model.Validation
}

// Store is the ledger the settlement engine runs against. Implementations
// must make ApplySettlement atomic across all four rows and conditional on
// the order version, so that a committed transition can never leave the
// payment status and the order status disagreeing.
type Store interface {
	// CreateOrder persists a new order together with its validation row.
	CreateOrder(ctx context.Context, order *model.Order, validation *model.Validation) error

	// GetOrderState loads the current settlement rows for an order.
	// Returns ErrNotFound if the order does not exist.
	GetOrderState(ctx context.Context, orderID string) (*OrderState, error)

	// ApplySettlement writes the given rows in one transaction, conditional
	// on the stored order version still being expectedVersion. On success the
	// stored version is expectedVersion+1. Returns ErrVersionConflict when
	// another writer got there first.
	ApplySettlement(ctx context.Context, expectedVersion int64, next *OrderState) error

	// AppendNotification records a delivered notification for audit.
	AppendNotification(ctx context.Context, n *model.Notification) error

	// AppendDisputeResolution records an administrator verdict for audit.
	AppendDisputeResolution(ctx context.Context, r *model.DisputeResolution) error

	// ListOverdueDeliveries returns the IDs of orders that are still in
	// Delivered status and were delivered before the cutoff.
	ListOverdueDeliveries(ctx context.Context, cutoff time.Time) ([]string, error)
}
