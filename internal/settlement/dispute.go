package settlement

import (
	"context"
	"log"
	"time"

	"marketplace-escrow/internal/model"
	"marketplace-escrow/internal/store"

	"github.com/google/uuid"
)

// Verdict is the administrator's binary decision on a disputed order.
type Verdict string

const (
	VerdictRelease Verdict = "release"
	VerdictRefund  Verdict = "refund"
)

// Valid reports whether the verdict is one of the two allowed values.
func (v Verdict) Valid() bool {
	return v == VerdictRelease || v == VerdictRefund
}

// DisputeResolver applies administrator verdicts to disputed orders. A
// Release verdict overrides the validation gate: the payment is released even
// with an incomplete confirmation triple. Authorization is enforced at the
// API boundary; the resolver assumes a pre-authorized caller.
type DisputeResolver struct {
	c *Coordinator
}

// NewDisputeResolver creates a resolver sharing the coordinator's per-order
// serialization.
func NewDisputeResolver(c *Coordinator) *DisputeResolver {
	return &DisputeResolver{c: c}
}

// Resolve applies the verdict to a disputed order and records it for audit.
// Resolving an order that already reached a terminal status fails with
// ErrAlreadyResolved and changes nothing.
func (r *DisputeResolver) Resolve(ctx context.Context, orderID string, verdict Verdict, resolvedBy, rationale string) error {
	if !verdict.Valid() {
		return ErrInvalidState
	}

	err := r.c.withOrder(ctx, orderID, func(st *store.OrderState) ([]notice, error) {
		if st.Order.Status.Terminal() {
			return nil, ErrAlreadyResolved
		}
		if st.Order.Status != model.OrderDisputed {
			return nil, ErrInvalidState
		}

		switch verdict {
		case VerdictRelease:
			if err := r.c.applyRelease(st, model.EventDisputeReleased); err != nil {
				return nil, err
			}
			return []notice{
				{st.Order.BuyerID, "The dispute was resolved in favor of the seller. The order is complete."},
				{st.Order.SellerID, "The dispute was resolved in your favor. The escrowed funds were released."},
			}, nil
		default: // VerdictRefund
			next, ok := model.NextStatus(st.Order.Status, model.EventDisputeRefunded)
			if !ok {
				return nil, ErrInvalidTransition
			}
			now := r.c.now()
			st.Order.Status = next
			st.Order.UpdatedAt = now
			st.Payment.Status = model.PaymentRefunded
			return []notice{
				{st.Order.BuyerID, "The dispute was resolved in your favor. Your payment was refunded."},
				{st.Order.SellerID, "The dispute was resolved in favor of the buyer. The payment was refunded."},
			}, nil
		}
	})
	if err != nil {
		return err
	}

	// Audit trail, best effort: the verdict already committed.
	audit := &model.DisputeResolution{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Verdict:    string(verdict),
		ResolvedBy: resolvedBy,
		Rationale:  rationale,
		ResolvedAt: time.Now(),
	}
	if err := r.c.store.AppendDisputeResolution(ctx, audit); err != nil {
		log.Printf("settlement: failed to record dispute resolution for order %s: %v", orderID, err)
	}
	return nil
}
