package settlement

import (
	"context"
	"testing"

	"marketplace-escrow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisputeResolver_ReleaseOverridesGate(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)

	// Only 2 of 3 confirmed: courier (via delivery) and seller.
	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleSeller))
	require.NoError(t, c.OpenDispute(ctx, order.ID, testBuyer))

	resolver := NewDisputeResolver(c)
	require.NoError(t, resolver.Resolve(ctx, order.ID, VerdictRelease, "admin-1", "goods verified delivered"))

	state := getState(t, st, order.ID)
	assert.Equal(t, model.OrderCompleted, state.Order.Status)
	assert.Equal(t, model.PaymentReleased, state.Payment.Status)
	assert.False(t, state.Validation.BuyerConfirmed, "gate flags stay untouched by the verdict")
	assert.Equal(t, 1, st.ReleaseCount(order.ID))
}

func TestDisputeResolver_RefundFlow(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)

	require.NoError(t, c.OpenDispute(ctx, order.ID, testBuyer))
	resolver := NewDisputeResolver(c)
	require.NoError(t, resolver.Resolve(ctx, order.ID, VerdictRefund, "admin-1", "shipment damaged"))

	state := getState(t, st, order.ID)
	assert.Equal(t, model.OrderRefunded, state.Order.Status)
	assert.Equal(t, model.PaymentRefunded, state.Payment.Status)
	assert.Nil(t, state.Payment.ReleasedAt)
	assert.Equal(t, 0, st.ReleaseCount(order.ID))

	// Settlement is closed: no confirmation can revive it.
	err := c.RecordConfirmation(ctx, order.ID, model.RoleBuyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDisputeResolver_AlreadyResolved(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)
	require.NoError(t, c.OpenDispute(ctx, order.ID, testBuyer))

	resolver := NewDisputeResolver(c)
	require.NoError(t, resolver.Resolve(ctx, order.ID, VerdictRefund, "admin-1", ""))

	err := resolver.Resolve(ctx, order.ID, VerdictRelease, "admin-2", "second opinion")
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestDisputeResolver_RequiresDisputedOrder(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)

	resolver := NewDisputeResolver(c)
	err := resolver.Resolve(ctx, order.ID, VerdictRelease, "admin-1", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDisputeResolver_RejectsUnknownVerdict(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	resolver := NewDisputeResolver(c)
	err := resolver.Resolve(context.Background(), "any", Verdict("split"), "admin-1", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDisputeResolver_WritesAuditRecord(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)
	require.NoError(t, c.OpenDispute(ctx, order.ID, testBuyer))

	resolver := NewDisputeResolver(c)
	require.NoError(t, resolver.Resolve(ctx, order.ID, VerdictRefund, "admin-1", "shipment damaged"))

	resolutions := st.Resolutions()
	require.Len(t, resolutions, 1)
	assert.Equal(t, order.ID, resolutions[0].OrderID)
	assert.Equal(t, string(VerdictRefund), resolutions[0].Verdict)
	assert.Equal(t, "admin-1", resolutions[0].ResolvedBy)
	assert.Equal(t, "shipment damaged", resolutions[0].Rationale)
}
