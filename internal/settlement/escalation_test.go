package settlement

import (
	"context"
	"testing"
	"time"

	"marketplace-escrow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalator_EscalatesOverdueDeliveries(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	stale := createTestOrder(t, c)
	driveToDelivered(t, c, stale.ID)

	// A second order delivered just now must not be touched.
	c.now = func() time.Time { return base.Add(71 * time.Hour) }
	fresh := createTestOrder(t, c)
	driveToDelivered(t, c, fresh.ID)

	e := NewEscalator(st, c, 72*time.Hour, time.Hour)
	e.now = func() time.Time { return base.Add(73 * time.Hour) }

	escalated := e.ScanOnce(ctx)
	assert.Equal(t, 1, escalated)
	assert.Equal(t, model.OrderDisputed, getState(t, st, stale.ID).Order.Status)
	assert.Equal(t, model.OrderDelivered, getState(t, st, fresh.ID).Order.Status)
}

func TestEscalator_SkipsOrdersThatMovedOn(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)
	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleSeller))
	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleBuyer))

	e := NewEscalator(st, c, 72*time.Hour, time.Hour)
	e.now = func() time.Time { return base.Add(100 * time.Hour) }

	assert.Equal(t, 0, e.ScanOnce(ctx))
	assert.Equal(t, model.OrderCompleted, getState(t, st, order.ID).Order.Status)
}

func TestEscalator_ScanIsIdempotent(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)

	e := NewEscalator(st, c, 72*time.Hour, time.Hour)
	e.now = func() time.Time { return base.Add(80 * time.Hour) }

	assert.Equal(t, 1, e.ScanOnce(ctx))
	assert.Equal(t, 0, e.ScanOnce(ctx), "a disputed order is not escalated twice")
	assert.Equal(t, model.OrderDisputed, getState(t, st, order.ID).Order.Status)
}
