package settlement

import (
	"context"
	"sync"
	"testing"

	"marketplace-escrow/internal/model"
	"marketplace-escrow/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBuyer   = "buyer-1"
	testSeller  = "seller-1"
	testCourier = "courier-1"
	testAmount  = int64(10000)
)

// enqueued captures notifications for assertions.
type enqueued struct {
	mu    sync.Mutex
	items []string // userID
}

func (e *enqueued) Enqueue(userID, orderID, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append(e.items, userID)
}

func (e *enqueued) users() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.items))
	copy(out, e.items)
	return out
}

func newTestCoordinator(t *testing.T) (*Coordinator, *store.MemoryStore, *enqueued) {
	t.Helper()
	st := store.NewMemoryStore()
	notifier := &enqueued{}
	return NewCoordinator(st, notifier, nil), st, notifier
}

func createTestOrder(t *testing.T, c *Coordinator) *model.Order {
	t.Helper()
	order, err := c.CreateOrder(context.Background(), testBuyer, &model.CreateOrderRequest{
		SellerID:  testSeller,
		ProductID: "product-1",
		Quantity:  2,
		Amount:    testAmount,
	})
	require.NoError(t, err)
	return order
}

// driveToDelivered walks an order through capture, courier assignment and
// delivery. Afterwards only the courier flag is set.
func driveToDelivered(t *testing.T, c *Coordinator, orderID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.CapturePayment(ctx, orderID, testAmount, "gw-ref-1"))
	require.NoError(t, c.AssignCourier(ctx, orderID, testCourier))
	require.NoError(t, c.MarkDelivered(ctx, orderID, testCourier))
}

func getState(t *testing.T, st *store.MemoryStore, orderID string) *store.OrderState {
	t.Helper()
	state, err := st.GetOrderState(context.Background(), orderID)
	require.NoError(t, err)
	return state
}

func TestCoordinator_HappyPath(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)

	require.NoError(t, c.CapturePayment(ctx, order.ID, testAmount, "gw-ref-1"))
	state := getState(t, st, order.ID)
	assert.Equal(t, model.OrderFundsHeld, state.Order.Status)
	require.NotNil(t, state.Payment)
	assert.Equal(t, model.PaymentHeld, state.Payment.Status)
	assert.Equal(t, testAmount, state.Payment.Amount)
	require.NotNil(t, state.Delivery)
	assert.Equal(t, model.DeliveryPending, state.Delivery.Status)

	require.NoError(t, c.AssignCourier(ctx, order.ID, testCourier))
	state = getState(t, st, order.ID)
	assert.Equal(t, model.OrderInDelivery, state.Order.Status)
	assert.Equal(t, testCourier, state.Order.CourierID)
	assert.Equal(t, model.DeliveryAccepted, state.Delivery.Status)

	require.NoError(t, c.MarkDelivered(ctx, order.ID, testCourier))
	state = getState(t, st, order.ID)
	assert.Equal(t, model.OrderDelivered, state.Order.Status)
	assert.Equal(t, model.DeliveryDelivered, state.Delivery.Status)
	assert.True(t, state.Validation.CourierConfirmed)

	// Seller confirms: gate still holds, buyer missing.
	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleSeller))
	state = getState(t, st, order.ID)
	assert.Equal(t, model.OrderDelivered, state.Order.Status)
	assert.True(t, state.Validation.SellerConfirmed)
	assert.Equal(t, model.PaymentHeld, state.Payment.Status)

	// Buyer completes the triple: release and completion in one commit.
	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleBuyer))
	state = getState(t, st, order.ID)
	assert.Equal(t, model.OrderCompleted, state.Order.Status)
	assert.Equal(t, model.PaymentReleased, state.Payment.Status)
	assert.NotNil(t, state.Payment.ReleasedAt)
	assert.Equal(t, 1, st.ReleaseCount(order.ID))
}

func TestCoordinator_PaymentOrderEquivalence(t *testing.T) {
	// After every committed transition: Released <=> Completed and
	// Refunded <=> Refunded; Held otherwise.
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)

	check := func() {
		state := getState(t, st, order.ID)
		if state.Payment == nil {
			return
		}
		switch state.Payment.Status {
		case model.PaymentReleased:
			assert.Equal(t, model.OrderCompleted, state.Order.Status)
		case model.PaymentRefunded:
			assert.Equal(t, model.OrderRefunded, state.Order.Status)
		default:
			assert.False(t, state.Order.Status.Terminal())
		}
	}

	require.NoError(t, c.CapturePayment(ctx, order.ID, testAmount, "gw"))
	check()
	require.NoError(t, c.AssignCourier(ctx, order.ID, testCourier))
	check()
	require.NoError(t, c.MarkDelivered(ctx, order.ID, testCourier))
	check()
	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleBuyer))
	check()
	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleSeller))
	check()
}

func TestCoordinator_ConfirmationIdempotent(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)

	require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleSeller))
	after := getState(t, st, order.ID)

	err := c.RecordConfirmation(ctx, order.ID, model.RoleSeller)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)

	again := getState(t, st, order.ID)
	assert.Equal(t, after.Validation, again.Validation)
	assert.Equal(t, after.Order.Version, again.Order.Version)
}

func TestCoordinator_PermutationInvariance(t *testing.T) {
	// The courier's confirmation is the delivery event itself; buyer and
	// seller may confirm before or after it, in any interleaving. Every
	// ordering must produce exactly one release.
	type step string
	const (
		buyer   step = "buyer"
		seller  step = "seller"
		courier step = "courier"
	)
	permutations := [][]step{
		{buyer, seller, courier},
		{buyer, courier, seller},
		{seller, buyer, courier},
		{seller, courier, buyer},
		{courier, buyer, seller},
		{courier, seller, buyer},
	}

	for _, perm := range permutations {
		perm := perm
		name := string(perm[0]) + "-" + string(perm[1]) + "-" + string(perm[2])
		t.Run(name, func(t *testing.T) {
			c, st, _ := newTestCoordinator(t)
			ctx := context.Background()
			order := createTestOrder(t, c)
			require.NoError(t, c.CapturePayment(ctx, order.ID, testAmount, "gw"))
			require.NoError(t, c.AssignCourier(ctx, order.ID, testCourier))

			for _, s := range perm {
				switch s {
				case buyer:
					require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleBuyer))
				case seller:
					require.NoError(t, c.RecordConfirmation(ctx, order.ID, model.RoleSeller))
				case courier:
					require.NoError(t, c.MarkDelivered(ctx, order.ID, testCourier))
				}
			}

			state := getState(t, st, order.ID)
			assert.Equal(t, model.OrderCompleted, state.Order.Status)
			assert.Equal(t, model.PaymentReleased, state.Payment.Status)
			assert.Equal(t, 1, st.ReleaseCount(order.ID))
		})
	}
}

func TestCoordinator_NoDoubleReleaseUnderConcurrency(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)

	// Many goroutines hammer the two missing confirmations at once.
	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		role := model.RoleBuyer
		if i%2 == 1 {
			role = model.RoleSeller
		}
		wg.Add(1)
		go func(role model.Role) {
			defer wg.Done()
			// ErrAlreadyConfirmed and ErrInvalidTransition (after
			// completion) are expected outcomes here.
			_ = c.RecordConfirmation(ctx, order.ID, role)
		}(role)
	}
	wg.Wait()

	state := getState(t, st, order.ID)
	assert.Equal(t, model.OrderCompleted, state.Order.Status)
	assert.Equal(t, model.PaymentReleased, state.Payment.Status)
	assert.Equal(t, 1, st.ReleaseCount(order.ID), "payment must be released exactly once")
}

func TestCoordinator_InvalidTransitions(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)

	// Delivery before payment.
	err := c.MarkDelivered(ctx, order.ID, testCourier)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.OrderAwaitingPayment, getState(t, st, order.ID).Order.Status)

	// Courier before payment.
	err = c.AssignCourier(ctx, order.ID, testCourier)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Double capture.
	require.NoError(t, c.CapturePayment(ctx, order.ID, testAmount, "gw"))
	err = c.CapturePayment(ctx, order.ID, testAmount, "gw")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Unknown order.
	err = c.CapturePayment(ctx, "nope", testAmount, "gw")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCoordinator_AmountMismatchBlocksCapture(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)

	err := c.CapturePayment(ctx, order.ID, testAmount+1, "gw")
	assert.ErrorIs(t, err, ErrAmountMismatch)

	state := getState(t, st, order.ID)
	assert.Equal(t, model.OrderAwaitingPayment, state.Order.Status)
	assert.Nil(t, state.Payment)
}

func TestCoordinator_WrongCourierCannotDeliver(t *testing.T) {
	c, st, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	require.NoError(t, c.CapturePayment(ctx, order.ID, testAmount, "gw"))
	require.NoError(t, c.AssignCourier(ctx, order.ID, testCourier))

	err := c.MarkDelivered(ctx, order.ID, "someone-else")
	assert.ErrorIs(t, err, ErrWrongCourier)
	assert.Equal(t, model.OrderInDelivery, getState(t, st, order.ID).Order.Status)
}

func TestCoordinator_NotificationsAfterCommit(t *testing.T) {
	c, _, notifier := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)

	require.NoError(t, c.CapturePayment(ctx, order.ID, testAmount, "gw"))
	users := notifier.users()
	assert.Contains(t, users, testBuyer)
	assert.Contains(t, users, testSeller)

	// A rejected transition emits nothing.
	before := len(notifier.users())
	_ = c.CapturePayment(ctx, order.ID, testAmount, "gw")
	assert.Len(t, notifier.users(), before)
}

// conflictingStore always loses the optimistic check, to surface ErrBusy.
type conflictingStore struct {
	store.Store
}

func (s *conflictingStore) ApplySettlement(ctx context.Context, expectedVersion int64, next *store.OrderState) error {
	return store.ErrVersionConflict
}

func TestCoordinator_BusyAfterRetryBudget(t *testing.T) {
	mem := store.NewMemoryStore()
	c := NewCoordinator(mem, nil, nil)
	order := createTestOrder(t, c)

	c.store = &conflictingStore{Store: mem}
	err := c.CapturePayment(context.Background(), order.ID, testAmount, "gw")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestCoordinator_ConfirmationInDisputedAndTerminal(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	driveToDelivered(t, c, order.ID)
	require.NoError(t, c.OpenDispute(ctx, order.ID, testBuyer))

	err := c.RecordConfirmation(ctx, order.ID, model.RoleBuyer)
	assert.ErrorIs(t, err, ErrInvalidState)

	resolver := NewDisputeResolver(c)
	require.NoError(t, resolver.Resolve(ctx, order.ID, VerdictRefund, "admin-1", "buyer never received goods"))

	err = c.RecordConfirmation(ctx, order.ID, model.RoleBuyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCoordinator_OpenDisputeRequiresDelivered(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	order := createTestOrder(t, c)
	require.NoError(t, c.CapturePayment(ctx, order.ID, testAmount, "gw"))

	err := c.OpenDispute(ctx, order.ID, testBuyer)
	assert.ErrorIs(t, err, ErrInvalidState)
}
