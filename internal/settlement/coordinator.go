package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-escrow/internal/model"
	"marketplace-escrow/internal/store"

	"github.com/google/uuid"
)

// defaultMaxRetries bounds the optimistic retry loop before ErrBusy surfaces.
const defaultMaxRetries = 3

// Notifier enqueues a fire-and-forget message to a user. Dispatch happens
// outside the transaction boundary and never rolls back a committed
// transition.
type Notifier interface {
	Enqueue(userID, orderID, message string)
}

// Invalidator drops any cached read view of an order after a committed
// transition.
type Invalidator interface {
	Invalidate(ctx context.Context, orderID string)
}

// notice is a pending message for one party, emitted after commit.
type notice struct {
	userID  string
	message string
}

// Coordinator is the single serialization point for settlement mutations.
// All writes to a given order go through its per-order mutex and an
// optimistic version check in the store; writes to different orders proceed
// in parallel.
type Coordinator struct {
	store      store.Store
	notifier   Notifier
	cache      Invalidator
	maxRetries int
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator creates the settlement coordinator. notifier and cache may
// be nil, in which case the corresponding side effects are skipped.
func NewCoordinator(st store.Store, notifier Notifier, cache Invalidator) *Coordinator {
	return &Coordinator{
		store:      st,
		notifier:   notifier,
		cache:      cache,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) lockFor(orderID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[orderID] = l
	}
	return l
}

// withOrder runs mutate inside the order's critical section. mutate edits the
// state in place and returns the notices to emit once the write commits. On a
// version conflict the state is re-read and mutate retried a bounded number
// of times.
func (c *Coordinator) withOrder(ctx context.Context, orderID string, mutate func(st *store.OrderState) ([]notice, error)) error {
	l := c.lockFor(orderID)
	l.Lock()
	defer l.Unlock()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		st, err := c.store.GetOrderState(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		notices, err := mutate(st)
		if err != nil {
			return err
		}

		err = c.store.ApplySettlement(ctx, st.Order.Version, st)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return err
		}

		c.afterCommit(ctx, orderID, notices)
		return nil
	}
	return ErrBusy
}

func (c *Coordinator) afterCommit(ctx context.Context, orderID string, notices []notice) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, orderID)
	}
	if c.notifier != nil {
		for _, n := range notices {
			c.notifier.Enqueue(n.userID, orderID, n.message)
		}
	}
}

// CreateOrder registers a buyer checkout. The order starts in AwaitingPayment
// with its validation row already present, all flags unset.
func (c *Coordinator) CreateOrder(ctx context.Context, buyerID string, req *model.CreateOrderRequest) (*model.Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("order quantity must be positive")
	}

	now := c.now()
	order := &model.Order{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		SellerID:  req.SellerID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Amount:    req.Amount,
		Status:    model.OrderAwaitingPayment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	validation := &model.Validation{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		UpdatedAt: now,
	}

	if err := c.store.CreateOrder(ctx, order, validation); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// CapturePayment records that the payment collaborator captured funds for
// the order. The amount must equal the order amount exactly; on success the
// funds are held in escrow and the delivery record is opened.
func (c *Coordinator) CapturePayment(ctx context.Context, orderID string, amount int64, gatewayRef string) error {
	return c.withOrder(ctx, orderID, func(st *store.OrderState) ([]notice, error) {
		next, ok := model.NextStatus(st.Order.Status, model.EventPaymentCaptured)
		if !ok {
			return nil, ErrInvalidTransition
		}
		if amount != st.Order.Amount {
			return nil, fmt.Errorf("%w: captured %d, order %d", ErrAmountMismatch, amount, st.Order.Amount)
		}

		now := c.now()
		st.Order.Status = next
		st.Order.UpdatedAt = now
		st.Payment = &model.Payment{
			ID:               uuid.NewString(),
			OrderID:          orderID,
			Amount:           amount,
			Status:           model.PaymentHeld,
			GatewayReference: gatewayRef,
			CapturedAt:       now,
		}
		st.Delivery = &model.Delivery{
			ID:      uuid.NewString(),
			OrderID: orderID,
			Status:  model.DeliveryPending,
		}

		return []notice{
			{st.Order.BuyerID, "Your payment is held in escrow until delivery is confirmed."},
			{st.Order.SellerID, "Funds for a new order are held in escrow. Prepare the shipment."},
		}, nil
	})
}

// AssignCourier records the courier supplied by the assignment collaborator
// and moves the order into delivery.
func (c *Coordinator) AssignCourier(ctx context.Context, orderID, courierID string) error {
	return c.withOrder(ctx, orderID, func(st *store.OrderState) ([]notice, error) {
		next, ok := model.NextStatus(st.Order.Status, model.EventCourierAccepted)
		if !ok {
			return nil, ErrInvalidTransition
		}

		now := c.now()
		st.Order.Status = next
		st.Order.CourierID = courierID
		st.Order.UpdatedAt = now
		st.Delivery.CourierID = courierID
		st.Delivery.Status = model.DeliveryAccepted
		st.Delivery.AssignedAt = &now

		return []notice{
			{st.Order.BuyerID, "A courier accepted your order. Delivery is underway."},
			{st.Order.SellerID, "A courier accepted the order. Hand over the shipment."},
			{courierID, "You accepted a delivery. Pick up the shipment from the seller."},
		}, nil
	})
}

// MarkDelivered records the courier's delivery confirmation. This both moves
// the order to Delivered and sets the courier's gate flag; the gate is then
// re-evaluated, since buyer and seller may already have confirmed.
func (c *Coordinator) MarkDelivered(ctx context.Context, orderID, courierID string) error {
	return c.withOrder(ctx, orderID, func(st *store.OrderState) ([]notice, error) {
		next, ok := model.NextStatus(st.Order.Status, model.EventCourierDelivered)
		if !ok {
			return nil, ErrInvalidTransition
		}
		if st.Order.CourierID != courierID {
			return nil, ErrWrongCourier
		}

		now := c.now()
		st.Order.Status = next
		st.Order.UpdatedAt = now
		st.Delivery.Status = model.DeliveryDelivered
		st.Delivery.DeliveredAt = &now
		st.Validation.CourierConfirmed = true
		st.Validation.UpdatedAt = now

		notices := []notice{
			{st.Order.BuyerID, "Your order was delivered. Please confirm reception."},
			{st.Order.SellerID, "The order was delivered to the buyer."},
		}
		if released, err := c.evaluateGate(st); err != nil {
			return nil, err
		} else if released {
			notices = append(notices, releaseNotices(&st.Order)...)
		}
		return notices, nil
	})
}

// RecordConfirmation sets the calling role's gate flag. Repeated calls from
// the same role are idempotent and surface ErrAlreadyConfirmed without
// touching state. After every flag write the gate is re-evaluated; when it
// passes, the release and the flag write commit in the same transaction.
func (c *Coordinator) RecordConfirmation(ctx context.Context, orderID string, role model.Role) error {
	return c.withOrder(ctx, orderID, func(st *store.OrderState) ([]notice, error) {
		switch st.Order.Status {
		case model.OrderFundsHeld, model.OrderInDelivery, model.OrderDelivered:
			// confirmations may arrive before delivery completes
		case model.OrderDisputed:
			return nil, ErrInvalidState
		default:
			return nil, ErrInvalidTransition
		}

		var flag *bool
		switch role {
		case model.RoleBuyer:
			flag = &st.Validation.BuyerConfirmed
		case model.RoleSeller:
			flag = &st.Validation.SellerConfirmed
		case model.RoleCourier:
			flag = &st.Validation.CourierConfirmed
		default:
			return nil, ErrUnknownRole
		}
		if *flag {
			return nil, ErrAlreadyConfirmed
		}
		*flag = true
		st.Validation.UpdatedAt = c.now()

		var notices []notice
		if released, err := c.evaluateGate(st); err != nil {
			return nil, err
		} else if released {
			notices = releaseNotices(&st.Order)
		}
		return notices, nil
	})
}

// OpenDispute freezes settlement for administrator review. Only a Delivered
// order can be disputed.
func (c *Coordinator) OpenDispute(ctx context.Context, orderID, raisedBy string) error {
	return c.withOrder(ctx, orderID, func(st *store.OrderState) ([]notice, error) {
		next, ok := model.NextStatus(st.Order.Status, model.EventDisputeOpened)
		if !ok {
			return nil, ErrInvalidState
		}
		st.Order.Status = next
		st.Order.UpdatedAt = c.now()

		buyerMsg := "A dispute was opened on your order. An administrator will review it."
		if raisedBy == systemActor {
			buyerMsg = "Your order was escalated to dispute because reception was not confirmed in time."
		}
		return []notice{
			{st.Order.BuyerID, buyerMsg},
			{st.Order.SellerID, "A dispute was opened on the order. Settlement is frozen pending review."},
		}, nil
	})
}

// evaluateGate runs the conjunctive gate against the in-flight state and, on
// Release, applies the payment release atomically with the pending writes.
func (c *Coordinator) evaluateGate(st *store.OrderState) (bool, error) {
	if Decide(&st.Validation, st.Order.Status) != Release {
		return false, nil
	}
	if err := c.applyRelease(st, model.EventGateReleased); err != nil {
		return false, err
	}
	return true, nil
}

// applyRelease moves the order to Completed and the payment to Released in
// the same in-flight state, so both commit in one transaction.
func (c *Coordinator) applyRelease(st *store.OrderState, event model.OrderEvent) error {
	next, ok := model.NextStatus(st.Order.Status, event)
	if !ok {
		return ErrInvalidTransition
	}
	now := c.now()
	st.Order.Status = next
	st.Order.UpdatedAt = now
	st.Payment.Status = model.PaymentReleased
	st.Payment.ReleasedAt = &now
	return nil
}

func releaseNotices(order *model.Order) []notice {
	return []notice{
		{order.BuyerID, "All parties confirmed. Your order is complete."},
		{order.SellerID, "All parties confirmed. The escrowed funds were released to you."},
		{order.CourierID, "The order you delivered is complete."},
	}
}
