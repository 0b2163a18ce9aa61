package settlement

import "errors"

var (
	// ErrInvalidTransition is returned when the requested edge does not
	// exist from the order's current status. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidState is returned when an operation has a precondition on
	// the current status that does not hold (e.g. disputing a non-delivered
	// order).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrAlreadyConfirmed signals an idempotent no-op: the role's
	// confirmation flag was already set. Callers should not treat this as a
	// failure.
	ErrAlreadyConfirmed = errors.New("confirmation already recorded")

	// ErrAlreadyResolved signals that the order already reached a terminal
	// status and the verdict cannot be applied again.
	ErrAlreadyResolved = errors.New("dispute already resolved")

	// ErrAmountMismatch is returned when the captured amount does not equal
	// the order amount. The FundsHeld transition is blocked.
	ErrAmountMismatch = errors.New("captured amount does not match order amount")

	// ErrBusy is returned after the bounded optimistic retry budget is
	// exhausted.
	ErrBusy = errors.New("order busy, retry later")

	// ErrOrderNotFound is returned when no order exists for the given ID.
	ErrOrderNotFound = errors.New("order not found")

	// ErrUnknownRole is returned when a confirmation is recorded for a role
	// that holds no gate flag.
	ErrUnknownRole = errors.New("role holds no confirmation flag")

	// ErrWrongCourier is returned when a courier reports delivery for an
	// order assigned to someone else.
	ErrWrongCourier = errors.New("courier not assigned to this order")
)
