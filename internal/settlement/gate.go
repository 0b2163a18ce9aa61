package settlement

import (
	"marketplace-escrow/internal/model"
)

// Decision is the outcome of the validation gate.
type Decision int

const (
	// Hold keeps the payment in escrow.
	Hold Decision = iota
	// Release disburses the payment to the seller.
	Release
)

func (d Decision) String() string {
	if d == Release {
		return "release"
	}
	return "hold"
}

// Decide is the conjunctive release gate. It returns Release only when buyer,
// seller and courier have all confirmed and the order sits in Delivered — a
// disputed order never releases through the gate, whatever the flags say.
//
// The gate is pure and side-effect free. It is evaluated after every flag
// write, not only the buyer's, because the three confirmations may arrive in
// any order.
func Decide(v *model.Validation, status model.OrderStatus) Decision {
	if status != model.OrderDelivered {
		return Hold
	}
	if v.BuyerConfirmed && v.SellerConfirmed && v.CourierConfirmed {
		return Release
	}
	return Hold
}
