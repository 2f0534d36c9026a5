package order

import "fmt"

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnfulfilled Status = "unfulfilled"
	StatusProcessing  Status = "processing"
	StatusReadyToShip Status = "ready_to_ship"
	StatusShipping    Status = "shipping"
	StatusShipped     Status = "shipped"
	StatusDelivered   Status = "delivered"
	StatusEnded       Status = "ended"
	StatusCancelled   Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// validTransitions defines the transitions this service may request from the
// order store. delivered and ended are only ever reached upstream.
var validTransitions = map[Status][]Status{
	StatusPending:     {StatusProcessing, StatusCancelled},
	StatusUnfulfilled: {StatusProcessing, StatusCancelled},
	StatusProcessing:  {StatusReadyToShip, StatusCancelled},
	StatusReadyToShip: {StatusShipping, StatusShipped, StatusCancelled},
	StatusShipping:    {StatusShipped},
	StatusShipped:     {},
	StatusDelivered:   {},
	StatusEnded:       {},
	StatusCancelled:   {},
}

// labelCompatible lists the statuses an order may have when a label is bought for it.
var labelCompatible = map[Status]bool{
	StatusPending:     true,
	StatusProcessing:  true,
	StatusUnfulfilled: true,
	StatusReadyToShip: true,
}

var notCancelable = map[Status]bool{
	StatusCancelled: true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusEnded:     true,
}

// CanTransitionTo checks the state machine and the label lock on cancellation.
func (o *Order) CanTransitionTo(target Status) bool {
	if target == StatusCancelled {
		return o.CanCancel()
	}
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CanCancel is false once the order left the warehouse or a label was bought.
func (o *Order) CanCancel() bool {
	return !notCancelable[o.Status] && !o.HasLabel()
}

func (o *Order) CanShip() bool {
	return o.CanTransitionTo(StatusShipped)
}

// CanBundle only admits orders that have not been labelled or shipped yet.
func (o *Order) CanBundle() bool {
	return o.Status == StatusProcessing
}

func (o *Order) CanBuyLabel() bool {
	return labelCompatible[o.Status]
}

// TransitionError explains why CanTransitionTo(target) returned false.
func (o *Order) TransitionError(target Status) error {
	switch {
	case o.Status == StatusCancelled:
		return fmt.Errorf("%w: order %s", ErrOrderCancelled, o.ID)
	case target == StatusCancelled && o.HasLabel():
		return fmt.Errorf("%w: order %s", ErrLabelPurchased, o.ID)
	case target == StatusCancelled:
		return fmt.Errorf("%w: order %s is %s", ErrNotCancelable, o.ID, o.Status)
	default:
		return fmt.Errorf("%w: order %s cannot go from %s to %s", ErrInvalidTransition, o.ID, o.Status, target)
	}
}
