package enums

import "fmt"

// DeliveryStatus tracks physical fulfillment, parallel to but distinct from the
// order lifecycle.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusAssigned  DeliveryStatus = "assigned"
	DeliveryStatusPickedUp  DeliveryStatus = "picked_up"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusAssigned,
	DeliveryStatusPickedUp,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
	DeliveryStatusFailed,
	DeliveryStatusCancelled,
}

var deliveryStatusTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:   {DeliveryStatusAssigned, DeliveryStatusCancelled},
	DeliveryStatusAssigned:  {DeliveryStatusPickedUp, DeliveryStatusFailed, DeliveryStatusCancelled},
	DeliveryStatusPickedUp:  {DeliveryStatusInTransit, DeliveryStatusFailed},
	DeliveryStatusInTransit: {DeliveryStatusDelivered, DeliveryStatusFailed},
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (d DeliveryStatus) IsTerminal() bool {
	return len(deliveryStatusTransitions[d]) == 0
}

// CanTransitionTo reports whether the transition table permits d -> target.
func (d DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	for _, candidate := range deliveryStatusTransitions[d] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
