package enums

import "testing"

func TestDeliveryStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to DeliveryStatus
		want     bool
	}{
		{DeliveryStatusPending, DeliveryStatusAssigned, true},
		{DeliveryStatusPending, DeliveryStatusDelivered, false},
		{DeliveryStatusAssigned, DeliveryStatusPickedUp, true},
		{DeliveryStatusPickedUp, DeliveryStatusInTransit, true},
		{DeliveryStatusInTransit, DeliveryStatusDelivered, true},
		{DeliveryStatusInTransit, DeliveryStatusFailed, true},
		{DeliveryStatusDelivered, DeliveryStatusInTransit, false},
		{DeliveryStatusCancelled, DeliveryStatusAssigned, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
