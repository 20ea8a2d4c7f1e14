package enums

import "fmt"

// RetailerStatus tracks the onboarding lifecycle of a retailer account.
type RetailerStatus string

const (
	RetailerStatusPending   RetailerStatus = "pending"
	RetailerStatusActive    RetailerStatus = "active"
	RetailerStatusSuspended RetailerStatus = "suspended"
	RetailerStatusRejected  RetailerStatus = "rejected"
)

var validRetailerStatuses = []RetailerStatus{
	RetailerStatusPending,
	RetailerStatusActive,
	RetailerStatusSuspended,
	RetailerStatusRejected,
}

// String implements fmt.Stringer.
func (r RetailerStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RetailerStatus.
func (r RetailerStatus) IsValid() bool {
	for _, candidate := range validRetailerStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRetailerStatus converts raw input into a RetailerStatus.
func ParseRetailerStatus(value string) (RetailerStatus, error) {
	for _, candidate := range validRetailerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid retailer status %q", value)
}
