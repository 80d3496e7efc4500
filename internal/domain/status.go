package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusUnderReview Status = "EM_ANALISE"
	StatusConfirmed   Status = "CONFIRMADO"
	StatusCancelled   Status = "CANCELADO"

	// InitialStatus is assigned to every new order.
	InitialStatus = StatusUnderReview
)

var allowedStatuses = []Status{StatusUnderReview, StatusConfirmed, StatusCancelled}

// AllowedStatuses returns the fixed status enumeration.
func AllowedStatuses() []Status {
	return slices.Clone(allowedStatuses)
}

// InvalidStatusError is returned when a status is outside the enumeration.
type InvalidStatusError struct {
	Value   string
	Allowed []Status
}

// Error implements the error interface
func (e *InvalidStatusError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}

	return fmt.Sprintf("invalid status %q, allowed values: %s", e.Value, strings.Join(allowed, ", "))
}

// ValidateStatus checks enum membership only. Any member may follow any other.
func ValidateStatus(s Status) error {
	if slices.Contains(allowedStatuses, s) {
		return nil
	}

	return &InvalidStatusError{Value: string(s), Allowed: AllowedStatuses()}
}

// ParseStatus converts a raw value into a validated Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if err := ValidateStatus(s); err != nil {
		return "", err
	}

	return s, nil
}
