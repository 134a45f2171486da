package domain

import (
	"fmt"
	"strings"
)

// OrderStatus is a closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusDelivered,
	StatusCancelled,
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusCancelled},
}

// ParseOrderStatus maps a user-supplied value onto a known status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s.Valid() {
		return s, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown status %q", raw))
}

// Valid reports whether s is one of Statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is expected from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether the workflow allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusMode controls whether UpdateStatus enforces the transition table.
type StatusMode string

const (
	StatusModeStrict  StatusMode = "strict"
	StatusModeLenient StatusMode = "lenient"
)

// ParseStatusMode defaults to strict for anything but "lenient".
func ParseStatusMode(raw string) StatusMode {
	if strings.EqualFold(strings.TrimSpace(raw), string(StatusModeLenient)) {
		return StatusModeLenient
	}
	return StatusModeStrict
}

// CheckTransition returns ErrIllegalTransition when mode is strict and the move is not allowed.
func (m StatusMode) CheckTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", to))
	}
	if m == StatusModeLenient || CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
