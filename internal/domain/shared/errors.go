package shared

import (
	"errors"
	"fmt"
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Resource errors

// ErrResourceClosed is returned by any reservation against a torn-down semaphore or berth pool
var ErrResourceClosed = errors.New("resource closed")

type ResourceError struct {
	*DomainError
}

func NewResourceError(message string) *ResourceError {
	return &ResourceError{DomainError: &DomainError{Message: message}}
}

type ReservationExceedsCapacityError struct {
	*ResourceError
	Requested int
	Capacity  int
}

func NewReservationExceedsCapacityError(requested, capacity int) *ReservationExceedsCapacityError {
	return &ReservationExceedsCapacityError{
		ResourceError: NewResourceError(fmt.Sprintf("cannot reserve %d: capacity is %d", requested, capacity)),
		Requested:     requested,
		Capacity:      capacity,
	}
}

type OverReleaseError struct {
	*ResourceError
	Released int
	Held     int
}

func NewOverReleaseError(released, held int) *OverReleaseError {
	return &OverReleaseError{
		ResourceError: NewResourceError(fmt.Sprintf("cannot release %d: only %d held", released, held)),
		Released:      released,
		Held:          held,
	}
}

// Negotiation errors

type NegotiationRejectedError struct {
	*DomainError
	PortID int
	GoodID int
	Tons   int
}

func NewNegotiationRejectedError(portID, goodID, tons int) *NegotiationRejectedError {
	return &NegotiationRejectedError{
		DomainError: NewDomainError(fmt.Sprintf("port %d rejected %d tons of good %d", portID, tons, goodID)),
		PortID:      portID,
		GoodID:      goodID,
		Tons:        tons,
	}
}

// IsNegotiationRejected reports whether err carries a port rejection
func IsNegotiationRejected(err error) bool {
	var rejected *NegotiationRejectedError
	return errors.As(err, &rejected)
}

type HandshakeInFlightError struct {
	*DomainError
	ShipID int
	PortID int
}

func NewHandshakeInFlightError(shipID, portID int) *HandshakeInFlightError {
	return &HandshakeInFlightError{
		DomainError: NewDomainError(fmt.Sprintf("ship %d already has a handshake in flight with port %d", shipID, portID)),
		ShipID:      shipID,
		PortID:      portID,
	}
}

// Setup errors are fatal to the whole simulation

type SetupError struct {
	*DomainError
	Agent string
	Cause error
}

func NewSetupError(agent string, cause error) *SetupError {
	return &SetupError{
		DomainError: NewDomainError(fmt.Sprintf("setup of %s failed: %v", agent, cause)),
		Agent:       agent,
		Cause:       cause,
	}
}

func (e *SetupError) Unwrap() error {
	return e.Cause
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
