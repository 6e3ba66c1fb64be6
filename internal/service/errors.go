package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ledger business rules. Use with errors.Is; the
// structured types below wrap them with context for callers that render
// messages.
var (
	// ErrClientNotFound is returned when a client identifier does not resolve.
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidQuantity is returned when a movement quantity is not a
	// strictly positive integer.
	ErrInvalidQuantity = errors.New("points must be a positive integer")

	// ErrMissingReference is returned when an accumulation is attempted
	// without a dedup reference.
	ErrMissingReference = errors.New("reference is required")

	// ErrInvalidData is returned on structural validation failures, such as
	// a reference exceeding the maximum length.
	ErrInvalidData = errors.New("invalid movement data")

	// ErrDuplicateMovement is returned when the (client, reference) dedup
	// invariant was or would be violated. It signals "already processed",
	// not a malformed request.
	ErrDuplicateMovement = errors.New("duplicate movement")

	// ErrInsufficientBalance is returned when a redemption exceeds the
	// available balance at commit time.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrClientExists is returned when registration collides with an
	// existing email or external code.
	ErrClientExists = errors.New("client already registered")
)

// DuplicateMovementError reports which ticket was already honored.
type DuplicateMovementError struct {
	ClientID  string
	Reference string
}

func (e *DuplicateMovementError) Error() string {
	return fmt.Sprintf("reference %q was already accumulated for client %s", e.Reference, e.ClientID)
}

func (e *DuplicateMovementError) Unwrap() error {
	return ErrDuplicateMovement
}

// InsufficientBalanceError carries the requested and available quantities so
// the caller can render an actionable message.
type InsufficientBalanceError struct {
	ClientID  string
	Requested int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for client %s: requested %d, available %d",
		e.ClientID, e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// ReferenceTooLongError reports a reference exceeding the configured maximum.
type ReferenceTooLongError struct {
	Reference string
	MaxLength int
}

func (e *ReferenceTooLongError) Error() string {
	return fmt.Sprintf("reference exceeds maximum length (%d)", e.MaxLength)
}

func (e *ReferenceTooLongError) Unwrap() error {
	return ErrInvalidData
}
