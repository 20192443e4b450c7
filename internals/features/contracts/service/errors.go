package service

import (
	"fmt"

	"github.com/google/uuid"

	model "propertiku_backend/internals/features/contracts/model"
)

// InvalidStateTransitionError: the contract's current status does not permit
// the attempted action. Surfaced to the caller, never swallowed. Not retryable.
type InvalidStateTransitionError struct {
	ContractID uuid.UUID
	From       model.ContractStatus
	Action     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("contract %s: cannot %s from status %s", e.ContractID, e.Action, e.From)
}

// ValidationError: a creation-time invariant was violated (price mismatch,
// commission >= base price, ...). Synchronous, not retryable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func invalidTransition(m *model.ContractModel, action string) error {
	return &InvalidStateTransitionError{ContractID: m.ContractID, From: m.ContractStatus, Action: action}
}
