package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrAutomationNotFound indicates an automation was not found by the given identifier.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrAccountNotFound indicates an account was not found by the given identifier.
	ErrAccountNotFound = errors.New("account not found")

	// ErrExecutionNotFound indicates an execution record was not found.
	ErrExecutionNotFound = errors.New("execution record not found")

	// ErrInsufficientCredits indicates a metered balance was already exhausted
	// when a debit was attempted.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// AutomationError wraps automation-related errors with operation context.
type AutomationError struct {
	Op           string // Operation being performed (e.g., "GetByID", "Save")
	AutomationID string
	Err          error
}

func (e *AutomationError) Error() string {
	return fmt.Sprintf("%s operation failed for automation %s: %v", e.Op, e.AutomationID, e.Err)
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

func (e *AutomationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAutomationError creates a new automation error with context.
func NewAutomationError(op, automationID string, err error) *AutomationError {
	return &AutomationError{Op: op, AutomationID: automationID, Err: err}
}

// AccountError wraps account-related errors with operation context.
type AccountError struct {
	Op        string
	AccountID string
	Err       error
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("%s operation failed for account %s: %v", e.Op, e.AccountID, e.Err)
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

func (e *AccountError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAccountError creates a new account error with context.
func NewAccountError(op, accountID string, err error) *AccountError {
	return &AccountError{Op: op, AccountID: accountID, Err: err}
}

// IsAutomationNotFound checks if an error indicates a missing automation.
func IsAutomationNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound)
}

// IsAccountNotFound checks if an error indicates a missing account.
func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsInsufficientCredits checks if an error indicates an exhausted balance.
func IsInsufficientCredits(err error) bool {
	return errors.Is(err, ErrInsufficientCredits)
}
