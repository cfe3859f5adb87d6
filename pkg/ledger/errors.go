package ledger

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the ledger service.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientPending = errors.New("insufficient pending balance")
	ErrAlreadyResolved     = errors.New("already resolved")
	ErrDailyLimitExceeded  = errors.New("daily payout limit exceeded")
	ErrPayoutHeld          = errors.New("payout is held")
	ErrPayoutNotHeld       = errors.New("payout is not held")
	ErrUnknownSubmission   = errors.New("unknown submission")
	ErrUnknownPayout       = errors.New("unknown payout")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrUnknownCashflowDay  = errors.New("unknown cashflow day")
	ErrCashflowConflict    = errors.New("cashflow day version conflict")
	ErrStaleAggregate      = errors.New("aggregate changed concurrently")

	ErrInvalidUserID           = errors.New("invalid user id")
	ErrInvalidCampaignID       = errors.New("invalid campaign id")
	ErrInvalidSubmissionID     = errors.New("invalid submission id")
	ErrInvalidPayoutID         = errors.New("invalid payout id")
	ErrInvalidAdminID          = errors.New("invalid admin id")
	ErrInvalidAmountCents      = errors.New("invalid amount cents")
	ErrInvalidPayoutMethod     = errors.New("invalid payout method")
	ErrInvalidDetailsJSON      = errors.New("invalid details json")
	ErrInvalidHoldReason       = errors.New("invalid hold reason")
	ErrInvalidSubmissionStatus = errors.New("invalid submission status")
	ErrInvalidPayoutStatus     = errors.New("invalid payout status")
	ErrInvalidDecision         = errors.New("invalid decision")
	ErrInvalidBalance          = errors.New("invalid balance")
	ErrInvalidServiceConfig    = errors.New("invalid service config")
)

// DailyLimitError reports a cap refusal together with the remaining headroom so
// callers can render the shortfall. It unwraps to ErrDailyLimitExceeded.
type DailyLimitError struct {
	RemainingCents AmountCents
}

// Error returns the formatted error message.
func (limitError DailyLimitError) Error() string {
	return fmt.Sprintf("daily payout limit exceeded: remaining %d cents", limitError.RemainingCents.Int64())
}

// Unwrap returns the sentinel so errors.Is(err, ErrDailyLimitExceeded) holds.
func (limitError DailyLimitError) Unwrap() error {
	return ErrDailyLimitExceeded
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
