package ledger

import "context"

// Store is the persistence contract used by Service. Implementations must make
// WithTx atomic, serialize same-account access (row locks), and enforce the
// conditional-transition semantics of the Update* methods: the write applies
// only while the aggregate is still in the expected `from` state, otherwise
// ErrStaleAggregate is returned and nothing changes.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	GetOrCreateAccount(ctx context.Context, userID UserID) (Account, error)
	SaveAccount(ctx context.Context, account Account) error

	CreateSubmission(ctx context.Context, submission Submission) error
	GetSubmission(ctx context.Context, id SubmissionID) (Submission, error)
	UpdateSubmission(ctx context.Context, submission Submission, from SubmissionStatus) error
	ListSubmissionsByStatus(ctx context.Context, status SubmissionStatus, limit int) ([]Submission, error)

	CreatePayout(ctx context.Context, payout Payout) error
	GetPayout(ctx context.Context, id PayoutID) (Payout, error)
	UpdatePayout(ctx context.Context, payout Payout, from PayoutStatus) error
	ListPayoutsByStatus(ctx context.Context, status PayoutStatus, limit int) ([]Payout, error)

	GetCashflowDay(ctx context.Context) (CashflowDay, error)
	CreateCashflowDay(ctx context.Context, day CashflowDay) error
	// SaveCashflowDay writes the singleton conditionally on its loaded version
	// and bumps it; ErrCashflowConflict on a stale version.
	SaveCashflowDay(ctx context.Context, day CashflowDay) error
}
