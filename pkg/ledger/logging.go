package ledger

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing ledger operation.
type OperationLog struct {
	Operation    string
	UserID       UserID
	SubmissionID SubmissionID
	PayoutID     PayoutID
	AdminID      AdminID
	Amount       AmountCents
	Status       string
	Error        error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithIDGenerator overrides the submission/payout id generator (tests).
func WithIDGenerator(generate func() string) ServiceOption {
	return func(service *Service) {
		if generate != nil {
			service.idFn = generate
		}
	}
}

// WithInitialDailyLimit sets the cap used when the cashflow day is first created.
func WithInitialDailyLimit(limit AmountCents) ServiceOption {
	return func(service *Service) {
		service.initialLimit = limit
	}
}
