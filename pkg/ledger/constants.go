package ledger

// Operation names carried on OperationLog entries.
const (
	OperationCreateSubmission  = "create_submission"
	OperationApproveSubmission = "approve_submission"
	OperationRejectSubmission  = "reject_submission"
	OperationCreatePayout      = "create_payout"
	OperationApprovePayout     = "approve_payout"
	OperationRejectPayout      = "reject_payout"
	OperationHoldPayout        = "hold_payout"
	OperationReleasePayout     = "release_payout"
	OperationSetDailyLimit     = "set_daily_limit"
	OperationResetDailySpend   = "reset_daily_spend"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	// HoldReasonRevisedLimit marks payouts parked by a cap-reduction sweep.
	HoldReasonRevisedLimit = "exceeds revised daily limit"

	cashflowRetryAttempts = 3
)
