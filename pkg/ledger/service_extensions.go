package ledger

import (
	"context"
	"errors"
)

// CashflowStatus is the dashboard view of the daily cap.
type CashflowStatus struct {
	LimitCents     AmountCents
	SpentCents     AmountCents
	RemainingCents AmountCents
	WindowStart    int64
	WindowEnd      int64
}

// SetDailyLimit durably replaces the daily cap and then sweeps: every payout
// still pending whose amount exceeds the headroom under the new limit moves to
// hold for manual review. Held, approved, and rejected payouts are untouched.
// Returns the ids swept to hold.
func (service *Service) SetDailyLimit(ctx context.Context, newLimit AmountCents, adminID AdminID) ([]PayoutID, error) {
	var swept []PayoutID
	var operationError error
	for attempt := 0; attempt < cashflowRetryAttempts; attempt++ {
		swept = nil
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			day, err := service.loadCashflowDay(ctx, transactionStore)
			if err != nil {
				return err
			}
			if day.NeedsRollover(service.nowFn()) {
				day.Rollover(service.nowFn())
			}
			day.SetLimit(newLimit)
			if err := transactionStore.SaveCashflowDay(ctx, day); err != nil {
				return err
			}
			// Headroom is evaluated once, at sweep start, against the new limit.
			headroom := day.RemainingCents()
			pending, err := transactionStore.ListPayoutsByStatus(ctx, PayoutStatusPending, 0)
			if err != nil {
				return err
			}
			for _, payout := range pending {
				if payout.AmountCents().ToAmountCents() <= headroom {
					continue
				}
				previousStatus := payout.Status()
				if err := payout.Hold(HoldReasonRevisedLimit); err != nil {
					return err
				}
				if err := transactionStore.UpdatePayout(ctx, payout, previousStatus); err != nil {
					if errors.Is(err, ErrStaleAggregate) {
						continue
					}
					return err
				}
				swept = append(swept, payout.ID())
			}
			return nil
		})
		if !errors.Is(operationError, ErrCashflowConflict) {
			break
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation: OperationSetDailyLimit,
		AdminID:   adminID,
		Amount:    newLimit,
		Error:     operationError,
	})
	if operationError != nil {
		return nil, operationError
	}
	return swept, nil
}

// ResetDailySpend zeroes the current window's spend (admin tooling). Idempotent
// within a window; also applies a pending day rollover if one is due.
func (service *Service) ResetDailySpend(ctx context.Context, adminID AdminID) error {
	var operationError error
	for attempt := 0; attempt < cashflowRetryAttempts; attempt++ {
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			day, err := service.loadCashflowDay(ctx, transactionStore)
			if err != nil {
				return err
			}
			if day.NeedsRollover(service.nowFn()) {
				day.Rollover(service.nowFn())
			} else {
				day.ResetSpend()
			}
			return transactionStore.SaveCashflowDay(ctx, day)
		})
		if !errors.Is(operationError, ErrCashflowConflict) {
			break
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation: OperationResetDailySpend,
		AdminID:   adminID,
		Error:     operationError,
	})
	return operationError
}

// Cashflow returns the daily-cap view. A rollover due at read time is shown
// rolled over without being persisted.
func (service *Service) Cashflow(ctx context.Context) (CashflowStatus, error) {
	var status CashflowStatus
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		day, err := service.loadCashflowDay(ctx, transactionStore)
		if err != nil {
			return err
		}
		if day.NeedsRollover(service.nowFn()) {
			day.Rollover(service.nowFn())
		}
		status = CashflowStatus{
			LimitCents:     day.LimitCents(),
			SpentCents:     day.SpentCents(),
			RemainingCents: day.RemainingCents(),
			WindowStart:    day.WindowStart(),
			WindowEnd:      day.WindowEnd(),
		}
		return nil
	})
	if err != nil {
		return CashflowStatus{}, err
	}
	return status, nil
}

// GetAccount returns the read-only balance projection for a user.
func (service *Service) GetAccount(ctx context.Context, userID UserID) (Account, error) {
	return service.store.GetOrCreateAccount(ctx, userID)
}

// GetSubmission returns a single submission.
func (service *Service) GetSubmission(ctx context.Context, id SubmissionID) (Submission, error) {
	return service.store.GetSubmission(ctx, id)
}

// ListSubmissions lists submissions in a given state.
func (service *Service) ListSubmissions(ctx context.Context, status SubmissionStatus, limit int) ([]Submission, error) {
	return service.store.ListSubmissionsByStatus(ctx, status, limit)
}

// GetPayout returns a single payout.
func (service *Service) GetPayout(ctx context.Context, id PayoutID) (Payout, error) {
	return service.store.GetPayout(ctx, id)
}

// ListPayouts lists payouts in a given state.
func (service *Service) ListPayouts(ctx context.Context, status PayoutStatus, limit int) ([]Payout, error) {
	return service.store.ListPayoutsByStatus(ctx, status, limit)
}
