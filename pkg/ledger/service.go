package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Service orchestrates accounts, submissions, payouts, and the cashflow day
// under the Store's transaction discipline.
type Service struct {
	store        Store
	nowFn        func() int64
	idFn         func() string
	logger       OperationLogger
	initialLimit AmountCents
}

// NewService wires a Service.
func NewService(store Store, now func() int64, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, idFn: uuid.NewString}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// CreateSubmission reserves the reward into the owner's pending balance and
// records the submission in pending (or viral_claim) state.
func (service *Service) CreateSubmission(ctx context.Context, userID UserID, campaignID CampaignID, reward PositiveAmountCents, viralClaim bool) (SubmissionID, error) {
	var submissionID SubmissionID
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		account, err := transactionStore.GetOrCreateAccount(ctx, userID)
		if err != nil {
			return err
		}
		account.ReserveIntoPending(reward)
		if err := transactionStore.SaveAccount(ctx, account); err != nil {
			return err
		}
		id, err := NewSubmissionID(service.idFn())
		if err != nil {
			return err
		}
		submission := NewSubmission(id, userID, campaignID, reward, viralClaim)
		if err := transactionStore.CreateSubmission(ctx, submission); err != nil {
			return err
		}
		submissionID = id
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:    OperationCreateSubmission,
		UserID:       userID,
		SubmissionID: submissionID,
		Amount:       reward.ToAmountCents(),
		Error:        operationError,
	})
	return submissionID, operationError
}

// ResolveSubmission applies an admin decision to an open submission. Approval
// promotes the reserved reward into the wallet; rejection releases it. A
// terminal submission reports ErrAlreadyResolved and mutates nothing.
func (service *Service) ResolveSubmission(ctx context.Context, submissionID SubmissionID, decision Decision, adminID AdminID) error {
	var userID UserID
	var amount AmountCents
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		submission, err := transactionStore.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		userID = submission.UserID()
		amount = submission.RewardCents().ToAmountCents()
		previousStatus := submission.Status()

		account, err := transactionStore.GetOrCreateAccount(ctx, submission.UserID())
		if err != nil {
			return err
		}
		switch decision {
		case DecisionApprove:
			if err := submission.Approve(adminID); err != nil {
				return err
			}
			if err := account.PromotePendingToWallet(submission.RewardCents()); err != nil {
				return err
			}
		case DecisionReject:
			if err := submission.Reject(adminID); err != nil {
				return err
			}
			if err := account.ReleasePending(submission.RewardCents()); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
		}
		if err := transactionStore.SaveAccount(ctx, account); err != nil {
			return err
		}
		if err := transactionStore.UpdateSubmission(ctx, submission, previousStatus); err != nil {
			if errors.Is(err, ErrStaleAggregate) {
				return fmt.Errorf("%w: submission %s", ErrAlreadyResolved, submissionID.String())
			}
			return err
		}
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:    submissionOperationName(decision),
		UserID:       userID,
		SubmissionID: submissionID,
		AdminID:      adminID,
		Amount:       amount,
		Error:        operationError,
	})
	return operationError
}

// CreatePayout reserves the requested amount out of the wallet and records the
// payout in pending state. ErrInsufficientFunds when the wallet cannot cover it.
func (service *Service) CreatePayout(ctx context.Context, userID UserID, amount PositiveAmountCents, method PayoutMethod, details DetailsJSON) (PayoutID, error) {
	var payoutID PayoutID
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		account, err := transactionStore.GetOrCreateAccount(ctx, userID)
		if err != nil {
			return err
		}
		if err := account.ReserveFromWallet(amount); err != nil {
			return err
		}
		if err := transactionStore.SaveAccount(ctx, account); err != nil {
			return err
		}
		id, err := NewPayoutID(service.idFn())
		if err != nil {
			return err
		}
		if err := transactionStore.CreatePayout(ctx, NewPayout(id, userID, amount, method, details)); err != nil {
			return err
		}
		payoutID = id
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: OperationCreatePayout,
		UserID:    userID,
		PayoutID:  payoutID,
		Amount:    amount.ToAmountCents(),
		Error:     operationError,
	})
	return payoutID, operationError
}

// ResolvePayout applies an admin decision to a payout. Approval consumes the
// reservation against the daily cap (payout and cashflow commit together);
// rejection returns the reservation to the wallet. Cap refusal leaves the
// payout pending and reports the remaining headroom.
func (service *Service) ResolvePayout(ctx context.Context, payoutID PayoutID, decision Decision, adminID AdminID, reason string) error {
	var operationError error
	for attempt := 0; attempt < cashflowRetryAttempts; attempt++ {
		operationError = service.resolvePayoutOnce(ctx, payoutID, decision, adminID, reason)
		if !errors.Is(operationError, ErrCashflowConflict) {
			break
		}
	}
	return operationError
}

func (service *Service) resolvePayoutOnce(ctx context.Context, payoutID PayoutID, decision Decision, adminID AdminID, reason string) error {
	var userID UserID
	var amount AmountCents
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		payout, err := transactionStore.GetPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		userID = payout.UserID()
		amount = payout.AmountCents().ToAmountCents()
		previousStatus := payout.Status()

		switch decision {
		case DecisionApprove:
			if err := payout.Approve(adminID); err != nil {
				return err
			}
			day, err := service.loadCashflowDay(ctx, transactionStore)
			if err != nil {
				return err
			}
			if day.NeedsRollover(service.nowFn()) {
				day.Rollover(service.nowFn())
			}
			if err := day.TryConsume(payout.AmountCents()); err != nil {
				return err
			}
			if err := transactionStore.SaveCashflowDay(ctx, day); err != nil {
				return err
			}
		case DecisionReject:
			if err := payout.Reject(adminID, reason); err != nil {
				return err
			}
			account, err := transactionStore.GetOrCreateAccount(ctx, payout.UserID())
			if err != nil {
				return err
			}
			account.ReturnToWallet(payout.AmountCents())
			if err := transactionStore.SaveAccount(ctx, account); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
		}
		if err := transactionStore.UpdatePayout(ctx, payout, previousStatus); err != nil {
			if errors.Is(err, ErrStaleAggregate) {
				return fmt.Errorf("%w: payout %s", ErrAlreadyResolved, payoutID.String())
			}
			return err
		}
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: payoutOperationName(decision),
		UserID:    userID,
		PayoutID:  payoutID,
		AdminID:   adminID,
		Amount:    amount,
		Error:     operationError,
	})
	return operationError
}

// HoldPayout parks a pending payout for manual review. No balance effect.
func (service *Service) HoldPayout(ctx context.Context, payoutID PayoutID, reason string) error {
	var userID UserID
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		payout, err := transactionStore.GetPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		userID = payout.UserID()
		previousStatus := payout.Status()
		if err := payout.Hold(reason); err != nil {
			return err
		}
		if err := transactionStore.UpdatePayout(ctx, payout, previousStatus); err != nil {
			if errors.Is(err, ErrStaleAggregate) {
				return fmt.Errorf("%w: payout %s", ErrAlreadyResolved, payoutID.String())
			}
			return err
		}
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: OperationHoldPayout,
		UserID:    userID,
		PayoutID:  payoutID,
		Error:     operationError,
	})
	return operationError
}

// ReleasePayout returns a held payout to pending. No balance effect.
func (service *Service) ReleasePayout(ctx context.Context, payoutID PayoutID) error {
	var userID UserID
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		payout, err := transactionStore.GetPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		userID = payout.UserID()
		previousStatus := payout.Status()
		if err := payout.Release(); err != nil {
			return err
		}
		if err := transactionStore.UpdatePayout(ctx, payout, previousStatus); err != nil {
			if errors.Is(err, ErrStaleAggregate) {
				return fmt.Errorf("%w: payout %s", ErrAlreadyResolved, payoutID.String())
			}
			return err
		}
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: OperationReleasePayout,
		UserID:    userID,
		PayoutID:  payoutID,
		Error:     operationError,
	})
	return operationError
}

func (service *Service) loadCashflowDay(ctx context.Context, transactionStore Store) (CashflowDay, error) {
	day, err := transactionStore.GetCashflowDay(ctx)
	if err == nil {
		return day, nil
	}
	if !errors.Is(err, ErrUnknownCashflowDay) {
		return CashflowDay{}, err
	}
	day = NewCashflowDay(service.initialLimit, service.nowFn())
	if err := transactionStore.CreateCashflowDay(ctx, day); err != nil {
		return CashflowDay{}, err
	}
	return day, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func submissionOperationName(decision Decision) string {
	if decision == DecisionReject {
		return OperationRejectSubmission
	}
	return OperationApproveSubmission
}

func payoutOperationName(decision Decision) string {
	if decision == DecisionReject {
		return OperationRejectPayout
	}
	return OperationApprovePayout
}
