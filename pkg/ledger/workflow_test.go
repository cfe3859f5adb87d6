package ledger

import (
	"errors"
	"testing"
)

func TestNewSubmissionStatusByClaimKind(test *testing.T) {
	test.Parallel()
	plain := newTestSubmission(test, "sub-1", false)
	if plain.Status() != SubmissionStatusPending {
		test.Fatalf("expected pending, got %s", plain.Status())
	}
	viral := newTestSubmission(test, "sub-2", true)
	if viral.Status() != SubmissionStatusViralClaim {
		test.Fatalf("expected viral_claim, got %s", viral.Status())
	}
	if !viral.IsViralClaim() {
		test.Fatalf("expected viral claim flag")
	}
}

func TestSubmissionApproveFromViralClaim(test *testing.T) {
	test.Parallel()
	submission := newTestSubmission(test, "sub-3", true)
	if err := submission.Approve(mustAdminID(test, "admin-1")); err != nil {
		test.Fatalf("approve: %v", err)
	}
	if submission.Status() != SubmissionStatusApproved {
		test.Fatalf("expected approved, got %s", submission.Status())
	}
	if submission.ResolvedBy().String() != "admin-1" {
		test.Fatalf("expected resolver recorded, got %q", submission.ResolvedBy().String())
	}
}

func TestSubmissionDoubleResolveGuard(test *testing.T) {
	test.Parallel()
	submission := newTestSubmission(test, "sub-4", false)
	if err := submission.Reject(mustAdminID(test, "admin-1")); err != nil {
		test.Fatalf("reject: %v", err)
	}
	if err := submission.Approve(mustAdminID(test, "admin-2")); !errors.Is(err, ErrAlreadyResolved) {
		test.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if err := submission.Reject(mustAdminID(test, "admin-2")); !errors.Is(err, ErrAlreadyResolved) {
		test.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if submission.Status() != SubmissionStatusRejected {
		test.Fatalf("expected terminal state preserved, got %s", submission.Status())
	}
}

func TestPayoutHoldReleaseCycle(test *testing.T) {
	test.Parallel()
	payout := newTestPayout(test, "pay-1", 300)
	if err := payout.Hold("kyc review"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	if payout.Status() != PayoutStatusHold || payout.HoldReason() != "kyc review" {
		test.Fatalf("unexpected held payout: %+v", payout)
	}
	if err := payout.Hold("again"); !errors.Is(err, ErrPayoutHeld) {
		test.Fatalf("expected ErrPayoutHeld, got %v", err)
	}
	if err := payout.Release(); err != nil {
		test.Fatalf("release: %v", err)
	}
	if payout.Status() != PayoutStatusPending || payout.HoldReason() != "" {
		test.Fatalf("expected cleared pending payout, got %+v", payout)
	}
	if err := payout.Release(); !errors.Is(err, ErrPayoutNotHeld) {
		test.Fatalf("expected ErrPayoutNotHeld, got %v", err)
	}
}

func TestPayoutHoldRequiresReason(test *testing.T) {
	test.Parallel()
	payout := newTestPayout(test, "pay-2", 300)
	if err := payout.Hold("  "); !errors.Is(err, ErrInvalidHoldReason) {
		test.Fatalf("expected ErrInvalidHoldReason, got %v", err)
	}
	if payout.Status() != PayoutStatusPending {
		test.Fatalf("expected payout left pending, got %s", payout.Status())
	}
}

func TestPayoutApproveRefusedWhileHeld(test *testing.T) {
	test.Parallel()
	payout := newTestPayout(test, "pay-3", 300)
	if err := payout.Hold("suspicious"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	if err := payout.Approve(mustAdminID(test, "admin-1")); !errors.Is(err, ErrPayoutHeld) {
		test.Fatalf("expected ErrPayoutHeld, got %v", err)
	}
	if payout.Status() != PayoutStatusHold {
		test.Fatalf("expected payout still held, got %s", payout.Status())
	}
}

func TestPayoutRejectFromHold(test *testing.T) {
	test.Parallel()
	payout := newTestPayout(test, "pay-4", 300)
	if err := payout.Hold("suspicious"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	if err := payout.Reject(mustAdminID(test, "admin-1"), "fraud"); err != nil {
		test.Fatalf("reject: %v", err)
	}
	if payout.Status() != PayoutStatusRejected || payout.ResolutionReason() != "fraud" {
		test.Fatalf("unexpected rejected payout: %+v", payout)
	}
}

func TestPayoutTerminalGuards(test *testing.T) {
	test.Parallel()
	payout := newTestPayout(test, "pay-5", 300)
	if err := payout.Approve(mustAdminID(test, "admin-1")); err != nil {
		test.Fatalf("approve: %v", err)
	}
	if err := payout.Approve(mustAdminID(test, "admin-2")); !errors.Is(err, ErrAlreadyResolved) {
		test.Fatalf("expected ErrAlreadyResolved on re-approve, got %v", err)
	}
	if err := payout.Reject(mustAdminID(test, "admin-2"), ""); !errors.Is(err, ErrAlreadyResolved) {
		test.Fatalf("expected ErrAlreadyResolved on reject-after-approve, got %v", err)
	}
	if err := payout.Hold("late"); !errors.Is(err, ErrAlreadyResolved) {
		test.Fatalf("expected ErrAlreadyResolved on hold-after-approve, got %v", err)
	}
}

func newTestSubmission(test *testing.T, id string, viralClaim bool) Submission {
	test.Helper()
	return NewSubmission(
		mustSubmissionID(test, id),
		mustUserID(test, "creator"),
		mustCampaignID(test, "campaign"),
		mustPositiveAmount(test, 500),
		viralClaim,
	)
}

func newTestPayout(test *testing.T, id string, amountCents int64) Payout {
	test.Helper()
	return NewPayout(
		mustPayoutID(test, id),
		mustUserID(test, "creator"),
		mustPositiveAmount(test, amountCents),
		mustPayoutMethod(test, "upi"),
		mustDetails(test, `{"vpa":"creator@bank"}`),
	)
}
