package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestSetDailyLimitSweepsOversizedPendingPayouts(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store, WithInitialDailyLimit(10000))
	userID := fundWallet(test, service, store, 1000)

	small, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 100), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create small payout: %v", err)
	}
	large, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 400), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create large payout: %v", err)
	}

	swept, err := service.SetDailyLimit(context.Background(), mustAmountCents(test, 200), mustAdminID(test, "admin-1"))
	if err != nil {
		test.Fatalf("set daily limit: %v", err)
	}
	if len(swept) != 1 || swept[0] != large {
		test.Fatalf("expected only the large payout swept, got %v", swept)
	}
	if store.mustPayout(test, small).Status() != PayoutStatusPending {
		test.Fatalf("expected small payout left pending")
	}
	heldPayout := store.mustPayout(test, large)
	if heldPayout.Status() != PayoutStatusHold || heldPayout.HoldReason() != HoldReasonRevisedLimit {
		test.Fatalf("unexpected swept payout: %+v", heldPayout)
	}
}

func TestSweepAccountsForSpendAlreadyConsumed(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store, WithInitialDailyLimit(1000))
	userID := fundWallet(test, service, store, 1000)
	admin := mustAdminID(test, "admin-1")

	approved, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 600), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create payout: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), approved, DecisionApprove, admin, ""); err != nil {
		test.Fatalf("approve: %v", err)
	}
	pending, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 300), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create pending payout: %v", err)
	}

	// New limit 800 leaves headroom 200 after the 600 already spent.
	swept, err := service.SetDailyLimit(context.Background(), mustAmountCents(test, 800), admin)
	if err != nil {
		test.Fatalf("set daily limit: %v", err)
	}
	if len(swept) != 1 || swept[0] != pending {
		test.Fatalf("expected pending payout swept, got %v", swept)
	}
	if store.mustPayout(test, approved).Status() != PayoutStatusApproved {
		test.Fatalf("expected approved payout untouched by sweep")
	}
}

func TestSweepLeavesHeldAndTerminalPayoutsAlone(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store, WithInitialDailyLimit(10000))
	userID := fundWallet(test, service, store, 2000)
	admin := mustAdminID(test, "admin-1")

	held, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 500), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create held payout: %v", err)
	}
	if err := service.HoldPayout(context.Background(), held, "kyc"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	rejected, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 500), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create rejected payout: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), rejected, DecisionReject, admin, "dup"); err != nil {
		test.Fatalf("reject: %v", err)
	}

	swept, err := service.SetDailyLimit(context.Background(), mustAmountCents(test, 100), admin)
	if err != nil {
		test.Fatalf("set daily limit: %v", err)
	}
	if len(swept) != 0 {
		test.Fatalf("expected nothing swept, got %v", swept)
	}
	if store.mustPayout(test, held).HoldReason() != "kyc" {
		test.Fatalf("expected original hold reason preserved")
	}
	if store.mustPayout(test, rejected).Status() != PayoutStatusRejected {
		test.Fatalf("expected rejected payout untouched")
	}
}

func TestRaisingLimitSweepsNothing(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store, WithInitialDailyLimit(100))
	userID := fundWallet(test, service, store, 500)
	if _, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 300), mustPayoutMethod(test, "upi"), mustDetails(test, "{}")); err != nil {
		test.Fatalf("create payout: %v", err)
	}
	swept, err := service.SetDailyLimit(context.Background(), mustAmountCents(test, 1000), mustAdminID(test, "admin-1"))
	if err != nil {
		test.Fatalf("set daily limit: %v", err)
	}
	if len(swept) != 0 {
		test.Fatalf("expected nothing swept when raising the limit, got %v", swept)
	}
}

func TestResetDailySpendReopensHeadroom(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store, WithInitialDailyLimit(500))
	userID := fundWallet(test, service, store, 1000)
	admin := mustAdminID(test, "admin-1")

	first, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 500), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create payout: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), first, DecisionApprove, admin, ""); err != nil {
		test.Fatalf("approve: %v", err)
	}
	second, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 500), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create payout: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), second, DecisionApprove, admin, ""); !errors.Is(err, ErrDailyLimitExceeded) {
		test.Fatalf("expected cap refusal, got %v", err)
	}

	if err := service.ResetDailySpend(context.Background(), admin); err != nil {
		test.Fatalf("reset daily spend: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), second, DecisionApprove, admin, ""); err != nil {
		test.Fatalf("approve after reset: %v", err)
	}
}

func TestDayRolloverResetsSpendOnApproval(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	clock := testClockUnix
	sequence := 0
	service, err := NewService(store, func() int64 { return clock }, WithInitialDailyLimit(500), WithIDGenerator(func() string {
		sequence++
		return "rollover-" + string(rune('a'+sequence))
	}))
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	userID := fundWallet(test, service, store, 1000)
	admin := mustAdminID(test, "admin-1")

	first, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 500), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create payout: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), first, DecisionApprove, admin, ""); err != nil {
		test.Fatalf("approve: %v", err)
	}
	second, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 500), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create payout: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), second, DecisionApprove, admin, ""); !errors.Is(err, ErrDailyLimitExceeded) {
		test.Fatalf("expected cap refusal before rollover, got %v", err)
	}

	clock += 24 * 3600
	if err := service.ResolvePayout(context.Background(), second, DecisionApprove, admin, ""); err != nil {
		test.Fatalf("approve after rollover: %v", err)
	}
	if store.day.SpentCents() != 500 {
		test.Fatalf("expected fresh window spend 500, got %d", store.day.SpentCents())
	}
}

func TestCashflowViewReportsHeadroom(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store, WithInitialDailyLimit(1000))
	userID := fundWallet(test, service, store, 500)
	admin := mustAdminID(test, "admin-1")
	payoutID, err := service.CreatePayout(context.Background(), userID, mustPositiveAmount(test, 300), mustPayoutMethod(test, "upi"), mustDetails(test, "{}"))
	if err != nil {
		test.Fatalf("create payout: %v", err)
	}
	if err := service.ResolvePayout(context.Background(), payoutID, DecisionApprove, admin, ""); err != nil {
		test.Fatalf("approve: %v", err)
	}

	status, err := service.Cashflow(context.Background())
	if err != nil {
		test.Fatalf("cashflow: %v", err)
	}
	if status.LimitCents != 1000 || status.SpentCents != 300 || status.RemainingCents != 700 {
		test.Fatalf("unexpected cashflow view: %+v", status)
	}
	if status.WindowEnd-status.WindowStart != 24*3600 {
		test.Fatalf("expected 24h window, got %+v", status)
	}
}
