package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestTryConsumeWithinLimit(test *testing.T) {
	test.Parallel()
	day := NewCashflowDay(mustAmountCents(test, 1000), testClockUnix)
	if err := day.TryConsume(mustPositiveAmount(test, 600)); err != nil {
		test.Fatalf("consume: %v", err)
	}
	if day.SpentCents() != 600 {
		test.Fatalf("expected spent 600, got %d", day.SpentCents())
	}
	if day.RemainingCents() != 400 {
		test.Fatalf("expected remaining 400, got %d", day.RemainingCents())
	}
}

func TestTryConsumeRefusalReportsHeadroom(test *testing.T) {
	test.Parallel()
	day := NewCashflowDay(mustAmountCents(test, 1000), testClockUnix)
	if err := day.TryConsume(mustPositiveAmount(test, 900)); err != nil {
		test.Fatalf("consume: %v", err)
	}
	err := day.TryConsume(mustPositiveAmount(test, 200))
	if !errors.Is(err, ErrDailyLimitExceeded) {
		test.Fatalf("expected ErrDailyLimitExceeded, got %v", err)
	}
	var limitError DailyLimitError
	if !errors.As(err, &limitError) {
		test.Fatalf("expected DailyLimitError, got %T", err)
	}
	if limitError.RemainingCents != 100 {
		test.Fatalf("expected remaining 100, got %d", limitError.RemainingCents)
	}
	if day.SpentCents() != 900 {
		test.Fatalf("expected spend untouched on refusal, got %d", day.SpentCents())
	}
}

func TestTryConsumeExactHeadroom(test *testing.T) {
	test.Parallel()
	day := NewCashflowDay(mustAmountCents(test, 500), testClockUnix)
	if err := day.TryConsume(mustPositiveAmount(test, 500)); err != nil {
		test.Fatalf("expected exact fill to pass, got %v", err)
	}
	if day.RemainingCents() != 0 {
		test.Fatalf("expected remaining 0, got %d", day.RemainingCents())
	}
}

func TestRemainingNeverNegative(test *testing.T) {
	test.Parallel()
	day := NewCashflowDay(mustAmountCents(test, 1000), testClockUnix)
	if err := day.TryConsume(mustPositiveAmount(test, 800)); err != nil {
		test.Fatalf("consume: %v", err)
	}
	day.SetLimit(mustAmountCents(test, 300))
	if day.RemainingCents() != 0 {
		test.Fatalf("expected clamped remaining 0, got %d", day.RemainingCents())
	}
}

func TestRolloverResetsSpendAndWindow(test *testing.T) {
	test.Parallel()
	day := NewCashflowDay(mustAmountCents(test, 1000), testClockUnix)
	if err := day.TryConsume(mustPositiveAmount(test, 400)); err != nil {
		test.Fatalf("consume: %v", err)
	}
	sameDay := day.WindowEnd() - 1
	if day.NeedsRollover(sameDay) {
		test.Fatalf("expected no rollover inside window")
	}
	nextDay := day.WindowEnd() + 3600
	if !day.NeedsRollover(nextDay) {
		test.Fatalf("expected rollover past window end")
	}
	previousEnd := day.WindowEnd()
	day.Rollover(nextDay)
	if day.SpentCents() != 0 {
		test.Fatalf("expected spend reset, got %d", day.SpentCents())
	}
	if day.WindowStart() != previousEnd {
		test.Fatalf("expected new window to start at previous end, got %d", day.WindowStart())
	}
	if day.LimitCents() != 1000 {
		test.Fatalf("expected limit preserved across rollover, got %d", day.LimitCents())
	}
}

func TestWindowBoundsAreUTCDay(test *testing.T) {
	test.Parallel()
	now := time.Date(2024, time.March, 15, 17, 45, 12, 0, time.UTC)
	day := NewCashflowDay(mustAmountCents(test, 100), now.Unix())
	wantStart := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC).Unix()
	if day.WindowStart() != wantStart {
		test.Fatalf("expected window start %d, got %d", wantStart, day.WindowStart())
	}
	if day.WindowEnd()-day.WindowStart() != 24*3600 {
		test.Fatalf("expected 24h window, got %d", day.WindowEnd()-day.WindowStart())
	}
}

func TestResetSpendIsIdempotent(test *testing.T) {
	test.Parallel()
	day := NewCashflowDay(mustAmountCents(test, 1000), testClockUnix)
	if err := day.TryConsume(mustPositiveAmount(test, 250)); err != nil {
		test.Fatalf("consume: %v", err)
	}
	windowStart := day.WindowStart()
	day.ResetSpend()
	day.ResetSpend()
	if day.SpentCents() != 0 {
		test.Fatalf("expected spend 0, got %d", day.SpentCents())
	}
	if day.WindowStart() != windowStart {
		test.Fatalf("expected window unchanged by reset")
	}
}

func TestRehydrateCashflowDayRejectsNegatives(test *testing.T) {
	test.Parallel()
	if _, err := RehydrateCashflowDay(-1, 0, 0, 1, 1); !errors.Is(err, ErrInvalidBalance) {
		test.Fatalf("expected ErrInvalidBalance for negative limit, got %v", err)
	}
	if _, err := RehydrateCashflowDay(0, -1, 0, 1, 1); !errors.Is(err, ErrInvalidBalance) {
		test.Fatalf("expected ErrInvalidBalance for negative spend, got %v", err)
	}
}
