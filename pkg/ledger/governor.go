package ledger

import (
	"fmt"
	"time"
)

// CashflowDay is the single platform-wide aggregate gating payout approvals.
// It tracks cumulative approved spend within one UTC accounting day against an
// admin-configurable limit. The version field carries the store's optimistic
// concurrency token so concurrent consumers retry instead of blocking.
type CashflowDay struct {
	limitCents  AmountCents
	spentCents  AmountCents
	windowStart int64
	windowEnd   int64
	version     int64
}

// NewCashflowDay returns a fresh day window with zero spend.
func NewCashflowDay(limit AmountCents, nowUnixUTC int64) CashflowDay {
	start, end := dayWindow(nowUnixUTC)
	return CashflowDay{
		limitCents:  limit,
		windowStart: start,
		windowEnd:   end,
	}
}

// RehydrateCashflowDay rebuilds the aggregate from stored fields.
func RehydrateCashflowDay(limitCents int64, spentCents int64, windowStart int64, windowEnd int64, version int64) (CashflowDay, error) {
	limit, err := NewAmountCents(limitCents)
	if err != nil {
		return CashflowDay{}, fmt.Errorf("%w: daily limit", ErrInvalidBalance)
	}
	spent, err := NewAmountCents(spentCents)
	if err != nil {
		return CashflowDay{}, fmt.Errorf("%w: spent", ErrInvalidBalance)
	}
	return CashflowDay{
		limitCents:  limit,
		spentCents:  spent,
		windowStart: windowStart,
		windowEnd:   windowEnd,
		version:     version,
	}, nil
}

// LimitCents returns the configured daily ceiling.
func (day CashflowDay) LimitCents() AmountCents {
	return day.limitCents
}

// SpentCents returns the approved spend within the current window.
func (day CashflowDay) SpentCents() AmountCents {
	return day.spentCents
}

// WindowStart returns the inclusive window start (unix UTC).
func (day CashflowDay) WindowStart() int64 {
	return day.windowStart
}

// WindowEnd returns the exclusive window end (unix UTC).
func (day CashflowDay) WindowEnd() int64 {
	return day.windowEnd
}

// Version returns the optimistic concurrency token.
func (day CashflowDay) Version() int64 {
	return day.version
}

// RemainingCents returns the headroom left under the limit.
func (day CashflowDay) RemainingCents() AmountCents {
	if day.spentCents >= day.limitCents {
		return 0
	}
	return day.limitCents - day.spentCents
}

// TryConsume checks and increments spend as one step. On refusal the spend is
// untouched and the returned DailyLimitError carries the remaining headroom.
func (day *CashflowDay) TryConsume(amount PositiveAmountCents) error {
	if day.spentCents+amount.ToAmountCents() > day.limitCents {
		return DailyLimitError{RemainingCents: day.RemainingCents()}
	}
	day.spentCents += amount.ToAmountCents()
	return nil
}

// SetLimit replaces the daily ceiling. Spend already recorded is kept; the
// sweep of pending payouts is orchestrated by the service.
func (day *CashflowDay) SetLimit(limit AmountCents) {
	day.limitCents = limit
}

// NeedsRollover reports whether now falls past the current window.
func (day CashflowDay) NeedsRollover(nowUnixUTC int64) bool {
	return nowUnixUTC >= day.windowEnd
}

// Rollover resets spend and recomputes the window for the new day.
func (day *CashflowDay) Rollover(nowUnixUTC int64) {
	start, end := dayWindow(nowUnixUTC)
	day.spentCents = 0
	day.windowStart = start
	day.windowEnd = end
}

// ResetSpend zeroes spend inside the current window (admin tooling). Idempotent.
func (day *CashflowDay) ResetSpend() {
	day.spentCents = 0
}

func dayWindow(nowUnixUTC int64) (int64, int64) {
	now := time.Unix(nowUnixUTC, 0).UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start.Unix(), start.Add(24 * time.Hour).Unix()
}
