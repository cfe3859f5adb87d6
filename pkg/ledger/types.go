package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AmountCents is a non-negative integer currency amount in the smallest unit.
type AmountCents int64

// NewAmountCents validates a balance amount (zero allowed).
func NewAmountCents(raw int64) (AmountCents, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidAmountCents)
	}
	return AmountCents(raw), nil
}

// Int64 returns the raw cents value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// PositiveAmountCents is a strictly positive amount (rewards, payout amounts).
type PositiveAmountCents struct {
	value int64
}

// NewPositiveAmountCents validates an amount and ensures it is strictly positive.
func NewPositiveAmountCents(raw int64) (PositiveAmountCents, error) {
	if raw <= 0 {
		return PositiveAmountCents{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmountCents)
	}
	return PositiveAmountCents{value: raw}, nil
}

// ToAmountCents widens to a balance amount.
func (amount PositiveAmountCents) ToAmountCents() AmountCents {
	return AmountCents(amount.value)
}

// Int64 returns the raw cents value.
func (amount PositiveAmountCents) Int64() int64 {
	return amount.value
}

// UserID identifies an account owner.
type UserID struct {
	value string
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// CampaignID identifies the campaign a submission belongs to.
type CampaignID struct {
	value string
}

// NewCampaignID validates and normalizes a campaign id.
func NewCampaignID(raw string) (CampaignID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CampaignID{}, fmt.Errorf("%w: empty value", ErrInvalidCampaignID)
	}
	return CampaignID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id CampaignID) String() string {
	return id.value
}

// SubmissionID identifies a content-verification submission.
type SubmissionID struct {
	value string
}

// NewSubmissionID validates and normalizes a submission id.
func NewSubmissionID(raw string) (SubmissionID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SubmissionID{}, fmt.Errorf("%w: empty value", ErrInvalidSubmissionID)
	}
	return SubmissionID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id SubmissionID) String() string {
	return id.value
}

// PayoutID identifies a withdrawal request.
type PayoutID struct {
	value string
}

// NewPayoutID validates and normalizes a payout id.
func NewPayoutID(raw string) (PayoutID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PayoutID{}, fmt.Errorf("%w: empty value", ErrInvalidPayoutID)
	}
	return PayoutID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PayoutID) String() string {
	return id.value
}

// AdminID identifies the administrator performing a resolution.
type AdminID struct {
	value string
}

// NewAdminID validates and normalizes an admin id.
func NewAdminID(raw string) (AdminID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return AdminID{}, fmt.Errorf("%w: empty value", ErrInvalidAdminID)
	}
	return AdminID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id AdminID) String() string {
	return id.value
}

// PayoutMethod names the withdrawal channel (upi, bank_transfer, ...).
type PayoutMethod struct {
	value string
}

// NewPayoutMethod validates and normalizes a payout method.
func NewPayoutMethod(raw string) (PayoutMethod, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return PayoutMethod{}, fmt.Errorf("%w: empty value", ErrInvalidPayoutMethod)
	}
	return PayoutMethod{value: trimmed}, nil
}

// String returns the normalized method.
func (method PayoutMethod) String() string {
	return method.value
}

// DetailsJSON stores payout destination details (account number, VPA, ...).
type DetailsJSON struct {
	value string
}

// NewDetailsJSON validates a details string (defaulting to "{}" for empty inputs).
func NewDetailsJSON(raw string) (DetailsJSON, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		normalized = "{}"
	}
	if !json.Valid([]byte(normalized)) {
		return DetailsJSON{}, fmt.Errorf("%w: must be valid json", ErrInvalidDetailsJSON)
	}
	return DetailsJSON{value: normalized}, nil
}

// String returns the normalized JSON blob.
func (details DetailsJSON) String() string {
	return details.value
}

// Decision is an admin resolution outcome.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates a decision string.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, raw)
	}
}

// String returns the decision value.
func (decision Decision) String() string {
	return string(decision)
}

// SubmissionStatus defines the submission lifecycle.
type SubmissionStatus string

const (
	SubmissionStatusPending    SubmissionStatus = "pending"
	SubmissionStatusViralClaim SubmissionStatus = "viral_claim"
	SubmissionStatusApproved   SubmissionStatus = "approved"
	SubmissionStatusRejected   SubmissionStatus = "rejected"
)

// ParseSubmissionStatus validates a stored status value.
func ParseSubmissionStatus(raw string) (SubmissionStatus, error) {
	switch SubmissionStatus(raw) {
	case SubmissionStatusPending, SubmissionStatusViralClaim, SubmissionStatusApproved, SubmissionStatusRejected:
		return SubmissionStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSubmissionStatus, raw)
	}
}

// String returns the status value.
func (status SubmissionStatus) String() string {
	return string(status)
}

// IsTerminal reports whether the status admits no further transitions.
func (status SubmissionStatus) IsTerminal() bool {
	return status == SubmissionStatusApproved || status == SubmissionStatusRejected
}

// IsOpen reports whether an admin may still resolve the submission.
func (status SubmissionStatus) IsOpen() bool {
	return status == SubmissionStatusPending || status == SubmissionStatusViralClaim
}

// PayoutStatus defines the payout lifecycle.
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusHold     PayoutStatus = "hold"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusRejected PayoutStatus = "rejected"
)

// ParsePayoutStatus validates a stored status value.
func ParsePayoutStatus(raw string) (PayoutStatus, error) {
	switch PayoutStatus(raw) {
	case PayoutStatusPending, PayoutStatusHold, PayoutStatusApproved, PayoutStatusRejected:
		return PayoutStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPayoutStatus, raw)
	}
}

// String returns the status value.
func (status PayoutStatus) String() string {
	return string(status)
}

// IsTerminal reports whether the status admits no further transitions.
func (status PayoutStatus) IsTerminal() bool {
	return status == PayoutStatusApproved || status == PayoutStatusRejected
}
