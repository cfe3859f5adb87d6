package ledger

import (
	"errors"
	"testing"
)

func TestIdentifierValidation(test *testing.T) {
	test.Parallel()
	if _, err := NewUserID("  "); !errors.Is(err, ErrInvalidUserID) {
		test.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if _, err := NewCampaignID(""); !errors.Is(err, ErrInvalidCampaignID) {
		test.Fatalf("expected ErrInvalidCampaignID, got %v", err)
	}
	if _, err := NewSubmissionID(""); !errors.Is(err, ErrInvalidSubmissionID) {
		test.Fatalf("expected ErrInvalidSubmissionID, got %v", err)
	}
	if _, err := NewPayoutID(""); !errors.Is(err, ErrInvalidPayoutID) {
		test.Fatalf("expected ErrInvalidPayoutID, got %v", err)
	}
	if _, err := NewAdminID(""); !errors.Is(err, ErrInvalidAdminID) {
		test.Fatalf("expected ErrInvalidAdminID, got %v", err)
	}
	userID, err := NewUserID("  creator-1  ")
	if err != nil {
		test.Fatalf("user id: %v", err)
	}
	if userID.String() != "creator-1" {
		test.Fatalf("expected trimmed id, got %q", userID.String())
	}
}

func TestAmountValidation(test *testing.T) {
	test.Parallel()
	if _, err := NewAmountCents(-1); !errors.Is(err, ErrInvalidAmountCents) {
		test.Fatalf("expected ErrInvalidAmountCents, got %v", err)
	}
	if _, err := NewAmountCents(0); err != nil {
		test.Fatalf("expected zero balance to be valid, got %v", err)
	}
	if _, err := NewPositiveAmountCents(0); !errors.Is(err, ErrInvalidAmountCents) {
		test.Fatalf("expected ErrInvalidAmountCents for zero, got %v", err)
	}
	amount, err := NewPositiveAmountCents(250)
	if err != nil {
		test.Fatalf("amount: %v", err)
	}
	if amount.ToAmountCents() != 250 || amount.Int64() != 250 {
		test.Fatalf("unexpected amount views: %d %d", amount.ToAmountCents(), amount.Int64())
	}
}

func TestPayoutMethodNormalization(test *testing.T) {
	test.Parallel()
	method, err := NewPayoutMethod("  UPI ")
	if err != nil {
		test.Fatalf("method: %v", err)
	}
	if method.String() != "upi" {
		test.Fatalf("expected lowercase method, got %q", method.String())
	}
	if _, err := NewPayoutMethod(" "); !errors.Is(err, ErrInvalidPayoutMethod) {
		test.Fatalf("expected ErrInvalidPayoutMethod, got %v", err)
	}
}

func TestDetailsJSONValidation(test *testing.T) {
	test.Parallel()
	details, err := NewDetailsJSON("")
	if err != nil {
		test.Fatalf("details: %v", err)
	}
	if details.String() != "{}" {
		test.Fatalf("expected empty details to default, got %q", details.String())
	}
	if _, err := NewDetailsJSON("{not json"); !errors.Is(err, ErrInvalidDetailsJSON) {
		test.Fatalf("expected ErrInvalidDetailsJSON, got %v", err)
	}
}

func TestParseDecision(test *testing.T) {
	test.Parallel()
	decision, err := ParseDecision(" Approve ")
	if err != nil {
		test.Fatalf("decision: %v", err)
	}
	if decision != DecisionApprove {
		test.Fatalf("expected approve, got %s", decision)
	}
	if _, err := ParseDecision("maybe"); !errors.Is(err, ErrInvalidDecision) {
		test.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestParseStatuses(test *testing.T) {
	test.Parallel()
	status, err := ParseSubmissionStatus("viral_claim")
	if err != nil {
		test.Fatalf("submission status: %v", err)
	}
	if !status.IsOpen() || status.IsTerminal() {
		test.Fatalf("expected open non-terminal status")
	}
	if _, err := ParseSubmissionStatus("held"); !errors.Is(err, ErrInvalidSubmissionStatus) {
		test.Fatalf("expected ErrInvalidSubmissionStatus, got %v", err)
	}

	payoutStatus, err := ParsePayoutStatus("hold")
	if err != nil {
		test.Fatalf("payout status: %v", err)
	}
	if payoutStatus.IsTerminal() {
		test.Fatalf("expected hold to be non-terminal")
	}
	if _, err := ParsePayoutStatus("done"); !errors.Is(err, ErrInvalidPayoutStatus) {
		test.Fatalf("expected ErrInvalidPayoutStatus, got %v", err)
	}
}
