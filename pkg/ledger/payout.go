package ledger

import (
	"fmt"
	"strings"
)

// Payout is the state machine for one withdrawal request. The amount is
// reserved out of the wallet at creation; approval consumes the reservation
// against the daily cap, rejection returns it.
type Payout struct {
	id               PayoutID
	userID           UserID
	amount           PositiveAmountCents
	method           PayoutMethod
	details          DetailsJSON
	status           PayoutStatus
	holdReason       string
	resolvedBy       AdminID
	resolutionReason string
}

// NewPayout creates a payout in pending state.
func NewPayout(id PayoutID, userID UserID, amount PositiveAmountCents, method PayoutMethod, details DetailsJSON) Payout {
	return Payout{
		id:      id,
		userID:  userID,
		amount:  amount,
		method:  method,
		details: details,
		status:  PayoutStatusPending,
	}
}

// RehydratePayout rebuilds a payout from stored fields.
func RehydratePayout(id PayoutID, userID UserID, amountCents int64, method PayoutMethod, details DetailsJSON, status PayoutStatus, holdReason string, resolvedBy string, resolutionReason string) (Payout, error) {
	amount, err := NewPositiveAmountCents(amountCents)
	if err != nil {
		return Payout{}, err
	}
	payout := Payout{
		id:               id,
		userID:           userID,
		amount:           amount,
		method:           method,
		details:          details,
		status:           status,
		holdReason:       holdReason,
		resolutionReason: resolutionReason,
	}
	if resolvedBy != "" {
		adminID, err := NewAdminID(resolvedBy)
		if err != nil {
			return Payout{}, err
		}
		payout.resolvedBy = adminID
	}
	return payout, nil
}

// ID returns the payout identifier.
func (payout Payout) ID() PayoutID {
	return payout.id
}

// UserID returns the owning account key.
func (payout Payout) UserID() UserID {
	return payout.userID
}

// AmountCents returns the immutable reserved amount.
func (payout Payout) AmountCents() PositiveAmountCents {
	return payout.amount
}

// Method returns the withdrawal channel.
func (payout Payout) Method() PayoutMethod {
	return payout.method
}

// Details returns the destination details blob.
func (payout Payout) Details() DetailsJSON {
	return payout.details
}

// Status returns the current lifecycle state.
func (payout Payout) Status() PayoutStatus {
	return payout.status
}

// HoldReason returns the reason recorded on the last hold, if any.
func (payout Payout) HoldReason() string {
	return payout.holdReason
}

// ResolvedBy returns the admin that resolved the payout, if terminal.
func (payout Payout) ResolvedBy() AdminID {
	return payout.resolvedBy
}

// ResolutionReason returns the reason recorded at rejection, if any.
func (payout Payout) ResolutionReason() string {
	return payout.resolutionReason
}

// Hold suspends a pending payout for manual review. No balance effect.
func (payout *Payout) Hold(reason string) error {
	if payout.status.IsTerminal() {
		return fmt.Errorf("%w: payout %s is %s", ErrAlreadyResolved, payout.id.String(), payout.status)
	}
	if payout.status == PayoutStatusHold {
		return fmt.Errorf("%w: payout %s", ErrPayoutHeld, payout.id.String())
	}
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidHoldReason)
	}
	payout.status = PayoutStatusHold
	payout.holdReason = trimmed
	return nil
}

// Release returns a held payout to pending and clears the reason.
func (payout *Payout) Release() error {
	if payout.status.IsTerminal() {
		return fmt.Errorf("%w: payout %s is %s", ErrAlreadyResolved, payout.id.String(), payout.status)
	}
	if payout.status != PayoutStatusHold {
		return fmt.Errorf("%w: payout %s is %s", ErrPayoutNotHeld, payout.id.String(), payout.status)
	}
	payout.status = PayoutStatusPending
	payout.holdReason = ""
	return nil
}

// Approve moves a pending payout to its approved terminal state. A held payout
// must be released first.
func (payout *Payout) Approve(adminID AdminID) error {
	if payout.status.IsTerminal() {
		return fmt.Errorf("%w: payout %s is %s", ErrAlreadyResolved, payout.id.String(), payout.status)
	}
	if payout.status == PayoutStatusHold {
		return fmt.Errorf("%w: release before approving", ErrPayoutHeld)
	}
	payout.status = PayoutStatusApproved
	payout.resolvedBy = adminID
	return nil
}

// Reject moves a pending or held payout to its rejected terminal state.
func (payout *Payout) Reject(adminID AdminID, reason string) error {
	if payout.status.IsTerminal() {
		return fmt.Errorf("%w: payout %s is %s", ErrAlreadyResolved, payout.id.String(), payout.status)
	}
	payout.status = PayoutStatusRejected
	payout.resolvedBy = adminID
	payout.resolutionReason = strings.TrimSpace(reason)
	return nil
}
