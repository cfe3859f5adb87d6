package ledger

import "fmt"

// Account is the per-user balance record. Wallet and pending balances are only
// moved by submission and payout transitions; there is no direct mutation path.
type Account struct {
	userID       UserID
	walletCents  AmountCents
	pendingCents AmountCents
	earnedCents  AmountCents
}

// NewAccount returns a zero-balance account for a user.
func NewAccount(userID UserID) Account {
	return Account{userID: userID}
}

// RehydrateAccount rebuilds an account from stored balances.
func RehydrateAccount(userID UserID, walletCents int64, pendingCents int64, earnedCents int64) (Account, error) {
	wallet, err := NewAmountCents(walletCents)
	if err != nil {
		return Account{}, fmt.Errorf("%w: wallet balance", ErrInvalidBalance)
	}
	pending, err := NewAmountCents(pendingCents)
	if err != nil {
		return Account{}, fmt.Errorf("%w: pending balance", ErrInvalidBalance)
	}
	earned, err := NewAmountCents(earnedCents)
	if err != nil {
		return Account{}, fmt.Errorf("%w: total earnings", ErrInvalidBalance)
	}
	return Account{userID: userID, walletCents: wallet, pendingCents: pending, earnedCents: earned}, nil
}

// UserID returns the owner key.
func (account Account) UserID() UserID {
	return account.userID
}

// WalletCents returns the balance available for withdrawal.
func (account Account) WalletCents() AmountCents {
	return account.walletCents
}

// PendingCents returns the reserved reward value awaiting verification.
func (account Account) PendingCents() AmountCents {
	return account.pendingCents
}

// TotalEarnedCents returns the lifetime sum of promoted rewards.
func (account Account) TotalEarnedCents() AmountCents {
	return account.earnedCents
}

// ReserveIntoPending parks a submission reward in the pending balance.
func (account *Account) ReserveIntoPending(amount PositiveAmountCents) {
	account.pendingCents += amount.ToAmountCents()
}

// PromotePendingToWallet settles an approved reward into the wallet.
// ErrInsufficientPending signals a broken reservation invariant, not caller error.
func (account *Account) PromotePendingToWallet(amount PositiveAmountCents) error {
	if account.pendingCents < amount.ToAmountCents() {
		return fmt.Errorf("%w: have %d, promote %d", ErrInsufficientPending, account.pendingCents.Int64(), amount.Int64())
	}
	account.pendingCents -= amount.ToAmountCents()
	account.walletCents += amount.ToAmountCents()
	account.earnedCents += amount.ToAmountCents()
	return nil
}

// ReleasePending drops a rejected reward from the pending balance.
func (account *Account) ReleasePending(amount PositiveAmountCents) error {
	if account.pendingCents < amount.ToAmountCents() {
		return fmt.Errorf("%w: have %d, release %d", ErrInsufficientPending, account.pendingCents.Int64(), amount.Int64())
	}
	account.pendingCents -= amount.ToAmountCents()
	return nil
}

// ReserveFromWallet debits a payout reservation. This is the one user-facing
// failure in the account: requesting more than the wallet holds.
func (account *Account) ReserveFromWallet(amount PositiveAmountCents) error {
	if account.walletCents < amount.ToAmountCents() {
		return fmt.Errorf("%w: have %d, reserve %d", ErrInsufficientFunds, account.walletCents.Int64(), amount.Int64())
	}
	account.walletCents -= amount.ToAmountCents()
	return nil
}

// ReturnToWallet returns a rejected payout's reservation.
func (account *Account) ReturnToWallet(amount PositiveAmountCents) {
	account.walletCents += amount.ToAmountCents()
}
