package gormstore

import (
	"context"
	"errors"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/reachpay/ledger/pkg/ledger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	cashflowDayRowID      = 1
	defaultDetailsJSON    = "{}"
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19

	errorOperationStore    = "store"
	errorSubjectAccount    = "account"
	errorSubjectSubmission = "submission"
	errorSubjectPayout     = "payout"
	errorSubjectCashflow   = "cashflow_day"
	errorCodeCreate        = "create"
	errorCodeGet           = "get"
	errorCodeInvalid       = "invalid"
	errorCodeList          = "list"
	errorCodeSave          = "save"
	errorCodeUpdateStatus  = "update_status"
)

// Store implements ledger.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the ledger tables.
func (store *Store) Migrate() error {
	return store.db.AutoMigrate(&Account{}, &Submission{}, &Payout{}, &CashflowDay{})
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) GetOrCreateAccount(ctx context.Context, userID ledger.UserID) (ledger.Account, error) {
	var row Account
	err := store.lockedForUpdate(ctx).Where("user_id = ?", userID.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = Account{UserID: userID.String()}
		createErr := store.db.WithContext(ctx).Create(&row).Error
		if createErr != nil && !isUniqueViolation(createErr) {
			return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeCreate, createErr)
		}
		if createErr != nil {
			// Lost a creation race; the row exists now.
			if err := store.lockedForUpdate(ctx).Where("user_id = ?", userID.String()).Take(&row).Error; err != nil {
				return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, err)
			}
		}
	} else if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, err)
	}
	account, err := ledger.RehydrateAccount(userID, row.WalletCents, row.PendingCents, row.TotalEarnedCents)
	if err != nil {
		return ledger.Account{}, wrapStoreError(errorSubjectAccount, errorCodeInvalid, err)
	}
	return account, nil
}

func (store *Store) SaveAccount(ctx context.Context, account ledger.Account) error {
	err := store.db.WithContext(ctx).
		Model(&Account{}).
		Where("user_id = ?", account.UserID().String()).
		Updates(map[string]interface{}{
			"wallet_cents":       account.WalletCents().Int64(),
			"pending_cents":      account.PendingCents().Int64(),
			"total_earned_cents": account.TotalEarnedCents().Int64(),
		}).Error
	if err != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeSave, err)
	}
	return nil
}

func (store *Store) CreateSubmission(ctx context.Context, submission ledger.Submission) error {
	row := Submission{
		SubmissionID: submission.ID().String(),
		UserID:       submission.UserID().String(),
		CampaignID:   submission.CampaignID().String(),
		RewardCents:  submission.RewardCents().Int64(),
		Status:       submission.Status().String(),
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrapStoreError(errorSubjectSubmission, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetSubmission(ctx context.Context, id ledger.SubmissionID) (ledger.Submission, error) {
	var row Submission
	err := store.lockedForUpdate(ctx).Where("submission_id = ?", id.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Submission{}, wrapStoreError(errorSubjectSubmission, errorCodeGet, ledger.ErrUnknownSubmission)
	}
	if err != nil {
		return ledger.Submission{}, wrapStoreError(errorSubjectSubmission, errorCodeGet, err)
	}
	return mapSubmission(row)
}

func (store *Store) UpdateSubmission(ctx context.Context, submission ledger.Submission, from ledger.SubmissionStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Submission{}).
		Where("submission_id = ? AND status = ?", submission.ID().String(), from.String()).
		Updates(map[string]interface{}{
			"status":      submission.Status().String(),
			"resolved_by": nullableString(submission.ResolvedBy().String()),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectSubmission, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectSubmission, errorCodeUpdateStatus, ledger.ErrStaleAggregate)
	}
	return nil
}

func (store *Store) ListSubmissionsByStatus(ctx context.Context, status ledger.SubmissionStatus, limit int) ([]ledger.Submission, error) {
	var rows []Submission
	query := store.db.WithContext(ctx).
		Where("status = ?", status.String()).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectSubmission, errorCodeList, err)
	}
	submissions := make([]ledger.Submission, 0, len(rows))
	for _, row := range rows {
		submission, err := mapSubmission(row)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, nil
}

func (store *Store) CreatePayout(ctx context.Context, payout ledger.Payout) error {
	row := Payout{
		PayoutID:    payout.ID().String(),
		UserID:      payout.UserID().String(),
		AmountCents: payout.AmountCents().Int64(),
		Method:      payout.Method().String(),
		Details:     datatypesJSON(payout.Details().String()),
		Status:      payout.Status().String(),
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrapStoreError(errorSubjectPayout, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetPayout(ctx context.Context, id ledger.PayoutID) (ledger.Payout, error) {
	var row Payout
	err := store.lockedForUpdate(ctx).Where("payout_id = ?", id.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeGet, ledger.ErrUnknownPayout)
	}
	if err != nil {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeGet, err)
	}
	return mapPayout(row)
}

func (store *Store) UpdatePayout(ctx context.Context, payout ledger.Payout, from ledger.PayoutStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Payout{}).
		Where("payout_id = ? AND status = ?", payout.ID().String(), from.String()).
		Updates(map[string]interface{}{
			"status":            payout.Status().String(),
			"hold_reason":       nullableString(payout.HoldReason()),
			"resolved_by":       nullableString(payout.ResolvedBy().String()),
			"resolution_reason": nullableString(payout.ResolutionReason()),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectPayout, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectPayout, errorCodeUpdateStatus, ledger.ErrStaleAggregate)
	}
	return nil
}

func (store *Store) ListPayoutsByStatus(ctx context.Context, status ledger.PayoutStatus, limit int) ([]ledger.Payout, error) {
	var rows []Payout
	query := store.db.WithContext(ctx).
		Where("status = ?", status.String()).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectPayout, errorCodeList, err)
	}
	payouts := make([]ledger.Payout, 0, len(rows))
	for _, row := range rows {
		payout, err := mapPayout(row)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, payout)
	}
	return payouts, nil
}

func (store *Store) GetCashflowDay(ctx context.Context) (ledger.CashflowDay, error) {
	var row CashflowDay
	err := store.db.WithContext(ctx).Where("id = ?", cashflowDayRowID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.CashflowDay{}, wrapStoreError(errorSubjectCashflow, errorCodeGet, ledger.ErrUnknownCashflowDay)
	}
	if err != nil {
		return ledger.CashflowDay{}, wrapStoreError(errorSubjectCashflow, errorCodeGet, err)
	}
	day, err := ledger.RehydrateCashflowDay(row.DailyLimitCents, row.SpentCents, row.WindowStart, row.WindowEnd, row.Version)
	if err != nil {
		return ledger.CashflowDay{}, wrapStoreError(errorSubjectCashflow, errorCodeInvalid, err)
	}
	return day, nil
}

func (store *Store) CreateCashflowDay(ctx context.Context, day ledger.CashflowDay) error {
	row := CashflowDay{
		ID:              cashflowDayRowID,
		DailyLimitCents: day.LimitCents().Int64(),
		SpentCents:      day.SpentCents().Int64(),
		WindowStart:     day.WindowStart(),
		WindowEnd:       day.WindowEnd(),
		Version:         day.Version(),
	}
	err := store.db.WithContext(ctx).Create(&row).Error
	if isUniqueViolation(err) {
		// Lost a creation race; the caller re-reads and retries.
		return wrapStoreError(errorSubjectCashflow, errorCodeCreate, ledger.ErrCashflowConflict)
	}
	if err != nil {
		return wrapStoreError(errorSubjectCashflow, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) SaveCashflowDay(ctx context.Context, day ledger.CashflowDay) error {
	result := store.db.WithContext(ctx).
		Model(&CashflowDay{}).
		Where("id = ? AND version = ?", cashflowDayRowID, day.Version()).
		Updates(map[string]interface{}{
			"daily_limit_cents": day.LimitCents().Int64(),
			"spent_cents":       day.SpentCents().Int64(),
			"window_start":      day.WindowStart(),
			"window_end":        day.WindowEnd(),
			"version":           day.Version() + 1,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectCashflow, errorCodeSave, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectCashflow, errorCodeSave, ledger.ErrCashflowConflict)
	}
	return nil
}

// lockedForUpdate applies a row lock on dialects that support it. SQLite
// serializes writers on its own and rejects the FOR UPDATE syntax.
func (store *Store) lockedForUpdate(ctx context.Context) *gorm.DB {
	query := store.db.WithContext(ctx)
	if store.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

func mapSubmission(row Submission) (ledger.Submission, error) {
	id, err := ledger.NewSubmissionID(row.SubmissionID)
	if err != nil {
		return ledger.Submission{}, wrapStoreError(errorSubjectSubmission, errorCodeInvalid, err)
	}
	userID, err := ledger.NewUserID(row.UserID)
	if err != nil {
		return ledger.Submission{}, wrapStoreError(errorSubjectSubmission, errorCodeInvalid, err)
	}
	campaignID, err := ledger.NewCampaignID(row.CampaignID)
	if err != nil {
		return ledger.Submission{}, wrapStoreError(errorSubjectSubmission, errorCodeInvalid, err)
	}
	status, err := ledger.ParseSubmissionStatus(row.Status)
	if err != nil {
		return ledger.Submission{}, wrapStoreError(errorSubjectSubmission, errorCodeInvalid, err)
	}
	submission, err := ledger.RehydrateSubmission(id, userID, campaignID, row.RewardCents, status, stringOrEmpty(row.ResolvedBy))
	if err != nil {
		return ledger.Submission{}, wrapStoreError(errorSubjectSubmission, errorCodeInvalid, err)
	}
	return submission, nil
}

func mapPayout(row Payout) (ledger.Payout, error) {
	id, err := ledger.NewPayoutID(row.PayoutID)
	if err != nil {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeInvalid, err)
	}
	userID, err := ledger.NewUserID(row.UserID)
	if err != nil {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeInvalid, err)
	}
	method, err := ledger.NewPayoutMethod(row.Method)
	if err != nil {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeInvalid, err)
	}
	details, err := ledger.NewDetailsJSON(string(row.Details))
	if err != nil {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeInvalid, err)
	}
	status, err := ledger.ParsePayoutStatus(row.Status)
	if err != nil {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeInvalid, err)
	}
	payout, err := ledger.RehydratePayout(
		id,
		userID,
		row.AmountCents,
		method,
		details,
		status,
		stringOrEmpty(row.HoldReason),
		stringOrEmpty(row.ResolvedBy),
		stringOrEmpty(row.ResolutionReason),
	)
	if err != nil {
		return ledger.Payout{}, wrapStoreError(errorSubjectPayout, errorCodeInvalid, err)
	}
	return payout, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultDetailsJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
