package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// Account represents the accounts table.
type Account struct {
	UserID           string    `gorm:"primaryKey"`
	WalletCents      int64     `gorm:"not null"`
	PendingCents     int64     `gorm:"not null"`
	TotalEarnedCents int64     `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

// Submission mirrors the submissions table.
type Submission struct {
	SubmissionID string    `gorm:"primaryKey"`
	UserID       string    `gorm:"not null;index:idx_submissions_user"`
	CampaignID   string    `gorm:"not null;index:idx_submissions_campaign"`
	RewardCents  int64     `gorm:"not null"`
	Status       string    `gorm:"not null;index:idx_submissions_status"`
	ResolvedBy   *string   `gorm:""`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Submission) TableName() string { return "submissions" }

// Payout mirrors the payouts table.
type Payout struct {
	PayoutID         string         `gorm:"primaryKey"`
	UserID           string         `gorm:"not null;index:idx_payouts_user"`
	AmountCents      int64          `gorm:"not null"`
	Method           string         `gorm:"not null"`
	Details          datatypes.JSON `gorm:"not null"`
	Status           string         `gorm:"not null;index:idx_payouts_status"`
	HoldReason       *string        `gorm:""`
	ResolvedBy       *string        `gorm:""`
	ResolutionReason *string        `gorm:""`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

func (Payout) TableName() string { return "payouts" }

// CashflowDay mirrors the single-row cashflow_days table gating payout spend.
type CashflowDay struct {
	ID              int64     `gorm:"primaryKey"`
	DailyLimitCents int64     `gorm:"not null"`
	SpentCents      int64     `gorm:"not null"`
	WindowStart     int64     `gorm:"not null"`
	WindowEnd       int64     `gorm:"not null"`
	Version         int64     `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (CashflowDay) TableName() string { return "cashflow_days" }
