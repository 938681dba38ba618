package models

import (
	"time"

	"gorm.io/gorm"
)

// UserBestScore holds the maximum score a user has ever achieved.
// This is the value mirrored into the rank store.
type UserBestScore struct {
	gorm.Model
	UserID     uint      `gorm:"uniqueIndex;not null" json:"userId"`
	BestScore  int       `gorm:"not null" json:"bestScore"`
	AchievedAt time.Time `gorm:"not null" json:"achievedAt"`
}

// PointReason enumerates why a user's balance changed.
type PointReason string

const (
	PointReasonRun        PointReason = "run"
	PointReasonPurchase   PointReason = "purchase"
	PointReasonAdjustment PointReason = "adjustment"
)

// PointTransaction is an append-only ledger entry. Rows are created
// alongside every balance mutation and never updated.
type PointTransaction struct {
	gorm.Model
	UserID      uint        `gorm:"index;not null" json:"userId"`
	Delta       int64       `gorm:"not null" json:"delta"`
	Reason      PointReason `gorm:"not null" json:"reason"`
	ReferenceID *uint       `json:"referenceId,omitempty"`
}
