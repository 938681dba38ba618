package models

import (
	"time"

	"gorm.io/gorm"
)

// FlagReason enumerates why the anti-cheat check flagged a run.
type FlagReason string

const (
	FlagScoreOutOfBounds    FlagReason = "score_out_of_bounds"
	FlagDurationOutOfBounds FlagReason = "duration_out_of_bounds"
	FlagImpossibleTiming    FlagReason = "impossible_timing"
	FlagSuspiciouslyFast    FlagReason = "suspiciously_fast"
)

// RunToken is a single-use capability authorizing one run submission.
// A token is redeemable only while unused, unexpired and presented by
// the user it was issued to.
type RunToken struct {
	gorm.Model
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
}

// Run is the immutable record of one completed play session. Rejected
// submissions are recorded too, with the flag reason that killed them.
type Run struct {
	gorm.Model
	UserID     uint       `gorm:"index;not null" json:"userId"`
	Score      int        `gorm:"not null" json:"score"`
	DurationMs int64      `gorm:"not null" json:"durationMs"`
	Token      string     `gorm:"index" json:"-"`
	IPHash     string     `json:"-"`
	Flagged    bool       `gorm:"not null;default:false" json:"flagged"`
	FlagReason FlagReason `json:"flagReason,omitempty"`
}
