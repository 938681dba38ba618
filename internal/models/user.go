package models

import (
	"strings"

	"gorm.io/gorm"
)

// User represents a registered player in the system. Display names are
// unique regardless of casing; UsernameLower carries the constraint so
// the database enforces it even under concurrent registration.
type User struct {
	gorm.Model
	Username      string `gorm:"not null" json:"username"`
	UsernameLower string `gorm:"uniqueIndex;not null" json:"-"`
	PasswordHash  string `gorm:"not null" json:"-"`
	Points        int64  `gorm:"not null;default:0" json:"points"`
	IsGuest       bool   `gorm:"not null;default:false" json:"isGuest"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	u.UsernameLower = strings.ToLower(u.Username)
	return nil
}
