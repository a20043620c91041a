package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	ClerkID        *string `gorm:"uniqueIndex"` // nil for local accounts
	Email          string  `gorm:"uniqueIndex;not null"`
	Password       string  `json:"-"`
	FirstName      string
	LastName       string
	Birthday       time.Time
	Sex            string // "female" | "male" | ""
	HeightCm       float64
	WeightKg       float64
	ProfilePicture string
	Role           string `gorm:"size:16;default:user"`
	Disabled       bool   `gorm:"index"`
	WeeklyReport   bool   `gorm:"default:true"`

	ResetToken    string    `json:"-" gorm:"index"`
	ResetTokenExp time.Time `json:"-"`
	ResetAttempts int       `json:"-" gorm:"not null;default:0"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
