package models

import "time"

type UserStats struct {
	UserID         uint `gorm:"primaryKey;autoIncrement:false"`
	XP             int
	Level          int
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate time.Time
	UpdatedAt      time.Time
}

type UserBadge struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"uniqueIndex:idx_user_badge;not null"`
	Code     string `gorm:"uniqueIndex:idx_user_badge;size:32;not null"`
	EarnedAt time.Time
}
