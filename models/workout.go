package models

import (
	"time"

	"gorm.io/gorm"
)

type WorkoutLog struct {
	gorm.Model
	UserID         uint   `gorm:"index;not null"`
	Type           string `gorm:"size:32"`
	Intensity      string `gorm:"size:16"` // low | moderate | high
	DurationMin    float64
	CaloriesBurned float64
	PerformedAt    time.Time `gorm:"index"`
}
