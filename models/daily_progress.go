package models

import (
	"time"

	"gorm.io/gorm"
)

// DailyProgress is a per-day snapshot refreshed whenever meals, water or workouts change.
type DailyProgress struct {
	gorm.Model
	UserID uint      `gorm:"uniqueIndex:idx_progress_user_date;not null"`
	Date   time.Time `gorm:"uniqueIndex:idx_progress_user_date;not null"`

	Calories    float64
	Protein     float64
	Carbs       float64
	Fat         float64
	Sodium      float64
	Sugar       float64
	WaterMl     float64
	ExerciseMin float64
	BurnedKcal  float64
	SafeItems   int
	TotalItems  int
}
