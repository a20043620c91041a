package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SkinDiaryEntry struct {
	gorm.Model
	UserID        uint      `gorm:"uniqueIndex:idx_diary_user_date;not null"`
	Date          time.Time `gorm:"uniqueIndex:idx_diary_user_date;not null"`
	SkinCondition int       // 1 (bad) .. 5 (great)
	SleepHours    float64
	WaterMl       float64
	StressLevel   int // 1 (calm) .. 5 (very stressed)
	Products      datatypes.JSONSlice[string]
	Notes         string `gorm:"type:text"`
}
