package models

import (
	"time"

	"gorm.io/gorm"
)

type WaterRecord struct {
	gorm.Model
	UserID     uint      `gorm:"index;not null"`
	AmountMl   int       `gorm:"not null"`
	RecordedAt time.Time `gorm:"index"`
}
