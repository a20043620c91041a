package models

import "time"

const (
	AlertWarning = "warning"
	AlertInfo    = "info"
	AlertBadge   = "badge"
)

type Alert struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Type      string `gorm:"size:20"` // warning | info | badge
	Message   string `gorm:"type:text"`
	Read      bool
	CreatedAt time.Time
}
