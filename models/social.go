package models

import "time"

type Follow struct {
	ID         uint `gorm:"primaryKey"`
	FollowerID uint `gorm:"uniqueIndex:idx_follow_pair;not null"`
	FolloweeID uint `gorm:"uniqueIndex:idx_follow_pair;index;not null"`
	CreatedAt  time.Time
}

// ActivityEvent feeds the social timeline.
type ActivityEvent struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Kind      string `gorm:"size:24"` // analysis | meal | workout | badge | diary
	Summary   string
	RefID     uint
	CreatedAt time.Time `gorm:"index"`
}
