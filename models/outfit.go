package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SavedOutfit struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null"`
	Name       string `gorm:"not null"`
	Occasion   string
	Season     string
	Items      datatypes.JSON
	ImageURL   string
	AnalysisID *uint
}
