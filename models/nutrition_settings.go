package models

import "gorm.io/gorm"

// NutritionSettings holds each user's daily targets. One row per user.
type NutritionSettings struct {
	gorm.Model
	UserID        uint   `gorm:"uniqueIndex;not null"`
	Goal          string `gorm:"size:16"` // lose | maintain | gain
	ActivityLevel string `gorm:"size:16"` // sedentary | light | moderate | active | very_active
	CalorieTarget float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	SodiumLimitMg float64
	SugarLimitG   float64
	WaterGoalMl   int
}

func (NutritionSettings) TableName() string { return "nutrition_settings" }
