package models

import "gorm.io/gorm"

// FoodItem caches catalog entries returned by Edamam searches.
type FoodItem struct {
	gorm.Model
	EdamamFoodID string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Label        string `gorm:"not null"`
	Category     string
}
