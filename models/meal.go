package models

import (
	"time"

	"gorm.io/gorm"
)

// MealRecord is one logged meal (breakfast/lunch/dinner/snack).
type MealRecord struct {
	gorm.Model
	UserID uint      `gorm:"index;not null"`
	Type   string    `gorm:"size:16"`
	AteAt  time.Time `gorm:"index"`
	Items  []MealItem
}

func (MealRecord) TableName() string { return "meal_records" }

// MealItem stores the nutrition snapshot plus the safety and traffic-light verdicts.
type MealItem struct {
	gorm.Model
	MealRecordID uint `gorm:"index"`

	FoodID       string `gorm:"type:varchar(255)"` // Edamam food id, empty for manual entries
	FoodLabel    string
	Quantity     float64
	MeasureURI   string
	ServingGrams float64

	Calories     float64
	Protein      float64
	Carbs        float64
	Fat          float64
	SaturatedFat float64
	Fiber        float64
	Sodium       float64 // mg
	Sugar        float64

	Safe         bool
	Warnings     string `gorm:"type:text"` // "; " separated
	TrafficLight string `gorm:"size:8"`
}
