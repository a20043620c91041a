package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AnalysisSkin          = "skin"
	AnalysisPersonalColor = "personal-color"
	AnalysisHair          = "hair"
	AnalysisMakeup        = "makeup"
	AnalysisBody          = "body"
)

// AnalysisKinds lists every supported visual analysis.
var AnalysisKinds = []string{
	AnalysisSkin, AnalysisPersonalColor, AnalysisHair, AnalysisMakeup, AnalysisBody,
}

// Analysis is one AI visual analysis result.
type Analysis struct {
	gorm.Model
	UserID       uint   `gorm:"index;not null"`
	Kind         string `gorm:"size:24;index"`
	ImageURL     string
	Result       datatypes.JSON
	Metrics      datatypes.JSON // zone brightness pre-analysis
	Provider     string `gorm:"size:16"`
	ModelName    string `gorm:"size:64"`
	UsedFallback bool
	Score        float64
}
