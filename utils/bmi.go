package utils

import "errors"

var ErrImplausibleBody = errors.New("height/weight out of plausible range")

type BMIResult struct {
	Value        float64 `json:"value"`
	Category     string  `json:"category"`
	AsiaCategory string  `json:"asia_category"`
	HealthyMinKg float64 `json:"healthy_min_kg"`
	HealthyMaxKg float64 `json:"healthy_max_kg"`
}

// CalculateBMI expects height in centimeters and weight in kilograms.
func CalculateBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, errors.New("height and weight must be positive")
	}
	if heightCm < 50 || heightCm > 250 || weightKg < 10 || weightKg > 400 {
		return 0, ErrImplausibleBody
	}
	h := heightCm / 100.0
	return weightKg / (h * h), nil
}

// AssessBMI rounds to one decimal and adds both WHO and Asia-Pacific bands.
func AssessBMI(heightCm, weightKg float64) (BMIResult, error) {
	bmi, err := CalculateBMI(heightCm, weightKg)
	if err != nil {
		return BMIResult{}, err
	}
	h := heightCm / 100.0
	return BMIResult{
		Value:        round1(bmi),
		Category:     BMICategory(bmi),
		AsiaCategory: BMIAsiaCategory(bmi),
		HealthyMinKg: round1(18.5 * h * h),
		HealthyMaxKg: round1(24.9 * h * h),
	}, nil
}

func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	case bmi < 35.0:
		return "Obesity class I"
	case bmi < 40.0:
		return "Obesity class II"
	default:
		return "Obesity class III"
	}
}

// BMIAsiaCategory uses the WHO Western Pacific cut-offs.
func BMIAsiaCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 23.0:
		return "Normal weight"
	case bmi < 25.0:
		return "Overweight"
	case bmi < 30.0:
		return "Obesity class I"
	default:
		return "Obesity class II"
	}
}

func round1(f float64) float64 {
	return float64(int64(f*10+0.5)) / 10
}
