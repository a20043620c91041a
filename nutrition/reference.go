package nutrition

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	KindTarget = "target"
	KindLimit  = "limit"
)

type Reference struct {
	Key        string  `yaml:"key" json:"key"`
	Label      string  `yaml:"label" json:"label"`
	Unit       string  `yaml:"unit" json:"unit"`
	Kind       string  `yaml:"kind" json:"kind"`
	Weight     float64 `yaml:"weight" json:"-"`
	Female     float64 `yaml:"female" json:"-"`
	Male       float64 `yaml:"male" json:"-"`
	AdviceLow  string  `yaml:"advice_low" json:"-"`
	AdviceHigh string  `yaml:"advice_high" json:"-"`
}

//go:embed reference.yaml
var referenceYAML []byte

//go:embed met.yaml
var metYAML []byte

var (
	references []Reference
	metTable   struct {
		Activities map[string]float64 `yaml:"activities"`
		Intensity  map[string]float64 `yaml:"intensity"`
	}
)

func init() {
	var doc struct {
		Nutrients []Reference `yaml:"nutrients"`
	}
	if err := yaml.Unmarshal(referenceYAML, &doc); err != nil {
		panic(fmt.Sprintf("nutrition: bad reference.yaml: %v", err))
	}
	references = doc.Nutrients
	if err := yaml.Unmarshal(metYAML, &metTable); err != nil {
		panic(fmt.Sprintf("nutrition: bad met.yaml: %v", err))
	}
}

// References returns a copy of the reference table.
func References() []Reference {
	out := make([]Reference, len(references))
	copy(out, references)
	return out
}

// Profile selects and overrides reference values for one person.
type Profile struct {
	Sex      string
	AgeYears int
	// Targets from the user's nutrition settings override the table (by key).
	Targets map[string]float64
}

// ReferenceValue picks the per-sex value; unknown sex averages both columns.
func (r Reference) ReferenceValue(p Profile) float64 {
	if v, ok := p.Targets[r.Key]; ok && v > 0 {
		return v
	}
	if r.Key == "sodium" && p.AgeYears > 0 {
		return SodiumLimitByAge(p.AgeYears)
	}
	switch strings.ToLower(p.Sex) {
	case "female", "f":
		return r.Female
	case "male", "m":
		return r.Male
	default:
		return (r.Female + r.Male) / 2
	}
}

// SodiumLimitByAge follows the chronic disease risk reduction intake levels.
func SodiumLimitByAge(age int) float64 {
	switch {
	case age > 0 && age <= 3:
		return 1200
	case age >= 4 && age <= 8:
		return 1500
	case age >= 9 && age <= 13:
		return 1800
	default:
		return 2300
	}
}
