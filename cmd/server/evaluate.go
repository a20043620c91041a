package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"glowfit/nutrition"

	"github.com/spf13/cobra"
)

// intakeFile is the input of the evaluate command:
//
//	{"sex": "female", "age": 34, "intake": {"calories": 1850, "protein": 62, "sodium": 2900}}
type intakeFile struct {
	Sex     string             `json:"sex"`
	Age     int                `json:"age"`
	Targets map[string]float64 `json:"targets"`
	Intake  map[string]float64 `json:"intake"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <intake.json|->",
	Short: "Score a day of nutrient intake against reference values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readIntake(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		ev := nutrition.Evaluate(in.Intake, nutrition.Profile{Sex: in.Sex, AgeYears: in.Age, Targets: in.Targets})
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	},
}

func readIntake(stdin io.Reader, path string) (*intakeFile, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read intake: %w", err)
	}
	var in intakeFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse intake: %w", err)
	}
	if len(in.Intake) == 0 {
		return nil, errors.New("intake is empty")
	}
	return &in, nil
}
