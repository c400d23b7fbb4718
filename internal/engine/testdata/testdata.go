package testdata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/crimson-sun/cardiocare/internal/dataset"
	"github.com/crimson-sun/cardiocare/internal/model"
)

//go:embed scenarios.json
var scenariosJSON []byte

//go:embed cardio_sample.csv
var sampleCSV []byte

// Scenario is an interactive input with its expected rule-based sub-scores.
type Scenario struct {
	Name                  string                   `json:"name"`
	Input                 model.RawAssessmentInput `json:"input"`
	ExpectedBMICategory   model.BMICategory        `json:"expected_bmi_category"`
	ExpectedBPCategory    model.BPCategory         `json:"expected_bp_category"`
	ExpectedLifestyleRisk int                      `json:"expected_lifestyle_risk"`
	ExpectedMedicalRisk   int                      `json:"expected_medical_risk"`
	ExpectedTotalRisk     int                      `json:"expected_total_risk"`
}

// LoadScenarios parses the embedded scenarios.json.
func LoadScenarios() ([]Scenario, error) {
	var entries []Scenario
	if err := json.Unmarshal(scenariosJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse scenarios.json: %w", err)
	}
	return entries, nil
}

// SampleDataset parses the embedded labeled sample in cardio_train layout.
func SampleDataset() (*dataset.Dataset, error) {
	return dataset.Read(bytes.NewReader(sampleCSV), "cardio_sample.csv", dataset.Options{})
}

// SampleCSV returns a copy of the raw sample file.
func SampleCSV() []byte {
	return bytes.Clone(sampleCSV)
}
