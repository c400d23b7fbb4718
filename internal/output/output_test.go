package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/crimson-sun/cardiocare/internal/model"
)

func baseResult() model.PredictionResult {
	return model.PredictionResult{
		ID:          "a1",
		CreatedAt:   time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Probability: 0.62,
		Label:       1,
		Input:       model.RawAssessmentInput{AgeYears: 61, HeightCm: 170, WeightKg: 80},
		Risk:        model.RiskProfile{BMI: 27.7, BMICategory: model.Overweight, TotalRisk: 3},
	}
}

func TestNewRecordSummaryOmitsInput(t *testing.T) {
	rec := NewRecord(baseResult(), Summary)
	if rec.Input != nil {
		t.Fatal("Input should be nil at Summary")
	}
	if rec.RiskLevel != "HIGH RISK" {
		t.Fatalf("RiskLevel = %q", rec.RiskLevel)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["input"]; ok {
		t.Fatal("input key present at Summary")
	}
}

func TestNewRecordFullEchoesInput(t *testing.T) {
	r := baseResult()
	rec := NewRecord(r, Full)
	if rec.Input == nil || rec.Input.AgeYears != 61 {
		t.Fatalf("Input = %+v", rec.Input)
	}
	rec.Input.AgeYears = 1
	if r.Input.AgeYears != 61 {
		t.Fatal("record shares input with the result")
	}
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		in      string
		want    Detail
		wantErr bool
	}{
		{"", Summary, false},
		{"summary", Summary, false},
		{"full", Full, false},
		{"verbose", Summary, true},
	}
	for _, tt := range tests {
		got, err := ParseDetail(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDetail(%q) = %v, %v", tt.in, got, err)
		}
	}
}
