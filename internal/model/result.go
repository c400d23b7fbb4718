package model

import "time"

// Vector is an encoded feature vector: one entry per schema feature, in schema order.
type Vector []float64

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// BMICategory buckets a body-mass index.
type BMICategory string

const (
	Underweight BMICategory = "Underweight"
	NormalBMI   BMICategory = "Normal"
	Overweight  BMICategory = "Overweight"
	Obese       BMICategory = "Obese"
)

// BPCategory buckets a blood-pressure reading.
type BPCategory string

const (
	BPNormal             BPCategory = "Normal"
	BPElevated           BPCategory = "Elevated"
	BPStage1             BPCategory = "Hypertension Stage 1"
	BPStage2             BPCategory = "Hypertension Stage 2"
	BPHypertensiveCrisis BPCategory = "Hypertensive Crisis"
)

// RiskProfile holds the rule-based sub-scores derived from the raw input alone.
type RiskProfile struct {
	BMI           float64     `json:"bmi"`
	BMICategory   BMICategory `json:"bmi_category"`
	BPCategory    BPCategory  `json:"bp_category"`
	LifestyleRisk int         `json:"lifestyle_risk"`
	MedicalRisk   int         `json:"medical_risk"`
	TotalRisk     int         `json:"total_risk"`
}

// PredictionResult is the outcome of one assessment. It is built once and
// replaced, never mutated, by the next submission.
type PredictionResult struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	Probability float64            `json:"probability"`
	Label       int                `json:"label"`
	Input       RawAssessmentInput `json:"input"`
	Risk        RiskProfile        `json:"risk"`
}

// HighRisk reports whether the classifier flagged the positive class.
func (r PredictionResult) HighRisk() bool { return r.Label == 1 }
