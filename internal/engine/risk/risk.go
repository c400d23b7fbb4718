// Package risk derives the rule-based sub-scores shown alongside the
// classifier's probability. Nothing here depends on the model.
package risk

import "github.com/crimson-sun/cardiocare/internal/model"

// Ranker reports whether a categorical label sits above the lowest category
// of its field. *schema.Schema implements it from its mapping tables.
type Ranker interface {
	AboveLowest(field, label string) bool
}

// BMI returns weight / height² with height converted from cm to m.
func BMI(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return weightKg / (m * m)
}

// CategorizeBMI buckets a BMI value. Lower bounds are inclusive.
func CategorizeBMI(bmi float64) model.BMICategory {
	switch {
	case bmi < 18.5:
		return model.Underweight
	case bmi < 25:
		return model.NormalBMI
	case bmi < 30:
		return model.Overweight
	default:
		return model.Obese
	}
}

// CategorizeBP buckets a blood-pressure reading. The branches are evaluated
// in order and the first match wins, so 135/95 is Stage 1.
func CategorizeBP(systolic, diastolic float64) model.BPCategory {
	switch {
	case systolic < 120 && diastolic < 80:
		return model.BPNormal
	case systolic < 130 && diastolic < 80:
		return model.BPElevated
	case systolic < 140 || diastolic < 90:
		return model.BPStage1
	case systolic >= 140 || diastolic >= 90:
		return model.BPStage2
	default:
		return model.BPHypertensiveCrisis
	}
}

// Lifestyle counts age over 50, BMI over 25 and smoking.
func Lifestyle(in model.RawAssessmentInput, bmi float64, r Ranker) int {
	n := 0
	if in.AgeYears > 50 {
		n++
	}
	if bmi > 25 {
		n++
	}
	if r.AboveLowest(model.FieldSmoke, string(in.Smoke)) {
		n++
	}
	return n
}

// Medical counts cholesterol or glucose above their lowest category and a
// reading over 140 systolic or 90 diastolic.
func Medical(in model.RawAssessmentInput, r Ranker) int {
	n := 0
	if r.AboveLowest(model.FieldCholesterol, string(in.Cholesterol)) {
		n++
	}
	if r.AboveLowest(model.FieldGlucose, string(in.Glucose)) {
		n++
	}
	if in.Systolic > 140 || in.Diastolic > 90 {
		n++
	}
	return n
}

// Profile computes every sub-score for one input.
func Profile(in model.RawAssessmentInput, r Ranker) model.RiskProfile {
	bmi := BMI(in.WeightKg, in.HeightCm)
	lifestyle := Lifestyle(in, bmi, r)
	medical := Medical(in, r)
	return model.RiskProfile{
		BMI:           bmi,
		BMICategory:   CategorizeBMI(bmi),
		BPCategory:    CategorizeBP(in.Systolic, in.Diastolic),
		LifestyleRisk: lifestyle,
		MedicalRisk:   medical,
		TotalRisk:     lifestyle + medical,
	}
}
