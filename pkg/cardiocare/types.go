package cardiocare

import (
	"time"

	"github.com/crimson-sun/cardiocare/internal/engine/report"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Input is one person's answers. Categorical fields take the labels of the
// loaded schema: Sex "Male"/"Female", yes/no flags, and
// "normal"/"above_normal"/"well_above" levels. Matching ignores case.
type Input struct {
	AgeYears    float64 `json:"age_years"`
	HeightCm    float64 `json:"height"`
	WeightKg    float64 `json:"weight"`
	Systolic    float64 `json:"ap_hi"`
	Diastolic   float64 `json:"ap_lo"`
	Sex         string  `json:"gender"`
	Smoke       string  `json:"smoke"`
	Alcohol     string  `json:"alco"`
	Active      string  `json:"active"`
	Cholesterol string  `json:"cholesterol"`
	Glucose     string  `json:"gluc"`
}

func (in Input) raw() model.RawAssessmentInput {
	return model.RawAssessmentInput{
		AgeYears:    in.AgeYears,
		HeightCm:    in.HeightCm,
		WeightKg:    in.WeightKg,
		Systolic:    in.Systolic,
		Diastolic:   in.Diastolic,
		Sex:         model.Sex(in.Sex),
		Smoke:       model.Flag(in.Smoke),
		Alcohol:     model.Flag(in.Alcohol),
		Active:      model.Flag(in.Active),
		Cholesterol: model.Level(in.Cholesterol),
		Glucose:     model.Level(in.Glucose),
	}
}

// Risk holds the rule-based sub-scores.
type Risk struct {
	BMI           float64 `json:"bmi"`
	BMICategory   string  `json:"bmi_category"`
	BPCategory    string  `json:"bp_category"`
	LifestyleRisk int     `json:"lifestyle_risk"` // of 3
	MedicalRisk   int     `json:"medical_risk"`   // of 3
	TotalRisk     int     `json:"total_risk"`     // of 6
}

// Result is a completed assessment. It is the stable public form of the
// internal result type.
type Result struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Probability    float64   `json:"probability"` // positive-class probability in [0,1]
	Label          int       `json:"label"`       // 1 when Probability >= 0.5
	RiskLevel      string    `json:"risk_level"`  // HIGH RISK or LOW RISK
	Recommendation string    `json:"recommendation"`
	Risk           Risk      `json:"risk"`

	raw model.PredictionResult
}

// Report renders the plain-text health report.
func (r Result) Report() string { return report.Render(r.raw) }

func resultFrom(r model.PredictionResult) Result {
	return Result{
		ID:             r.ID,
		CreatedAt:      r.CreatedAt,
		Probability:    r.Probability,
		Label:          r.Label,
		RiskLevel:      report.LevelText(r.Label),
		Recommendation: report.Recommendation(r.Label),
		Risk: Risk{
			BMI:           r.Risk.BMI,
			BMICategory:   string(r.Risk.BMICategory),
			BPCategory:    string(r.Risk.BPCategory),
			LifestyleRisk: r.Risk.LifestyleRisk,
			MedicalRisk:   r.Risk.MedicalRisk,
			TotalRisk:     r.Risk.TotalRisk,
		},
		raw: r,
	}
}

// Error types returned by Assess and Session.Submit. Match with errors.As.
type (
	InputError              = model.InputError
	UnknownCategoryError    = model.UnknownCategoryError
	SchemaMismatchError     = model.SchemaMismatchError
	FeatureVectorShapeError = model.FeatureVectorShapeError
	EvaluationError         = model.EvaluationError
)
