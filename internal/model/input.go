package model

// Sex is the binary sex attribute collected by the assessment form.
type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
)

// Level is the three-step scale used for cholesterol and glucose.
type Level string

const (
	LevelNormal      Level = "normal"
	LevelAboveNormal Level = "above_normal"
	LevelWellAbove   Level = "well_above"
)

// Flag is a yes/no lifestyle answer.
type Flag string

const (
	No  Flag = "no"
	Yes Flag = "yes"
)

// Field names shared by the raw input, the mapping tables and the feature schema.
const (
	FieldHeight      = "height"
	FieldWeight      = "weight"
	FieldSystolic    = "ap_hi"
	FieldDiastolic   = "ap_lo"
	FieldAge         = "age_years"
	FieldCholesterol = "cholesterol"
	FieldGlucose     = "gluc"
	FieldSmoke       = "smoke"
	FieldAlcohol     = "alco"
	FieldActive      = "active"
	FieldSex         = "gender"
)

// NumericFields lists the raw numeric inputs in the order the scaler was fitted.
var NumericFields = []string{FieldHeight, FieldWeight, FieldSystolic, FieldDiastolic, FieldAge}

// CategoricalFields lists the fields encoded through a single-column mapping table.
var CategoricalFields = []string{FieldCholesterol, FieldGlucose, FieldSmoke, FieldAlcohol, FieldActive}

// RawAssessmentInput is one person's submitted values.
//
// AgeYears is whole years on the interactive path and fractional when derived
// from a dataset that stores age in days. Range tags mirror the form bounds;
// they are checked by ValidateInput at the boundary, never by the encoder.
type RawAssessmentInput struct {
	AgeYears    float64 `json:"age_years" validate:"gte=18,lte=100"`
	HeightCm    float64 `json:"height" validate:"gte=120,lte=220"`
	WeightKg    float64 `json:"weight" validate:"gte=30,lte=200"`
	Systolic    float64 `json:"ap_hi" validate:"gte=80,lte=250"`
	Diastolic   float64 `json:"ap_lo" validate:"gte=40,lte=150"`
	Sex         Sex     `json:"gender" validate:"required"`
	Smoke       Flag    `json:"smoke" validate:"required"`
	Alcohol     Flag    `json:"alco" validate:"required"`
	Active      Flag    `json:"active" validate:"required"`
	Cholesterol Level   `json:"cholesterol" validate:"required"`
	Glucose     Level   `json:"gluc" validate:"required"`
}

// Numeric returns the raw numeric value for one of NumericFields.
func (in RawAssessmentInput) Numeric(field string) (float64, bool) {
	switch field {
	case FieldHeight:
		return in.HeightCm, true
	case FieldWeight:
		return in.WeightKg, true
	case FieldSystolic:
		return in.Systolic, true
	case FieldDiastolic:
		return in.Diastolic, true
	case FieldAge:
		return in.AgeYears, true
	}
	return 0, false
}

// Categorical returns the raw label for one of CategoricalFields or FieldSex.
func (in RawAssessmentInput) Categorical(field string) (string, bool) {
	switch field {
	case FieldCholesterol:
		return string(in.Cholesterol), true
	case FieldGlucose:
		return string(in.Glucose), true
	case FieldSmoke:
		return string(in.Smoke), true
	case FieldAlcohol:
		return string(in.Alcohol), true
	case FieldActive:
		return string(in.Active), true
	case FieldSex:
		return string(in.Sex), true
	}
	return "", false
}
