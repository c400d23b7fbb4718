package evaluate

import (
	"fmt"
	"math"

	"github.com/crimson-sun/cardiocare/internal/dataset"
	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// DefaultSexCodes is the cardio_train gender coding.
var DefaultSexCodes = map[int]model.Sex{1: model.Female, 2: model.Male}

// Decoder turns stored dataset codes back into the labels the interactive
// path submits, so both paths share one encoder.
type Decoder struct {
	schema   *schema.Schema
	sexCodes map[int]model.Sex
}

// NewDecoder returns a decoder over s. A nil sexCodes uses DefaultSexCodes.
func NewDecoder(s *schema.Schema, sexCodes map[int]model.Sex) *Decoder {
	if sexCodes == nil {
		sexCodes = DefaultSexCodes
	}
	return &Decoder{schema: s, sexCodes: sexCodes}
}

// Decode converts one record. Age is converted from days to years;
// non-finite numbers and codes absent from the schema's tables are errors.
func (d *Decoder) Decode(rec dataset.Record) (model.RawAssessmentInput, error) {
	in := model.RawAssessmentInput{
		AgeYears:  rec.AgeYears(),
		HeightCm:  rec.HeightCm,
		WeightKg:  rec.WeightKg,
		Systolic:  rec.Systolic,
		Diastolic: rec.Diastolic,
	}
	for _, f := range []struct {
		col string
		v   float64
	}{
		{dataset.ColAge, rec.AgeDays},
		{dataset.ColHeight, rec.HeightCm},
		{dataset.ColWeight, rec.WeightKg},
		{dataset.ColSystolic, rec.Systolic},
		{dataset.ColDiastolic, rec.Diastolic},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return model.RawAssessmentInput{}, fmt.Errorf("column %s: %v is not finite", f.col, f.v)
		}
	}

	sex, ok := d.sexCodes[rec.Gender]
	if !ok {
		return model.RawAssessmentInput{}, fmt.Errorf("column %s: code %d out of range", dataset.ColGender, rec.Gender)
	}
	if _, ok := d.schema.Sex().Encode(string(sex)); !ok {
		return model.RawAssessmentInput{}, fmt.Errorf("column %s: %q has no one-hot row", dataset.ColGender, sex)
	}
	in.Sex = sex

	label := func(col string) (string, error) {
		m, ok := d.schema.Mapping(col)
		if !ok {
			return "", fmt.Errorf("column %s: schema has no mapping table", col)
		}
		code, _ := rec.Code(col)
		l, ok := m.Label(code)
		if !ok {
			return "", fmt.Errorf("column %s: code %d out of range", col, code)
		}
		return l, nil
	}

	var err error
	var s string
	if s, err = label(dataset.ColCholesterol); err != nil {
		return model.RawAssessmentInput{}, err
	}
	in.Cholesterol = model.Level(s)
	if s, err = label(dataset.ColGlucose); err != nil {
		return model.RawAssessmentInput{}, err
	}
	in.Glucose = model.Level(s)
	if s, err = label(dataset.ColSmoke); err != nil {
		return model.RawAssessmentInput{}, err
	}
	in.Smoke = model.Flag(s)
	if s, err = label(dataset.ColAlcohol); err != nil {
		return model.RawAssessmentInput{}, err
	}
	in.Alcohol = model.Flag(s)
	if s, err = label(dataset.ColActive); err != nil {
		return model.RawAssessmentInput{}, err
	}
	in.Active = model.Flag(s)
	return in, nil
}
