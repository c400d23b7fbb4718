package schema

import "github.com/crimson-sun/cardiocare/internal/model"

// DefaultDefinition returns the layout of the cardio_train random forest:
// raw numerics, ordinal/binary codes, then the sex one-hot pair.
func DefaultDefinition() Definition {
	return Definition{
		Features: []string{
			model.FieldHeight,
			model.FieldWeight,
			model.FieldSystolic,
			model.FieldDiastolic,
			model.FieldCholesterol,
			model.FieldGlucose,
			model.FieldSmoke,
			model.FieldAlcohol,
			model.FieldActive,
			model.FieldAge,
			"gender_Female",
			"gender_Male",
		},
		Scaled: append([]string(nil), model.NumericFields...),
		Mappings: map[string]map[string]int{
			model.FieldCholesterol: {"normal": 1, "above_normal": 2, "well_above": 3},
			model.FieldGlucose:     {"normal": 1, "above_normal": 2, "well_above": 3},
			model.FieldSmoke:       {"no": 0, "yes": 1},
			model.FieldAlcohol:     {"no": 0, "yes": 1},
			model.FieldActive:      {"no": 0, "yes": 1},
		},
		Sex: map[string]map[string]int{
			"Male":   {"gender_Male": 1, "gender_Female": 0},
			"Female": {"gender_Male": 0, "gender_Female": 1},
		},
	}
}

// Default returns the schema built from DefaultDefinition.
func Default() *Schema {
	s, err := New(DefaultDefinition())
	if err != nil {
		panic("schema: default definition is invalid: " + err.Error())
	}
	return s
}
