package model

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their wire names so messages match what callers sent.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// InputError reports raw input values outside their plausible clinical range.
type InputError struct {
	Violations []string
}

func (e *InputError) Error() string {
	return "invalid input: " + strings.Join(e.Violations, "; ")
}

// ValidateInput checks the plausible-range constraints on a raw input.
// Categorical labels are only checked for presence; membership in the
// mapping tables is the encoder's job.
func ValidateInput(in RawAssessmentInput) error {
	err := inputValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("model: validate input: %w", err)
	}
	out := &InputError{Violations: make([]string, 0, len(verrs))}
	for _, fe := range verrs {
		out.Violations = append(out.Violations, describe(fe))
	}
	return out
}

// ValidateFormInput is ValidateInput for interactive submissions, which also
// require age as a whole number of years. Dataset-derived ages are
// fractional and go through ValidateInput alone.
func ValidateFormInput(in RawAssessmentInput) error {
	err := ValidateInput(in)
	if in.AgeYears == math.Trunc(in.AgeYears) {
		return err
	}
	v := fmt.Sprintf("%s must be a whole number of years (got %v)", FieldAge, in.AgeYears)
	var ie *InputError
	if errors.As(err, &ie) {
		ie.Violations = append(ie.Violations, v)
		return ie
	}
	if err != nil {
		return err
	}
	return &InputError{Violations: []string{v}}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
