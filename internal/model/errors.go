package model

import "fmt"

// UnknownCategoryError indicates a categorical input value that is not a key
// of its mapping table. It is user-correctable.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s category %q", e.Field, e.Value)
}

// SchemaMismatchError indicates the encoder, scaler or classifier disagrees
// with the feature schema. It means a corrupted or mismatched artifact.
type SchemaMismatchError struct {
	Field  string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Field == "" {
		return "schema mismatch: " + e.Reason
	}
	return fmt.Sprintf("schema mismatch on %q: %s", e.Field, e.Reason)
}

// FeatureVectorShapeError is raised by the pre-classifier check when a row's
// width or column order differs from the schema.
type FeatureVectorShapeError struct {
	Row    int
	Want   int
	Got    int
	Reason string
}

func (e *FeatureVectorShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("feature vector shape: row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("feature vector shape: row %d has %d columns, want %d", e.Row, e.Got, e.Want)
}

// EvaluationError reports a dataset that cannot be evaluated: missing
// columns, unparseable cells or codes outside the mapping tables.
type EvaluationError struct {
	Dataset string
	Row     int // 0 when the problem is not tied to a row
	Err     error
}

func (e *EvaluationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("evaluation of %s failed at row %d: %v", e.Dataset, e.Row, e.Err)
	}
	return fmt.Sprintf("evaluation of %s failed: %v", e.Dataset, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
