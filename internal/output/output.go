package output

import (
	"context"
	"fmt"
	"time"

	"github.com/crimson-sun/cardiocare/internal/engine/report"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Output is a destination for completed assessments.
type Output interface {
	Write(ctx context.Context, result model.PredictionResult) error
	Close() error
}

// Detail selects how much of a result a sink records.
type Detail int

const (
	// Summary omits the submitted input values.
	Summary Detail = iota
	// Full echoes the submitted input alongside the result.
	Full
)

// ParseDetail maps "summary" or "full" onto a Detail.
func ParseDetail(s string) (Detail, error) {
	switch s {
	case "", "summary":
		return Summary, nil
	case "full":
		return Full, nil
	}
	return Summary, fmt.Errorf("output: unknown detail %q (want summary or full)", s)
}

// Record is the serialised form of one assessment.
type Record struct {
	ID          string                    `json:"id"`
	CreatedAt   time.Time                 `json:"created_at"`
	Probability float64                   `json:"probability"`
	Label       int                       `json:"label"`
	RiskLevel   string                    `json:"risk_level"`
	Risk        model.RiskProfile         `json:"risk"`
	Input       *model.RawAssessmentInput `json:"input,omitempty"`
}

// NewRecord converts a result at the given detail level.
func NewRecord(r model.PredictionResult, d Detail) Record {
	rec := Record{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		Probability: r.Probability,
		Label:       r.Label,
		RiskLevel:   report.LevelText(r.Label),
		Risk:        r.Risk,
	}
	if d == Full {
		in := r.Input
		rec.Input = &in
	}
	return rec
}
