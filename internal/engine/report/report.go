// Package report assembles prediction results and renders them as the
// downloadable plain-text health report.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/crimson-sun/cardiocare/internal/engine/classifier"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Filename is the suggested name for a downloaded report.
const Filename = "heart_health_report.txt"

// Recommendations, selected solely by the binary label.
const (
	RecommendHigh = "Consult a healthcare professional immediately"
	RecommendLow  = "Continue maintaining healthy lifestyle habits"
)

// Builder stamps results with an id and creation time. The zero value uses
// random UUIDs and the wall clock.
type Builder struct {
	Now   func() time.Time
	NewID func() string
}

// Build assembles an immutable result from the classifier probability and
// the risk profile of the same input.
func (b Builder) Build(p float64, in model.RawAssessmentInput, risk model.RiskProfile) model.PredictionResult {
	now, newID := b.Now, b.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return model.PredictionResult{
		ID:          newID(),
		CreatedAt:   now().UTC(),
		Probability: p,
		Label:       classifier.Label(p),
		Input:       in,
		Risk:        risk,
	}
}

// Recommendation returns the fixed advice string for a label.
func Recommendation(label int) string {
	if label == 1 {
		return RecommendHigh
	}
	return RecommendLow
}

// LevelText returns the risk level heading for a label.
func LevelText(label int) string {
	if label == 1 {
		return "HIGH RISK"
	}
	return "LOW RISK"
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"num":     formatNumber,
	"one":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"percent": func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" },
	"label":   displayLabel,
}).Parse(`HEART HEALTH REPORT
===================

Personal Information:
- Age: {{num .Input.AgeYears}} years
- Gender: {{label .Input.Sex}}
- Height: {{num .Input.HeightCm}} cm
- Weight: {{num .Input.WeightKg}} kg
- BMI: {{one .Risk.BMI}} ({{.Risk.BMICategory}})

Lifestyle Factors:
- Smoking: {{label .Input.Smoke}}
- Alcohol: {{label .Input.Alcohol}}
- Physical Activity: {{label .Input.Active}}

Medical Parameters:
- Blood Pressure: {{num .Input.Systolic}}/{{num .Input.Diastolic}} mmHg ({{.Risk.BPCategory}})
- Cholesterol: {{label .Input.Cholesterol}}
- Glucose: {{label .Input.Glucose}}

PREDICTION RESULTS:
- Risk Probability: {{percent .Probability}}
- Risk Level: {{.Level}}
- Total Risk Factors: {{.Risk.TotalRisk}}/6

Recommendations:
{{.Recommendation}}

Report generated by CardioCare AI
`))

// Render returns the deterministic text report for r. It depends on r alone.
func Render(r model.PredictionResult) string {
	var buf bytes.Buffer
	data := struct {
		model.PredictionResult
		Level          string
		Recommendation string
	}{r, LevelText(r.Label), Recommendation(r.Label)}
	if err := reportTmpl.Execute(&buf, data); err != nil {
		// The template is fixed and the data fully typed.
		panic(fmt.Sprintf("report: render: %v", err))
	}
	return buf.String()
}

// formatNumber prints whole values without a decimal point and keeps at
// most two decimals otherwise.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// displayLabel turns a wire label such as "above_normal" into "Above Normal".
func displayLabel(v any) string {
	words := strings.Fields(strings.ReplaceAll(fmt.Sprint(v), "_", " "))
	return cases.Title(language.English).String(strings.Join(words, " "))
}
