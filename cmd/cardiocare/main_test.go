package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/cardiocare/internal/engine/testdata"
	"github.com/crimson-sun/cardiocare/internal/evaluate"
	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
)

var artifactFlags = []string{
	"--schema", "../../models/schema.yaml",
	"--scaler", "../../models/scaler.yaml",
	"--model", "../../models/rf_model.json",
	"--log-level", "error",
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"CARDIO_OUTPUT", "CARDIO_WEBHOOK_URL", "CARDIO_IMPORTANCE_PATH", "CARDIO_MODEL_KIND"} {
		t.Setenv(key, "")
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(append([]string{}, artifactFlags...), args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAssessPrintsReport(t *testing.T) {
	out, err := run(t, "assess")
	require.NoError(t, err)
	assert.Contains(t, out, "LOW RISK")
	assert.Contains(t, out, "probability 25.0%")
	assert.Contains(t, out, "Continue maintaining healthy lifestyle habits")
}

func TestAssessJSON(t *testing.T) {
	out, err := run(t, "assess", "--json",
		"--age", "60", "--systolic", "150", "--diastolic", "95",
		"--smoke", "yes", "--cholesterol", "well_above", "--glucose", "above_normal")
	require.NoError(t, err)

	var res model.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, 1, res.Label)
	assert.Equal(t, 6, res.Risk.TotalRisk)
	assert.Equal(t, model.BPStage2, res.Risk.BPCategory)
}

func TestAssessRejectsOutOfRange(t *testing.T) {
	_, err := run(t, "assess", "--age", "12")
	var ie *model.InputError
	require.True(t, errors.As(err, &ie), "err = %v", err)
	assert.Contains(t, ie.Error(), "age_years")
}

func TestAssessRejectsFractionalAge(t *testing.T) {
	_, err := run(t, "assess", "--age", "45.5")
	var ie *model.InputError
	require.True(t, errors.As(err, &ie), "err = %v", err)
	assert.Contains(t, ie.Error(), "whole number")
}

func TestAssessUnknownCategory(t *testing.T) {
	_, err := run(t, "assess", "--glucose", "sky_high")
	var uc *model.UnknownCategoryError
	require.True(t, errors.As(err, &uc), "err = %v", err)
}

func TestAssessSaveAndRecord(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "heart_health_report.txt")
	records := filepath.Join(dir, "assessments.ndjson")

	_, err := run(t, "assess", "--save", report, "--output", "file", "--output-path", records, "--detail", "full")
	require.NoError(t, err)

	text, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(text), "- Risk Level: LOW RISK")

	data, err := os.ReadFile(records)
	require.NoError(t, err)
	var rec output.Record
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	require.NotNil(t, rec.Input)
	assert.Equal(t, 45.0, rec.Input.AgeYears)
}

func TestEvaluate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardio_train.csv")
	require.NoError(t, os.WriteFile(path, testdata.SampleCSV(), 0o644))

	out, err := run(t, "evaluate", path, "--sample", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "48 rows")
	assert.Contains(t, out, "accuracy")
	assert.Contains(t, out, "Feature importance")
	assert.True(t, strings.Index(out, "ap_hi") < strings.Index(out, "age_years"))
}

func TestEvaluateJSONWithCorrelations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardio_train.csv")
	require.NoError(t, os.WriteFile(path, testdata.SampleCSV(), 0o644))

	out, err := run(t, "evaluate", path, "--json", "--correlations", "--sample", "30", "--seed", "7")
	require.NoError(t, err)
	var rep struct {
		Rows      int                         `json:"rows"`
		Confusion evaluate.Confusion          `json:"confusion"`
		Corr      *struct{ Columns []string } `json:"correlations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	assert.Equal(t, 30, rep.Rows)
	assert.Equal(t, 30, rep.Confusion.Total())
	require.NotNil(t, rep.Corr)
	assert.Contains(t, rep.Corr.Columns, "cardio")
}

func TestEvaluateMissingDataset(t *testing.T) {
	_, err := run(t, "evaluate", filepath.Join(t.TempDir(), "missing.csv"))
	var ee *model.EvaluationError
	require.True(t, errors.As(err, &ee), "err = %v", err)
}

func TestInvalidConfigRejected(t *testing.T) {
	_, err := run(t, "assess", "--model", "/nonexistent/rf.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file not found")
}

func TestScoreFromFile(t *testing.T) {
	inputs := strings.Join([]string{
		`{"age_years":45,"height":165,"weight":70,"ap_hi":120,"ap_lo":80,"gender":"Female","smoke":"no","alco":"no","active":"yes","cholesterol":"normal","gluc":"normal"}`,
		`{"age_years":5,"height":165,"weight":70,"ap_hi":120,"ap_lo":80,"gender":"Female","smoke":"no","alco":"no","active":"yes","cholesterol":"normal","gluc":"normal"}`,
		`{"age_years":60,"height":165,"weight":70,"ap_hi":150,"ap_lo":95,"gender":"Female","smoke":"yes","alco":"no","active":"yes","cholesterol":"well_above","gluc":"above_normal"}`,
	}, "\n")
	path := filepath.Join(t.TempDir(), "inputs.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(inputs), 0o644))

	out, err := run(t, "score", path)
	require.NoError(t, err)
	assert.Contains(t, out, "scored 2, rejected 1 of 3 inputs")

	var labels []int
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var rec output.Record
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		assert.Nil(t, rec.Input, "summary detail omits the input")
		labels = append(labels, rec.Label)
	}
	assert.Equal(t, []int{0, 1}, labels)
}

func TestScoreMissingFile(t *testing.T) {
	_, err := run(t, "score", filepath.Join(t.TempDir(), "missing.ndjson"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open inputs")
}
