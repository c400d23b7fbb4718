package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/cardiocare/internal/dataset"
	"github.com/crimson-sun/cardiocare/internal/engine"
	_ "github.com/crimson-sun/cardiocare/internal/engine/classifier/forest"
	"github.com/crimson-sun/cardiocare/internal/engine/encoder"
	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/engine/testdata"
	"github.com/crimson-sun/cardiocare/internal/metrics"
	"github.com/crimson-sun/cardiocare/internal/model"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Load(engine.Artifacts{
		SchemaPath: "../../models/schema.yaml",
		ScalerPath: "../../models/scaler.yaml",
		ModelPath:  "../../models/rf_model.json",
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func sample(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := testdata.SampleDataset()
	require.NoError(t, err)
	return ds
}

func TestEvaluateMatchesRowByRowAssessment(t *testing.T) {
	e := newEngine(t)
	ds := sample(t)

	rep, err := New(e).Evaluate(context.Background(), ds, Options{Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, len(ds.Records), rep.Rows)
	assert.Equal(t, rep.Rows, rep.Confusion.Total())

	var want Confusion
	dec := NewDecoder(e.Schema(), nil)
	for _, rec := range ds.Records {
		in, err := dec.Decode(rec)
		require.NoError(t, err)
		res, err := e.Assess(in)
		require.NoError(t, err)
		want.Add(rec.Cardio, res.Label)
	}
	assert.Equal(t, want, rep.Confusion)
}

func TestEvaluateWorkerCountDoesNotChangeResult(t *testing.T) {
	e := newEngine(t)
	ds := sample(t)
	ev := New(e)

	one, err := ev.Evaluate(context.Background(), ds, Options{Workers: 1})
	require.NoError(t, err)
	many, err := ev.Evaluate(context.Background(), ds, Options{Workers: 7})
	require.NoError(t, err)
	assert.Equal(t, one.Confusion, many.Confusion)
}

func TestBatchEncodingEqualsInteractiveEncoding(t *testing.T) {
	s := schema.Default()
	rec := dataset.Record{
		AgeDays: 20228, Gender: 1, HeightCm: 156, WeightKg: 85, Systolic: 140, Diastolic: 90,
		Cholesterol: 3, Glucose: 1, Smoke: 0, Alcohol: 0, Active: 1, Cardio: 1,
	}
	in, err := NewDecoder(s, nil).Decode(rec)
	require.NoError(t, err)

	interactive := model.RawAssessmentInput{
		AgeYears:    20228 / 365.25,
		HeightCm:    156,
		WeightKg:    85,
		Systolic:    140,
		Diastolic:   90,
		Sex:         model.Female,
		Smoke:       model.No,
		Alcohol:     model.No,
		Active:      model.Yes,
		Cholesterol: model.LevelWellAbove,
		Glucose:     model.LevelNormal,
	}
	enc := encoder.New(s)
	a, err := enc.Encode(in)
	require.NoError(t, err)
	b, err := enc.Encode(interactive)
	require.NoError(t, err)
	for i := range a {
		assert.Equal(t, math.Float64bits(b[i]), math.Float64bits(a[i]), "column %d", i)
	}
}

func TestEvaluateOutOfRangeCode(t *testing.T) {
	e := newEngine(t)
	ds := sample(t)
	ds.Records[5].Cholesterol = 9

	reg := prometheus.NewRegistry()
	_, err := New(e, WithMetrics(metrics.New(reg))).Evaluate(context.Background(), ds, Options{})

	var ee *model.EvaluationError
	require.True(t, errors.As(err, &ee), "error = %v", err)
	assert.Equal(t, ds.Records[5].Line, ee.Row)
	assert.Contains(t, ee.Error(), "cholesterol")
}

func TestEvaluateUnknownGenderCode(t *testing.T) {
	e := newEngine(t)
	ds := sample(t)
	ds.Records[0].Gender = 3

	_, err := New(e).Evaluate(context.Background(), ds, Options{})
	var ee *model.EvaluationError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, ee.Error(), "gender")

	// A custom coding accepts it.
	_, err = New(e, WithSexCodes(map[int]model.Sex{1: model.Female, 2: model.Male, 3: model.Male})).
		Evaluate(context.Background(), ds, Options{})
	assert.NoError(t, err)
}

func TestEvaluateNonFiniteValueIsDatasetError(t *testing.T) {
	e := newEngine(t)
	ds := sample(t)
	ds.Records[3].HeightCm = math.NaN()

	_, err := New(e).Evaluate(context.Background(), ds, Options{Workers: 2})
	var ee *model.EvaluationError
	require.True(t, errors.As(err, &ee), "error = %v", err)
	assert.Equal(t, ds.Records[3].Line, ee.Row)
	assert.Contains(t, ee.Error(), "height")
	assert.False(t, engine.Fatal(err), "bad dataset cell classed as artifact error")

	ds.Records[3].HeightCm = 160
	ds.Records[7].Systolic = math.Inf(1)
	_, err = New(e).Evaluate(context.Background(), ds, Options{})
	require.True(t, errors.As(err, &ee), "error = %v", err)
	assert.Equal(t, ds.Records[7].Line, ee.Row)
	assert.False(t, engine.Fatal(err))
}

// shapeFailing passes everything through except PredictProba, which
// rejects the second row of every batch.
type shapeFailing struct {
	*engine.Engine
}

func (shapeFailing) PredictProba(rows []model.Vector) ([]float64, error) {
	return nil, &model.FeatureVectorShapeError{Row: 1, Want: 12, Got: 11}
}

func TestEvaluateShapeErrorReportsDatasetLine(t *testing.T) {
	ds := sample(t)
	_, err := New(shapeFailing{newEngine(t)}).Evaluate(context.Background(), ds, Options{Workers: 1})

	var shape *model.FeatureVectorShapeError
	require.True(t, errors.As(err, &shape), "error = %v", err)
	assert.Equal(t, ds.Records[1].Line, shape.Row)
	assert.True(t, engine.Fatal(err))
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(newEngine(t)).Evaluate(ctx, sample(t), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateImportanceRanking(t *testing.T) {
	rep, err := New(newEngine(t)).Evaluate(context.Background(), sample(t), Options{})
	require.NoError(t, err)
	require.Len(t, rep.Importances, 12)
	assert.Equal(t, "ap_hi", rep.Importances[0].Feature)
	assert.Equal(t, "age_years", rep.Importances[1].Feature)
	for i := 1; i < len(rep.Importances); i++ {
		assert.GreaterOrEqual(t, rep.Importances[i-1].Weight, rep.Importances[i].Weight)
	}
}

func TestRankImportancesWithoutWeights(t *testing.T) {
	assert.Nil(t, RankImportances(schema.Default(), nil))
	assert.Nil(t, RankImportances(schema.Default(), []float64{1, 2}))

	s := schema.Default()
	imp := make([]float64, s.Len())
	ranked := RankImportances(s, imp)
	require.Len(t, ranked, s.Len())
	assert.Equal(t, s.Features()[0], ranked[0].Feature, "ties keep schema order")
}

func TestSampleIsDeterministic(t *testing.T) {
	ds := sample(t)
	a := Sample(ds.Records, 10, 42)
	b := Sample(ds.Records, 10, 42)
	c := Sample(ds.Records, 10, 43)
	require.Len(t, a, 10)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	seen := map[int]bool{}
	for _, r := range a {
		assert.False(t, seen[r.Line], "line %d sampled twice", r.Line)
		seen[r.Line] = true
	}
	assert.Len(t, Sample(ds.Records, 0, 42), len(ds.Records))
	assert.Len(t, Sample(ds.Records, 1000, 42), len(ds.Records))
}

func TestEvaluateWithSample(t *testing.T) {
	rep, err := New(newEngine(t)).Evaluate(context.Background(), sample(t), Options{SampleSize: 20, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 20, rep.Rows)
	assert.Equal(t, 20, rep.Confusion.Total())
}

func TestConfusionScores(t *testing.T) {
	c := Confusion{TN: 50, FP: 10, FN: 5, TP: 35}
	assert.InDelta(t, 0.85, c.Accuracy(), 1e-12)
	assert.InDelta(t, 35.0/45, c.Precision(), 1e-12)
	assert.InDelta(t, 35.0/40, c.Recall(), 1e-12)
	p, r := 35.0/45, 35.0/40
	assert.InDelta(t, 2*p*r/(p+r), c.F1(), 1e-12)

	var empty Confusion
	assert.Zero(t, empty.Accuracy())
	assert.Zero(t, empty.F1())
}

func TestConfusionAdd(t *testing.T) {
	var c Confusion
	c.Add(0, 0)
	c.Add(0, 1)
	c.Add(1, 0)
	c.Add(1, 1)
	c.Add(1, 1)
	assert.Equal(t, Confusion{TN: 1, FP: 1, FN: 1, TP: 2}, c)
}

func TestCorrelate(t *testing.T) {
	ds := sample(t)
	m := Correlate(ds.Records)
	require.Len(t, m.Values, len(CorrelationColumns))

	for i := range m.Columns {
		assert.InDelta(t, 1, m.Values[i][i], 1e-9, "diagonal %s", m.Columns[i])
		for j := range m.Columns {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
		}
	}
	r, ok := m.At(dataset.ColSystolic, dataset.ColCardio)
	require.True(t, ok)
	assert.True(t, r >= -1 && r <= 1)
}

func TestCorrelateConstantColumnIsNull(t *testing.T) {
	recs := []dataset.Record{
		{AgeDays: 20000, Gender: 1, HeightCm: 160, WeightKg: 60, Cardio: 0},
		{AgeDays: 21000, Gender: 1, HeightCm: 170, WeightKg: 70, Cardio: 1},
		{AgeDays: 22000, Gender: 1, HeightCm: 180, WeightKg: 80, Cardio: 1},
	}
	m := Correlate(recs)
	hw, _ := m.At(dataset.ColHeight, dataset.ColWeight)
	assert.InDelta(t, 1, hw, 1e-12)
	g, _ := m.At(dataset.ColGender, dataset.ColHeight)
	assert.True(t, math.IsNaN(g))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "null"))
}

func TestReportJSON(t *testing.T) {
	rep, err := New(newEngine(t)).Evaluate(context.Background(), sample(t), Options{Correlations: true})
	require.NoError(t, err)
	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"confusion"`)
	assert.Contains(t, string(data), `"correlations"`)
}
