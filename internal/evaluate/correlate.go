package evaluate

import (
	"encoding/json"
	"math"

	"github.com/crimson-sun/cardiocare/internal/dataset"
)

// CorrelationColumns are the raw columns Correlate reports on, age in years.
var CorrelationColumns = []string{
	"age_years", dataset.ColGender, dataset.ColHeight, dataset.ColWeight,
	dataset.ColSystolic, dataset.ColDiastolic, dataset.ColCholesterol,
	dataset.ColGlucose, dataset.ColSmoke, dataset.ColAlcohol, dataset.ColActive,
	dataset.ColCardio,
}

// Matrix is a symmetric Pearson correlation matrix. Entries involving a
// constant column are NaN and encode as JSON null.
type Matrix struct {
	Columns []string
	Values  [][]float64
}

// MarshalJSON writes NaN entries as null.
func (m Matrix) MarshalJSON() ([]byte, error) {
	vals := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		vals[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				vals[i][j] = &row[j]
			}
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, vals})
}

// At returns the correlation between two named columns.
func (m Matrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func column(rec dataset.Record, name string) float64 {
	switch name {
	case "age_years":
		return rec.AgeYears()
	case dataset.ColHeight:
		return rec.HeightCm
	case dataset.ColWeight:
		return rec.WeightKg
	case dataset.ColSystolic:
		return rec.Systolic
	case dataset.ColDiastolic:
		return rec.Diastolic
	case dataset.ColCardio:
		return float64(rec.Cardio)
	}
	c, _ := rec.Code(name)
	return float64(c)
}

// Correlate computes pairwise Pearson coefficients over CorrelationColumns.
func Correlate(records []dataset.Record) Matrix {
	k := len(CorrelationColumns)
	n := float64(len(records))

	data := make([][]float64, k)
	mean := make([]float64, k)
	for c, name := range CorrelationColumns {
		data[c] = make([]float64, len(records))
		for i, rec := range records {
			v := column(rec, name)
			data[c][i] = v
			mean[c] += v
		}
		mean[c] /= n
	}

	m := Matrix{Columns: append([]string(nil), CorrelationColumns...), Values: make([][]float64, k)}
	for a := range m.Values {
		m.Values[a] = make([]float64, k)
	}
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			var sab, saa, sbb float64
			for i := range records {
				da, db := data[a][i]-mean[a], data[b][i]-mean[b]
				sab += da * db
				saa += da * da
				sbb += db * db
			}
			r := math.NaN()
			if saa > 0 && sbb > 0 {
				r = sab / math.Sqrt(saa*sbb)
			}
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}
