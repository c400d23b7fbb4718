// Package dataset reads labeled assessment records in the cardio_train
// layout: semicolon-separated, age stored in days, categorical fields as
// integer codes, and a cardio ground-truth column.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/crimson-sun/cardiocare/internal/model"
)

// DaysPerYear converts the stored age in days to years.
const DaysPerYear = 365.25

// Column names of the raw layout.
const (
	ColID          = "id"
	ColAge         = "age"
	ColGender      = "gender"
	ColHeight      = "height"
	ColWeight      = "weight"
	ColSystolic    = "ap_hi"
	ColDiastolic   = "ap_lo"
	ColCholesterol = "cholesterol"
	ColGlucose     = "gluc"
	ColSmoke       = "smoke"
	ColAlcohol     = "alco"
	ColActive      = "active"
	ColCardio      = "cardio"
)

// Required lists every column a dataset must carry. ColID is optional.
var Required = []string{
	ColAge, ColGender, ColHeight, ColWeight, ColSystolic, ColDiastolic,
	ColCholesterol, ColGlucose, ColSmoke, ColAlcohol, ColActive, ColCardio,
}

// Record is one labeled row, still in stored units and codes.
type Record struct {
	Line        int // 1-based line number in the source, header is line 1
	ID          int64
	AgeDays     float64
	Gender      int
	HeightCm    float64
	WeightKg    float64
	Systolic    float64
	Diastolic   float64
	Cholesterol int
	Glucose     int
	Smoke       int
	Alcohol     int
	Active      int
	Cardio      int
}

// AgeYears returns the age converted to (fractional) years.
func (r Record) AgeYears() float64 { return r.AgeDays / DaysPerYear }

// Code returns the stored integer code of a categorical raw column.
func (r Record) Code(col string) (int, bool) {
	switch col {
	case ColGender:
		return r.Gender, true
	case ColCholesterol:
		return r.Cholesterol, true
	case ColGlucose:
		return r.Glucose, true
	case ColSmoke:
		return r.Smoke, true
	case ColAlcohol:
		return r.Alcohol, true
	case ColActive:
		return r.Active, true
	}
	return 0, false
}

// Dataset is a named, fully parsed collection of records.
type Dataset struct {
	Name    string
	Records []Record
}

// Options controls parsing.
type Options struct {
	// Comma is the field separator. Zero means ';'.
	Comma rune
}

// Load reads the dataset file at path.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.EvaluationError{Dataset: path, Err: err}
	}
	defer f.Close()
	return Read(f, path, opts)
}

// Read parses a dataset from r. Every problem is a *model.EvaluationError
// naming the dataset and, where possible, the offending line.
func Read(r io.Reader, name string, opts Options) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	if cr.Comma == 0 {
		cr.Comma = ';'
	}
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("dataset is empty")
		}
		return nil, &model.EvaluationError{Dataset: name, Err: err}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.Trim(h, "\ufeff \""))] = i
	}
	var missing []string
	for _, c := range Required {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &model.EvaluationError{
			Dataset: name,
			Err:     fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")),
		}
	}

	ds := &Dataset{Name: name}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &model.EvaluationError{Dataset: name, Row: line, Err: err}
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, &model.EvaluationError{Dataset: name, Row: line, Err: err}
		}
		rec.Line = line
		ds.Records = append(ds.Records, rec)
	}
	if len(ds.Records) == 0 {
		return nil, &model.EvaluationError{Dataset: name, Err: errors.New("dataset has no rows")}
	}
	return ds, nil
}

func parseRow(row []string, cols map[string]int) (Record, error) {
	p := rowParser{row: row, cols: cols}
	rec := Record{
		AgeDays:     p.number(ColAge),
		Gender:      p.code(ColGender),
		HeightCm:    p.number(ColHeight),
		WeightKg:    p.number(ColWeight),
		Systolic:    p.number(ColSystolic),
		Diastolic:   p.number(ColDiastolic),
		Cholesterol: p.code(ColCholesterol),
		Glucose:     p.code(ColGlucose),
		Smoke:       p.code(ColSmoke),
		Alcohol:     p.code(ColAlcohol),
		Active:      p.code(ColActive),
		Cardio:      p.code(ColCardio),
	}
	if _, ok := cols[ColID]; ok {
		rec.ID = int64(p.code(ColID))
	}
	if p.err != nil {
		return Record{}, p.err
	}
	if rec.Cardio != 0 && rec.Cardio != 1 {
		return Record{}, fmt.Errorf("column %s: label %d is not 0 or 1", ColCardio, rec.Cardio)
	}
	return rec, nil
}

var errNotFinite = errors.New("value is not finite")

// rowParser keeps the first cell error so a row parses in one pass.
type rowParser struct {
	row  []string
	cols map[string]int
	err  error
}

func (p *rowParser) cell(col string) string {
	i := p.cols[col]
	if i >= len(p.row) {
		p.fail(col, "", errors.New("missing cell"))
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) number(col string) float64 {
	s := p.cell(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(col, s, err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.fail(col, s, errNotFinite)
		return 0
	}
	return v
}

func (p *rowParser) code(col string) int {
	s := p.cell(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Some exports write whole codes as floats ("1.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsInf(f, 0) || f != float64(int(f)) {
			p.fail(col, s, err)
			return 0
		}
		v = int(f)
	}
	return v
}

func (p *rowParser) fail(col, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %s: cannot parse %q: %w", col, value, err)
	}
}
