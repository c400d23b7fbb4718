package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/crimson-sun/cardiocare/internal/model"
)

const sample = `id;age;gender;height;weight;ap_hi;ap_lo;cholesterol;gluc;smoke;alco;active;cardio
0;18393;2;168;62.0;110;80;1;1;0;0;1;0
1;20228;1;156;85.0;140;90;3;1;0;0;1;1
2;18857;1;165;64.0;130;70;3;1;0;0;0;1
`

func TestReadSample(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), "sample", Options{})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(ds.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(ds.Records))
	}

	r := ds.Records[1]
	if r.ID != 1 || r.Gender != 1 || r.Cholesterol != 3 || r.Cardio != 1 || r.Line != 3 {
		t.Errorf("record = %+v", r)
	}
	if r.WeightKg != 85 || r.Systolic != 140 || r.Diastolic != 90 {
		t.Errorf("numerics = %v %v %v", r.WeightKg, r.Systolic, r.Diastolic)
	}
	if math.Abs(r.AgeYears()-20228/365.25) > 1e-12 {
		t.Errorf("AgeYears = %v", r.AgeYears())
	}
	if c, ok := r.Code(ColCholesterol); !ok || c != 3 {
		t.Errorf("Code(cholesterol) = %d, %v", c, ok)
	}
}

func TestReadCommaSeparatedAndCodesAsFloats(t *testing.T) {
	doc := "age,gender,height,weight,ap_hi,ap_lo,cholesterol,gluc,smoke,alco,active,cardio\n" +
		"21900,2.0,170,80,120,80,1.0,1,0,0,1,0\n"
	ds, err := Read(strings.NewReader(doc), "csv", Options{Comma: ','})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if ds.Records[0].Gender != 2 || ds.Records[0].ID != 0 {
		t.Errorf("record = %+v", ds.Records[0])
	}
}

func TestReadFailures(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantRow int
		want    string
	}{
		{"empty", "", 0, "empty"},
		{"missing columns", "id;age;gender\n1;2;3\n", 0, "missing columns: height"},
		{"header only", strings.SplitN(sample, "\n", 2)[0] + "\n", 0, "no rows"},
		{"bad number", strings.Replace(sample, "62.0", "sixty", 1), 2, "weight"},
		{"NaN height", strings.Replace(sample, ";168;", ";NaN;", 1), 2, "height"},
		{"infinite pressure", strings.Replace(sample, ";140;90;", ";+Inf;90;", 1), 3, "not finite"},
		{"infinite code", strings.Replace(sample, ";3;1;0;0;0;1", ";Inf;1;0;0;0;1", 1), 4, "cholesterol"},
		{"fractional code", strings.Replace(sample, ";3;1;0;0;1;1", ";2.5;1;0;0;1;1", 1), 3, "cholesterol"},
		{"bad label", strings.Replace(sample, ";0;0;0;1\n", ";0;0;0;7\n", 1), 4, "cardio"},
		{"short row", sample + "3;18000;1\n", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc), "ds.csv", Options{})
			var ee *model.EvaluationError
			if !errors.As(err, &ee) {
				t.Fatalf("error = %v, want EvaluationError", err)
			}
			if ee.Dataset != "ds.csv" || ee.Row != tt.wantRow {
				t.Errorf("EvaluationError = %+v, want row %d", ee, tt.wantRow)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does/not/exist.csv", Options{})
	var ee *model.EvaluationError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want EvaluationError", err)
	}
}
