package schema

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeLabel canonicalises a categorical label for lookup: NFKC, case
// folding, surrounding whitespace trimmed. A Caser is stateful, so each call
// gets its own.
func normalizeLabel(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

// Mapping is the closed label → integer code table of one categorical field.
type Mapping struct {
	codes  map[string]int // normalised label → code
	labels map[int]string // code → label as declared
	order  []string       // declared labels, sorted by code
}

// NewMapping builds a Mapping. Labels that collide after normalisation or
// share a code are rejected.
func NewMapping(table map[string]int) (Mapping, error) {
	m := Mapping{
		codes:  make(map[string]int, len(table)),
		labels: make(map[int]string, len(table)),
	}
	for label, code := range table {
		key := normalizeLabel(label)
		if key == "" {
			return Mapping{}, fmt.Errorf("empty label")
		}
		if _, dup := m.codes[key]; dup {
			return Mapping{}, fmt.Errorf("label %q collides with another label", label)
		}
		if prev, dup := m.labels[code]; dup {
			return Mapping{}, fmt.Errorf("labels %q and %q share code %d", prev, label, code)
		}
		m.codes[key] = code
		m.labels[code] = label
		m.order = append(m.order, label)
	}
	sort.Slice(m.order, func(i, j int) bool { return table[m.order[i]] < table[m.order[j]] })
	return m, nil
}

// Code returns the integer code of label.
func (m Mapping) Code(label string) (int, bool) {
	c, ok := m.codes[normalizeLabel(label)]
	return c, ok
}

// Label returns the declared label for code.
func (m Mapping) Label(code int) (string, bool) {
	l, ok := m.labels[code]
	return l, ok
}

// Labels returns the declared labels ordered by code.
func (m Mapping) Labels() []string {
	return append([]string(nil), m.order...)
}

// Lowest returns the label with the smallest code.
func (m Mapping) Lowest() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[0]
}

// Len returns the number of labels.
func (m Mapping) Len() int { return len(m.codes) }

// OneHot is the two-column expansion of the binary sex attribute.
type OneHot struct {
	columns [2]string
	rows    map[string][2]float64 // normalised label → values for columns
	labels  []string
}

func newOneHot(table map[string]map[string]int) (OneHot, error) {
	if len(table) != 2 {
		return OneHot{}, fmt.Errorf("one-hot table needs exactly 2 labels, got %d", len(table))
	}
	labels := make([]string, 0, 2)
	for l := range table {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var columns []string
	for c := range table[labels[0]] {
		columns = append(columns, c)
	}
	if len(columns) != 2 {
		return OneHot{}, fmt.Errorf("label %q maps %d columns, want 2", labels[0], len(columns))
	}
	sort.Strings(columns)

	oh := OneHot{columns: [2]string{columns[0], columns[1]}, rows: make(map[string][2]float64, 2), labels: labels}
	seen := map[[2]float64]bool{}
	for _, l := range labels {
		cols := table[l]
		if len(cols) != 2 {
			return OneHot{}, fmt.Errorf("label %q maps %d columns, want 2", l, len(cols))
		}
		var row [2]float64
		for i, c := range oh.columns {
			v, ok := cols[c]
			if !ok {
				return OneHot{}, fmt.Errorf("label %q is missing column %q", l, c)
			}
			if v != 0 && v != 1 {
				return OneHot{}, fmt.Errorf("label %q column %q = %d, want 0 or 1", l, c, v)
			}
			row[i] = float64(v)
		}
		if row[0]+row[1] != 1 {
			return OneHot{}, fmt.Errorf("label %q is not one-hot", l)
		}
		if seen[row] {
			return OneHot{}, fmt.Errorf("labels share the same encoding")
		}
		seen[row] = true
		key := normalizeLabel(l)
		if _, dup := oh.rows[key]; dup {
			return OneHot{}, fmt.Errorf("label %q collides with another label", l)
		}
		oh.rows[key] = row
	}
	return oh, nil
}

// Columns returns the two feature names the attribute expands into.
func (o OneHot) Columns() [2]string { return o.columns }

// Encode returns the values for Columns() for the given label.
func (o OneHot) Encode(label string) ([2]float64, bool) {
	row, ok := o.rows[normalizeLabel(label)]
	return row, ok
}

// Labels returns the declared labels in sorted order.
func (o OneHot) Labels() []string {
	return append([]string(nil), o.labels...)
}
