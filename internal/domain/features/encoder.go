package features

import (
	"sort"

	"github.com/okian/attrition/internal/domain/employee"
)

// Encoder converts records to rows using a Schema. It is safe for
// concurrent use.
type Encoder struct {
	schema      *Schema
	identifiers map[string]struct{}
	binary      map[string]string
	numeric     map[string]struct{}
	categorical map[string]categoricalIndex
}

type categoricalIndex struct {
	reference string
	values    map[string]struct{}
}

// NewEncoder builds an Encoder for s.
func NewEncoder(s *Schema) *Encoder {
	e := &Encoder{
		schema:      s,
		identifiers: make(map[string]struct{}, len(s.Identifiers)),
		binary:      make(map[string]string, len(s.Binary)),
		numeric:     make(map[string]struct{}, len(s.Numeric)),
		categorical: make(map[string]categoricalIndex, len(s.Categorical)),
	}
	for _, id := range s.Identifiers {
		e.identifiers[id] = struct{}{}
	}
	for _, b := range s.Binary {
		e.binary[b.Field] = b.Positive
	}
	for _, n := range s.Numeric {
		e.numeric[n] = struct{}{}
	}
	for _, c := range s.Categorical {
		idx := categoricalIndex{reference: c.Reference, values: make(map[string]struct{}, len(c.Values))}
		for _, v := range c.Values {
			idx.values[v] = struct{}{}
		}
		e.categorical[c.Field] = idx
	}
	return e
}

// Schema returns the schema the encoder applies.
func (e *Encoder) Schema() *Schema { return e.schema }

// Encode returns the columns the record produces, sorted by name. The row is
// sparse: category indicators that are zero are omitted and left to Align.
// Encode never fails; values it cannot interpret produce no column.
func (e *Encoder) Encode(r employee.Record) Row {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := Row{Names: make([]string, 0, len(keys)), Values: make([]float64, 0, len(keys))}
	emit := func(name string, v float64) {
		row.Names = append(row.Names, name)
		row.Values = append(row.Values, v)
	}

	for _, k := range keys {
		if _, skip := e.identifiers[k]; skip {
			continue
		}
		if positive, ok := e.binary[k]; ok {
			s, _ := r.String(k)
			if normalizeToken(s) == positive {
				emit(k, 1)
			} else {
				emit(k, 0)
			}
			continue
		}
		if idx, ok := e.categorical[k]; ok {
			s, isString := r.String(k)
			if !isString {
				continue
			}
			s = normalizeToken(s)
			if _, known := idx.values[s]; known && s != idx.reference {
				emit(Indicator(k, s), 1)
			}
			continue
		}
		// declared numeric columns take numeric strings as numbers
		if _, ok := e.numeric[k]; ok {
			if f, ok := r.Float(k); ok {
				emit(k, f)
				continue
			}
		}
		switch v := r[k].(type) {
		case nil:
		case bool:
			if v {
				emit(k, 1)
			} else {
				emit(k, 0)
			}
		case string:
			emit(Indicator(k, normalizeToken(v)), 1)
		default:
			if f, ok := r.Float(k); ok {
				emit(k, f)
			}
		}
	}
	return row
}
