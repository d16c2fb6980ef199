package features

// Row is a named numeric feature vector. Names and Values have equal length.
type Row struct {
	Names  []string
	Values []float64
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.Names) }

// Value returns the value of the named column.
func (r Row) Value(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}
