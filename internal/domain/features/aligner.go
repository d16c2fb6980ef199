package features

// Align returns a row holding exactly the expected columns in the expected
// order. Missing columns are zero, columns not in expected are dropped.
// Aligning an aligned row against the same columns returns an equal row.
func Align(row Row, expected []string) Row {
	index := make(map[string]float64, len(row.Names))
	for i, n := range row.Names {
		index[n] = row.Values[i]
	}
	out := Row{
		Names:  make([]string, len(expected)),
		Values: make([]float64, len(expected)),
	}
	copy(out.Names, expected)
	for i, name := range expected {
		out.Values[i] = index[name]
	}
	return out
}

// Matrix stacks aligned rows into the dense form a model scores.
func Matrix(rows []Row) [][]float64 {
	m := make([][]float64, len(rows))
	for i, r := range rows {
		m[i] = r.Values
	}
	return m
}
