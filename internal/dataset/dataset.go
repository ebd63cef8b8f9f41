package dataset

// Dataset is a column-oriented view of one season of player statistics.
// The loader mutates it during cleaning; every later stage treats it as
// read-only.
type Dataset struct {
	// Players holds the identifier column, kept for traceability only.
	// It is never part of the feature set.
	Players []string

	// TopTens is the raw season count of top-10 finishes.
	TopTens []float64

	// Target is the derived label: true when TopTens > 0.
	Target []bool

	numericOrder     []string
	numeric          map[string][]float64
	categoricalOrder []string
	categorical      map[string][]string
}

// Len returns the number of player records
func (d *Dataset) Len() int {
	return len(d.Players)
}

// NumericColumns returns the predictor column names in load order
func (d *Dataset) NumericColumns() []string {
	out := make([]string, len(d.numericOrder))
	copy(out, d.numericOrder)
	return out
}

// CategoricalColumns returns the categorical column names in load order
func (d *Dataset) CategoricalColumns() []string {
	out := make([]string, len(d.categoricalOrder))
	copy(out, d.categoricalOrder)
	return out
}

// Numeric returns the values of a numeric column. Callers must not
// modify the returned slice.
func (d *Dataset) Numeric(name string) ([]float64, bool) {
	col, ok := d.numeric[name]
	return col, ok
}

// Categorical returns the values of a categorical column. Callers must
// not modify the returned slice.
func (d *Dataset) Categorical(name string) ([]string, bool) {
	col, ok := d.categorical[name]
	return col, ok
}

// HasColumn reports whether name is a known predictor column
func (d *Dataset) HasColumn(name string) bool {
	if _, ok := d.numeric[name]; ok {
		return true
	}
	_, ok := d.categorical[name]
	return ok
}

// TargetFloats returns the label coded as 0/1 for correlation work
func (d *Dataset) TargetFloats() []float64 {
	coded := make([]float64, len(d.Target))
	for i, v := range d.Target {
		if v {
			coded[i] = 1
		}
	}
	return coded
}
