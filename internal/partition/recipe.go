package partition

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/tour-analytics/internal/dataset"
)

// Recipe is a deterministic preprocessing transform: numeric predictors
// are centered and scaled, categorical predictors one-hot encoded. All
// parameters come from the rows passed to Fit, so fitting on training
// rows and baking the test rows cannot leak test information.
type Recipe struct {
	numericCols     []string
	categoricalCols []string

	means      map[string]float64
	stds       map[string]float64
	categories map[string][]string

	featureNames []string
	fitted       bool
}

// NewRecipe builds a recipe over the named predictor columns. The
// identifier column is never part of the predictor set.
func NewRecipe(ds *dataset.Dataset, predictors []string) (*Recipe, error) {
	r := &Recipe{
		means:      make(map[string]float64),
		stds:       make(map[string]float64),
		categories: make(map[string][]string),
	}
	for _, name := range predictors {
		if _, ok := ds.Numeric(name); ok {
			r.numericCols = append(r.numericCols, name)
			continue
		}
		if _, ok := ds.Categorical(name); ok {
			r.categoricalCols = append(r.categoricalCols, name)
			continue
		}
		return nil, fmt.Errorf("recipe: unknown predictor column %q", name)
	}
	return r, nil
}

// Fit derives standardization and encoding parameters from the given rows
func (r *Recipe) Fit(ds *dataset.Dataset, rows []int) error {
	if len(rows) == 0 {
		return fmt.Errorf("recipe: cannot fit on zero rows")
	}

	for _, name := range r.numericCols {
		col, _ := ds.Numeric(name)
		values := make([]float64, len(rows))
		for i, row := range rows {
			values[i] = col[row]
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 {
			// A constant column carries no signal; leave it centered only
			std = 1
		}
		r.means[name] = mean
		r.stds[name] = std
	}

	for _, name := range r.categoricalCols {
		col, _ := ds.Categorical(name)
		seen := make(map[string]bool)
		for _, row := range rows {
			seen[col[row]] = true
		}
		levels := make([]string, 0, len(seen))
		for level := range seen {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		r.categories[name] = levels
	}

	r.featureNames = r.featureNames[:0]
	r.featureNames = append(r.featureNames, r.numericCols...)
	for _, name := range r.categoricalCols {
		for _, level := range r.categories[name] {
			r.featureNames = append(r.featureNames, name+"_"+level)
		}
	}

	r.fitted = true
	return nil
}

// Bake applies the fitted transform to the given rows and returns the
// design matrix. Applying it twice to the same rows yields identical
// output. Categories unseen during Fit encode as all zeros.
func (r *Recipe) Bake(ds *dataset.Dataset, rows []int) (*mat.Dense, error) {
	if !r.fitted {
		return nil, fmt.Errorf("recipe: bake called before fit")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("recipe: cannot bake zero rows")
	}

	X := mat.NewDense(len(rows), len(r.featureNames), nil)
	for i, row := range rows {
		j := 0
		for _, name := range r.numericCols {
			col, _ := ds.Numeric(name)
			X.Set(i, j, (col[row]-r.means[name])/r.stds[name])
			j++
		}
		for _, name := range r.categoricalCols {
			col, _ := ds.Categorical(name)
			for _, level := range r.categories[name] {
				if col[row] == level {
					X.Set(i, j, 1)
				}
				j++
			}
		}
	}
	return X, nil
}

// FeatureNames returns the design-matrix column names in bake order
func (r *Recipe) FeatureNames() []string {
	out := make([]string, len(r.featureNames))
	copy(out, r.featureNames)
	return out
}
