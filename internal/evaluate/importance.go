package evaluate

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Scorer is the slice of model behavior the evaluator needs
type Scorer interface {
	Predict(X *mat.Dense) []bool
	Score(X *mat.Dense) []float64
}

// FeatureImportance pairs a design-matrix feature with its importance
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// PermutationImportance measures each feature by the AUC lost when its
// column is shuffled, then ranks features by that loss. The same seed
// always produces the same ranking.
func PermutationImportance(model Scorer, X *mat.Dense, truth []bool, features []string, seed int64) ([]FeatureImportance, error) {
	rows, cols := X.Dims()
	if cols != len(features) {
		return nil, fmt.Errorf("evaluate: %d features named for %d columns", len(features), cols)
	}

	baseline, err := ROCAUC(model.Score(X), truth)
	if err != nil {
		return nil, fmt.Errorf("evaluate: baseline score: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]FeatureImportance, len(features))
	column := make([]float64, rows)
	for j, name := range features {
		permuted := mat.DenseCopyOf(X)
		mat.Col(column, j, X)
		rng.Shuffle(rows, func(a, b int) {
			column[a], column[b] = column[b], column[a]
		})
		permuted.SetCol(j, column)

		auc, err := ROCAUC(model.Score(permuted), truth)
		if err != nil {
			return nil, fmt.Errorf("evaluate: permuted score for %q: %w", name, err)
		}
		out[j] = FeatureImportance{Feature: name, Importance: baseline - auc}
	}

	// Stable sort keeps the original feature order on ties
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Importance > out[b].Importance
	})
	return out, nil
}
