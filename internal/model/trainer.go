package model

import (
	"gonum.org/v1/gonum/mat"
)

// Params is one hyperparameter configuration. Grid order is carried by
// the slice a configuration lives in, never by map iteration.
type Params map[string]float64

// Classifier is a fitted model bound to one preprocessing recipe
type Classifier interface {
	// Predict returns class labels for each row of X
	Predict(X *mat.Dense) []bool
	// Score returns a value per row where larger means more likely positive
	Score(X *mat.Dense) []float64
}

// FitFunc trains a classifier on X and y with one configuration
type FitFunc func(X *mat.Dense, y []bool, p Params) (Classifier, error)

// SubsetRows copies the given rows of X into a new matrix
func SubsetRows(X *mat.Dense, rows []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		out.SetRow(i, X.RawRowView(row))
	}
	return out
}

// SubsetLabels copies the given entries of y into a new slice
func SubsetLabels(y []bool, rows []int) []bool {
	out := make([]bool, len(rows))
	for i, row := range rows {
		out[i] = y[row]
	}
	return out
}

func countPositives(y []bool) int {
	n := 0
	for _, v := range y {
		if v {
			n++
		}
	}
	return n
}
