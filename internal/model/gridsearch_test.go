package model

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/tour-analytics/internal/partition"
)

// signClassifier predicts from the sign of the first column, optionally
// inverted, giving candidates of known quality.
type signClassifier struct {
	invert bool
}

func (c signClassifier) Predict(X *mat.Dense) []bool {
	n, _ := X.Dims()
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = (X.At(i, 0) > 0) != c.invert
	}
	return out
}

func (c signClassifier) Score(X *mat.Dense) []float64 {
	n, _ := X.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if c.invert {
			out[i] = -X.At(i, 0)
		} else {
			out[i] = X.At(i, 0)
		}
	}
	return out
}

func signFitFunc() FitFunc {
	return func(_ *mat.Dense, _ []bool, p Params) (Classifier, error) {
		return signClassifier{invert: p["invert"] > 0}, nil
	}
}

func searchFolds(t *testing.T, n, k int) *partition.FoldSet {
	t.Helper()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	folds, err := partition.NewFolds(indices, k, 333)
	require.NoError(t, err)
	return folds
}

func TestGridSearchSelectsBestCandidate(t *testing.T) {
	X, y := separableData(60)
	folds := searchFolds(t, 60, 5)

	search := &GridSearch{
		Name:    "sign",
		Grid:    []Params{{"invert": 1}, {"invert": 0}},
		Fit:     signFitFunc(),
		Metric:  MetricAccuracy,
		Workers: 2,
	}
	result, err := search.Run(X, y, folds)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.BestIndex)
	assert.Equal(t, 1.0, result.Best.Accuracy)
	assert.Equal(t, 1.0, result.Best.AUC)
	assert.Equal(t, 0.0, result.Results[0].Accuracy)
	assert.Equal(t, 0.0, result.Results[0].AUC)
}

func TestGridSearchTiesBreakToEarliestCandidate(t *testing.T) {
	X, y := separableData(60)
	folds := searchFolds(t, 60, 5)

	search := &GridSearch{
		Name:   "sign",
		Grid:   []Params{{"invert": 0}, {"invert": 0}, {"invert": 0}},
		Fit:    signFitFunc(),
		Metric: MetricROCAUC,
	}
	result, err := search.Run(X, y, folds)
	require.NoError(t, err)
	assert.Equal(t, 0, result.BestIndex)
}

func TestGridSearchParallelMatchesSequential(t *testing.T) {
	X, y := separableData(80)
	folds := searchFolds(t, 80, 5)

	run := func(workers int) *SearchResult {
		search := &GridSearch{
			Name:    "tree",
			Grid:    TreeGrid(),
			Fit:     TreeFitFunc(),
			Metric:  MetricAccuracy,
			Workers: workers,
		}
		result, err := search.Run(X, y, folds)
		require.NoError(t, err)
		return result
	}

	sequential := run(1)
	parallel := run(4)
	assert.Equal(t, sequential.BestIndex, parallel.BestIndex)
	assert.Equal(t, sequential.Results, parallel.Results)
}

func TestGridSearchToleratesFailedCandidates(t *testing.T) {
	X, y := separableData(60)
	folds := searchFolds(t, 60, 5)

	fit := func(trainX *mat.Dense, trainY []bool, p Params) (Classifier, error) {
		if p["fail"] > 0 {
			return nil, fmt.Errorf("unusable configuration")
		}
		return signClassifier{}, nil
	}
	search := &GridSearch{
		Name:   "sign",
		Grid:   []Params{{"fail": 1}, {"fail": 0}},
		Fit:    fit,
		Metric: MetricAccuracy,
	}
	result, err := search.Run(X, y, folds)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.True(t, math.IsNaN(result.Results[0].Accuracy))
	assert.True(t, math.IsNaN(result.Results[0].AUC))
	assert.Equal(t, 1, result.BestIndex)
	assert.Equal(t, 1.0, result.Best.Accuracy)
}

func TestGridSearchAllCandidatesFailed(t *testing.T) {
	X, y := separableData(60)
	folds := searchFolds(t, 60, 5)

	fit := func(_ *mat.Dense, _ []bool, _ Params) (Classifier, error) {
		return nil, fmt.Errorf("unusable configuration")
	}
	search := &GridSearch{
		Name:   "sign",
		Grid:   []Params{{"a": 1}, {"a": 2}},
		Fit:    fit,
		Metric: MetricAccuracy,
	}
	_, err := search.Run(X, y, folds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no grid configuration completed")
}

func TestGridSearchRejectsDegenerateFolds(t *testing.T) {
	X, _ := separableData(60)
	y := make([]bool, 60)
	folds := searchFolds(t, 60, 5)

	search := &GridSearch{
		Name:   "sign",
		Grid:   []Params{{"invert": 0}},
		Fit:    signFitFunc(),
		Metric: MetricAccuracy,
	}
	_, err := search.Run(X, y, folds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "degenerate fold 0")
}

func TestGridSearchValidatesInputs(t *testing.T) {
	X, y := separableData(60)
	folds := searchFolds(t, 60, 5)

	empty := &GridSearch{Name: "sign", Fit: signFitFunc(), Metric: MetricAccuracy}
	_, err := empty.Run(X, y, folds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty hyperparameter grid")

	badMetric := &GridSearch{
		Name:   "sign",
		Grid:   []Params{{"invert": 0}},
		Fit:    signFitFunc(),
		Metric: "f1",
	}
	_, err = badMetric.Run(X, y, folds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown selection metric "f1"`)
}
