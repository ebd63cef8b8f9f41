package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitForestSeparatesClasses(t *testing.T) {
	X, y := separableData(40)

	forest, err := FitForest(X, y, ForestConfig{Trees: 25, Mtry: 2, MinNodeSize: 2, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 25, forest.Trees())
	assert.Equal(t, y, forest.Predict(X))

	for _, s := range forest.Score(X) {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestFitForestDeterministicGivenSeed(t *testing.T) {
	X, y := separableData(40)
	// Label noise makes leaf probabilities depend on the bootstrap.
	y[3] = !y[3]
	y[17] = !y[17]
	y[28] = !y[28]

	a, err := FitForest(X, y, ForestConfig{Trees: 10, Mtry: 2, MinNodeSize: 5, Seed: 7})
	require.NoError(t, err)
	b, err := FitForest(X, y, ForestConfig{Trees: 10, Mtry: 2, MinNodeSize: 5, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, a.Score(X), b.Score(X))

	c, err := FitForest(X, y, ForestConfig{Trees: 10, Mtry: 2, MinNodeSize: 5, Seed: 8})
	require.NoError(t, err)
	assert.NotEqual(t, a.Score(X), c.Score(X), "a different seed should change the ensemble")
}

func TestFitForestValidatesConfig(t *testing.T) {
	X, y := separableData(10)

	_, err := FitForest(X, y, ForestConfig{Trees: 0, Mtry: 1, MinNodeSize: 1})
	assert.Error(t, err)
	_, err = FitForest(X, y, ForestConfig{Trees: 5, Mtry: 0, MinNodeSize: 1})
	assert.Error(t, err)
	_, err = FitForest(X, y, ForestConfig{Trees: 5, Mtry: 3, MinNodeSize: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mtry 3 outside [1, 2]")
	_, err = FitForest(X, y, ForestConfig{Trees: 5, Mtry: 1, MinNodeSize: 0})
	assert.Error(t, err)
}

func TestFitForestRejectsSingleClass(t *testing.T) {
	X, _ := separableData(10)
	y := make([]bool, 10)

	_, err := FitForest(X, y, ForestConfig{Trees: 5, Mtry: 1, MinNodeSize: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single-class")
}

func TestForestRandomGridSeededAndBounded(t *testing.T) {
	a := ForestRandomGrid(20, 8, 345)
	b := ForestRandomGrid(20, 8, 345)
	require.Len(t, a, 20)
	assert.Equal(t, a, b)

	for _, p := range a {
		assert.GreaterOrEqual(t, p["mtry"], 1.0)
		assert.LessOrEqual(t, p["mtry"], 8.0)
		assert.GreaterOrEqual(t, p["min_n"], 2.0)
		assert.LessOrEqual(t, p["min_n"], 40.0)
	}

	c := ForestRandomGrid(20, 8, 346)
	assert.NotEqual(t, a, c)
}

func TestForestRefinedGridShape(t *testing.T) {
	grid := ForestRefinedGrid()
	require.Len(t, grid, 25)
	assert.Equal(t, Params{"mtry": 2, "min_n": 30}, grid[0])
	assert.Equal(t, Params{"mtry": 8, "min_n": 40}, grid[24])
}
