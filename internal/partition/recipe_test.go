package partition

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/tour-analytics/internal/dataset"
)

const recipeCSV = "PLAYER NAME,TOP 10,DISTANCE,TOUR CARD\n" +
	"A,1,10,full\n" +
	"B,0,20,partial\n" +
	"C,2,30,full\n" +
	"D,0,40,exempt\n" +
	"E,1,50,full\n" +
	"F,0,60,partial\n"

func recipeDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.LoadFromReader(strings.NewReader(recipeCSV), dataset.Options{
		IdentifierColumn: "player_name",
		TargetColumn:     "top_10",
		ExpectedRows:     6,
	})
	require.NoError(t, err)
	return ds
}

func TestRecipeStandardizesFromTrainingRowsOnly(t *testing.T) {
	ds := recipeDataset(t)

	r, err := NewRecipe(ds, []string{"distance"})
	require.NoError(t, err)
	train := []int{0, 1, 2, 3}
	require.NoError(t, r.Fit(ds, train))

	X, err := r.Bake(ds, train)
	require.NoError(t, err)

	// Training rows standardize to zero mean and unit variance
	col := mat.Col(nil, 0, X)
	sum, sumSq := 0.0, 0.0
	for _, v := range col {
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(len(col))
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, math.Sqrt(sumSq/float64(len(col)-1)), 1e-12)

	// Test rows use training parameters: values beyond the training
	// range land beyond the training extremes
	testX, err := r.Bake(ds, []int{4, 5})
	require.NoError(t, err)
	assert.Greater(t, testX.At(0, 0), col[3])
	assert.Greater(t, testX.At(1, 0), testX.At(0, 0))
}

func TestRecipeOneHotEncodesFromTrainingCategories(t *testing.T) {
	ds := recipeDataset(t)

	r, err := NewRecipe(ds, []string{"distance", "tour_card"})
	require.NoError(t, err)
	// Training rows carry only full and partial
	require.NoError(t, r.Fit(ds, []int{0, 1, 4, 5}))

	assert.Equal(t, []string{"distance", "tour_card_full", "tour_card_partial"}, r.FeatureNames())

	X, err := r.Bake(ds, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, X.At(0, 1)) // full
	assert.Equal(t, 0.0, X.At(0, 2))
	assert.Equal(t, 0.0, X.At(1, 1)) // partial
	assert.Equal(t, 1.0, X.At(1, 2))

	// The category unseen in training encodes as all zeros
	unseen, err := r.Bake(ds, []int{3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, unseen.At(0, 1))
	assert.Equal(t, 0.0, unseen.At(0, 2))
}

func TestRecipeBakeIdempotent(t *testing.T) {
	ds := recipeDataset(t)

	r, err := NewRecipe(ds, []string{"distance", "tour_card"})
	require.NoError(t, err)
	require.NoError(t, r.Fit(ds, []int{0, 1, 2, 3}))

	first, err := r.Bake(ds, []int{4, 5})
	require.NoError(t, err)
	second, err := r.Bake(ds, []int{4, 5})
	require.NoError(t, err)
	assert.True(t, mat.Equal(first, second))
}

func TestRecipeRejectsUnknownPredictor(t *testing.T) {
	ds := recipeDataset(t)

	_, err := NewRecipe(ds, []string{"player_name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "player_name")
}

func TestRecipeRequiresFitBeforeBake(t *testing.T) {
	ds := recipeDataset(t)

	r, err := NewRecipe(ds, []string{"distance"})
	require.NoError(t, err)
	_, err = r.Bake(ds, []int{0})
	assert.Error(t, err)
}
