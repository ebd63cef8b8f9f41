package model

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ForestConfig holds random-forest hyperparameters. Mtry is the number
// of predictors sampled per split; MinNodeSize the minimum rows per
// child node.
type ForestConfig struct {
	Trees       int
	Mtry        int
	MinNodeSize int
	Seed        int64
}

// RandomForest is an ensemble of bootstrap-sampled CART trees
type RandomForest struct {
	trees []*DecisionTree
}

// FitForest grows the ensemble. Trees are built sequentially from a
// single seeded source, so results are identical across runs.
func FitForest(X *mat.Dense, y []bool, cfg ForestConfig) (*RandomForest, error) {
	n, d := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("forest: %d rows for %d labels", n, len(y))
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("forest: tree count %d must be positive", cfg.Trees)
	}
	if cfg.Mtry < 1 || cfg.Mtry > d {
		return nil, fmt.Errorf("forest: mtry %d outside [1, %d]", cfg.Mtry, d)
	}
	if cfg.MinNodeSize < 1 {
		return nil, fmt.Errorf("forest: min node size %d must be positive", cfg.MinNodeSize)
	}
	pos := countPositives(y)
	if pos == 0 || pos == n {
		return nil, fmt.Errorf("forest: single-class training data (%d of %d positive)", pos, n)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := &RandomForest{trees: make([]*DecisionTree, 0, cfg.Trees)}
	sample := make([]int, n)
	for b := 0; b < cfg.Trees; b++ {
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		bootX := SubsetRows(X, sample)
		bootY := SubsetLabels(y, sample)

		tree, err := FitTree(bootX, bootY, TreeConfig{
			MinNodeSize: cfg.MinNodeSize,
			Mtry:        cfg.Mtry,
			Seed:        rng.Int63(),
		})
		if err != nil {
			return nil, fmt.Errorf("forest: tree %d: %w", b, err)
		}
		forest.trees = append(forest.trees, tree)
	}
	return forest, nil
}

// Predict returns the soft-vote majority class per row
func (f *RandomForest) Predict(X *mat.Dense) []bool {
	scores := f.Score(X)
	out := make([]bool, len(scores))
	for i, s := range scores {
		out[i] = s >= 0.5
	}
	return out
}

// Score returns the mean leaf probability across trees per row
func (f *RandomForest) Score(X *mat.Dense) []float64 {
	n, _ := X.Dims()
	out := make([]float64, n)
	for _, tree := range f.trees {
		for i, s := range tree.Score(X) {
			out[i] += s
		}
	}
	for i := range out {
		out[i] /= float64(len(f.trees))
	}
	return out
}

// Trees returns the ensemble size
func (f *RandomForest) Trees() int {
	return len(f.trees)
}

// ForestRandomGrid draws candidate configurations uniformly over mtry
// [1, maxMtry] and min_n [2, 40] for the broad first-stage search
func ForestRandomGrid(candidates, maxMtry int, seed int64) []Params {
	rng := rand.New(rand.NewSource(seed))
	grid := make([]Params, 0, candidates)
	for i := 0; i < candidates; i++ {
		grid = append(grid, Params{
			"mtry":  float64(1 + rng.Intn(maxMtry)),
			"min_n": float64(2 + rng.Intn(39)),
		})
	}
	return grid
}

// ForestRefinedGrid is the second-stage regular grid: mtry over [2, 8]
// and min_n over [30, 40], five levels each
func ForestRefinedGrid() []Params {
	mtries := []float64{2, 3, 5, 6, 8}
	minNs := []float64{30, 32, 35, 37, 40}
	grid := make([]Params, 0, len(mtries)*len(minNs))
	for _, mtry := range mtries {
		for _, minN := range minNs {
			grid = append(grid, Params{"mtry": mtry, "min_n": minN})
		}
	}
	return grid
}

// ForestFitFunc adapts FitForest to the grid-search contract. Every
// candidate seeds its own generator, so grid evaluation order cannot
// change results.
func ForestFitFunc(trees int, seed int64) FitFunc {
	return func(X *mat.Dense, y []bool, p Params) (Classifier, error) {
		return FitForest(X, y, ForestConfig{
			Trees:       trees,
			Mtry:        int(p["mtry"]),
			MinNodeSize: int(p["min_n"]),
			Seed:        seed,
		})
	}
}
