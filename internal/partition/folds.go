package partition

import (
	"fmt"
	"math/rand"
	"sort"
)

// FoldSet is a k-way disjoint partition of training row indices. Each
// fold serves once as the validation set, with the remaining folds as
// the analysis set.
type FoldSet struct {
	folds [][]int
}

// NewFolds assigns the given row indices to k folds using the given seed.
// Every index lands in exactly one fold.
func NewFolds(indices []int, k int, seed int64) (*FoldSet, error) {
	if k < 2 {
		return nil, fmt.Errorf("partition: need at least 2 folds, got %d", k)
	}
	if len(indices) < k {
		return nil, fmt.Errorf("partition: %d rows cannot fill %d folds", len(indices), k)
	}

	shuffled := make([]int, len(indices))
	copy(shuffled, indices)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	folds := make([][]int, k)
	for i, idx := range shuffled {
		folds[i%k] = append(folds[i%k], idx)
	}
	for _, fold := range folds {
		sort.Ints(fold)
	}

	return &FoldSet{folds: folds}, nil
}

// K returns the number of folds
func (f *FoldSet) K() int {
	return len(f.folds)
}

// Assignment returns the analysis and validation index sets for fold i
func (f *FoldSet) Assignment(i int) (analysis, validation []int) {
	validation = f.folds[i]
	for j, fold := range f.folds {
		if j != i {
			analysis = append(analysis, fold...)
		}
	}
	sort.Ints(analysis)
	return analysis, validation
}
