package partition

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/tour-analytics/pkg/logger"
)

// Split is a disjoint, exhaustive train/test partition of row indices
type Split struct {
	TrainIndices []int
	TestIndices  []int
}

// NewSplit samples testSize of n row indices for the test set using the
// given seed. The same seed always produces the same partition.
func NewSplit(n, testSize int, seed int64) (*Split, error) {
	if testSize <= 0 || testSize >= n {
		return nil, fmt.Errorf("partition: test size %d invalid for %d rows", testSize, n)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	test := make([]int, testSize)
	copy(test, perm[:testSize])
	sort.Ints(test)

	train := make([]int, n-testSize)
	copy(train, perm[testSize:])
	sort.Ints(train)

	logger.WithStage("partition").WithFields(logrus.Fields{
		"train_rows": len(train),
		"test_rows":  len(test),
		"seed":       seed,
	}).Info("Train/test split created")

	return &Split{TrainIndices: train, TestIndices: test}, nil
}
