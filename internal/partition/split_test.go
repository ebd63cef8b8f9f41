package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitDeterministic(t *testing.T) {
	first, err := NewSplit(195, 59, 333)
	require.NoError(t, err)
	second, err := NewSplit(195, 59, 333)
	require.NoError(t, err)

	assert.Equal(t, first.TrainIndices, second.TrainIndices)
	assert.Equal(t, first.TestIndices, second.TestIndices)
}

func TestNewSplitSeedChangesPartition(t *testing.T) {
	a, err := NewSplit(195, 59, 333)
	require.NoError(t, err)
	b, err := NewSplit(195, 59, 334)
	require.NoError(t, err)

	assert.NotEqual(t, a.TestIndices, b.TestIndices)
}

func TestNewSplitDisjointAndExhaustive(t *testing.T) {
	split, err := NewSplit(195, 59, 333)
	require.NoError(t, err)

	assert.Len(t, split.TestIndices, 59)
	assert.Len(t, split.TrainIndices, 136)

	seen := make(map[int]int)
	for _, idx := range split.TrainIndices {
		seen[idx]++
	}
	for _, idx := range split.TestIndices {
		seen[idx]++
	}
	require.Len(t, seen, 195)
	for idx, count := range seen {
		assert.Equal(t, 1, count, "row %d assigned %d times", idx, count)
	}
}

func TestNewSplitRejectsBadTestSize(t *testing.T) {
	_, err := NewSplit(10, 0, 1)
	assert.Error(t, err)
	_, err = NewSplit(10, 10, 1)
	assert.Error(t, err)
}

func TestNewFoldsCoverTrainingExactlyOnce(t *testing.T) {
	split, err := NewSplit(195, 59, 333)
	require.NoError(t, err)

	folds, err := NewFolds(split.TrainIndices, 5, 333)
	require.NoError(t, err)
	require.Equal(t, 5, folds.K())

	seen := make(map[int]int)
	for i := 0; i < folds.K(); i++ {
		analysis, validation := folds.Assignment(i)
		assert.Len(t, analysis, 136-len(validation))
		for _, idx := range validation {
			seen[idx]++
		}
	}
	require.Len(t, seen, 136)
	for idx, count := range seen {
		assert.Equal(t, 1, count, "row %d validated %d times", idx, count)
	}
}

func TestNewFoldsDeterministic(t *testing.T) {
	indices := make([]int, 50)
	for i := range indices {
		indices[i] = i
	}

	a, err := NewFolds(indices, 5, 7)
	require.NoError(t, err)
	b, err := NewFolds(indices, 5, 7)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, valA := a.Assignment(i)
		_, valB := b.Assignment(i)
		assert.Equal(t, valA, valB)
	}
}

func TestNewFoldsRejectsTooFewRows(t *testing.T) {
	_, err := NewFolds([]int{1, 2, 3}, 5, 1)
	assert.Error(t, err)
	_, err = NewFolds([]int{1, 2, 3}, 1, 1)
	assert.Error(t, err)
}
