package model

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/tour-analytics/internal/evaluate"
	"github.com/stitts-dev/tour-analytics/internal/partition"
	"github.com/stitts-dev/tour-analytics/pkg/logger"
)

// Selection metrics for cross-validated grid search
const (
	MetricAccuracy = "accuracy"
	MetricROCAUC   = "roc_auc"
)

// CVResult holds one configuration's cross-validated scores. AUC is NaN
// when no validation fold had both classes present.
type CVResult struct {
	Params   Params
	Accuracy float64
	AUC      float64
}

// SearchResult is the full outcome of a grid search, in grid order
type SearchResult struct {
	Results   []CVResult
	Best      CVResult
	BestIndex int
}

// GridSearch evaluates every configuration in Grid over the fold set and
// selects the best by Metric. Candidates are scored by an explicit
// parallel map over the grid; selection walks the grid in order with a
// strictly-greater comparison, so ties break to the earliest candidate.
type GridSearch struct {
	Name    string
	Grid    []Params
	Fit     FitFunc
	Metric  string
	Workers int
}

type candidateOutcome struct {
	result CVResult
	err    error
}

// Run executes the search. Fold indices are row positions into X.
func (g *GridSearch) Run(X *mat.Dense, y []bool, folds *partition.FoldSet) (*SearchResult, error) {
	if len(g.Grid) == 0 {
		return nil, fmt.Errorf("%s: empty hyperparameter grid", g.Name)
	}
	if g.Metric != MetricAccuracy && g.Metric != MetricROCAUC {
		return nil, fmt.Errorf("%s: unknown selection metric %q", g.Name, g.Metric)
	}

	// A single-class analysis set cannot train a classifier
	for i := 0; i < folds.K(); i++ {
		analysis, _ := folds.Assignment(i)
		pos := countPositives(SubsetLabels(y, analysis))
		if pos == 0 || pos == len(analysis) {
			return nil, fmt.Errorf("%s: degenerate fold %d: single-class analysis set", g.Name, i)
		}
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(g.Grid) {
		workers = len(g.Grid)
	}

	log := logger.WithStage("tune").WithField("model", g.Name)
	log.WithFields(logrus.Fields{
		"candidates": len(g.Grid),
		"folds":      folds.K(),
		"workers":    workers,
		"metric":     g.Metric,
	}).Info("Starting cross-validated grid search")

	// Each worker owns the candidate indices it pulls from the channel and
	// writes only its own slots, so no locking is needed.
	jobs := make(chan int, len(g.Grid))
	outcomes := make([]candidateOutcome, len(g.Grid))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = g.evaluateCandidate(X, y, folds, g.Grid[idx])
			}
		}()
	}
	for idx := range g.Grid {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	result := &SearchResult{Results: make([]CVResult, 0, len(g.Grid)), BestIndex: -1}
	bestScore := math.Inf(-1)
	for idx, outcome := range outcomes {
		if outcome.err != nil {
			log.WithField("candidate", idx).WithError(outcome.err).Warn("Grid candidate failed")
			result.Results = append(result.Results, CVResult{Params: g.Grid[idx], Accuracy: math.NaN(), AUC: math.NaN()})
			continue
		}
		result.Results = append(result.Results, outcome.result)

		score := outcome.result.Accuracy
		if g.Metric == MetricROCAUC {
			score = outcome.result.AUC
		}
		if !math.IsNaN(score) && score > bestScore {
			bestScore = score
			result.Best = outcome.result
			result.BestIndex = idx
		}
	}

	if result.BestIndex < 0 {
		return nil, fmt.Errorf("%s: no grid configuration completed", g.Name)
	}

	log.WithFields(logrus.Fields{
		"best_index":    result.BestIndex,
		"best_params":   fmt.Sprintf("%v", result.Best.Params),
		"best_accuracy": result.Best.Accuracy,
		"best_auc":      result.Best.AUC,
	}).Info("Grid search complete")

	return result, nil
}

func (g *GridSearch) evaluateCandidate(X *mat.Dense, y []bool, folds *partition.FoldSet, p Params) candidateOutcome {
	accSum := 0.0
	aucSum := 0.0
	aucFolds := 0
	for i := 0; i < folds.K(); i++ {
		analysis, validation := folds.Assignment(i)
		trainX := SubsetRows(X, analysis)
		trainY := SubsetLabels(y, analysis)
		valX := SubsetRows(X, validation)
		valY := SubsetLabels(y, validation)

		clf, err := g.Fit(trainX, trainY, p)
		if err != nil {
			return candidateOutcome{err: fmt.Errorf("fold %d: %w", i, err)}
		}

		acc, err := evaluate.Accuracy(clf.Predict(valX), valY)
		if err != nil {
			return candidateOutcome{err: fmt.Errorf("fold %d: %w", i, err)}
		}
		accSum += acc

		// AUC is undefined for a single-class validation fold; average
		// over the folds where it exists
		if auc, err := evaluate.ROCAUC(clf.Score(valX), valY); err == nil {
			aucSum += auc
			aucFolds++
		}
	}

	result := CVResult{Params: p, Accuracy: accSum / float64(folds.K()), AUC: math.NaN()}
	if aucFolds > 0 {
		result.AUC = aucSum / float64(aucFolds)
	}
	return candidateOutcome{result: result}
}
