package evaluate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Accuracy returns the fraction of predictions matching the truth
func Accuracy(predicted, truth []bool) (float64, error) {
	if len(predicted) != len(truth) {
		return 0, fmt.Errorf("evaluate: %d predictions for %d labels", len(predicted), len(truth))
	}
	if len(truth) == 0 {
		return 0, fmt.Errorf("evaluate: no predictions to score")
	}
	correct := 0
	for i, p := range predicted {
		if p == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth)), nil
}

// ROCAUC returns the area under the receiver-operating-characteristic
// curve for the given scores, where larger scores indicate the positive
// class. Both classes must be present.
func ROCAUC(scores []float64, truth []bool) (float64, error) {
	if len(scores) != len(truth) {
		return 0, fmt.Errorf("evaluate: %d scores for %d labels", len(scores), len(truth))
	}

	positives := 0
	for _, t := range truth {
		if t {
			positives++
		}
	}
	if positives == 0 || positives == len(truth) {
		return 0, fmt.Errorf("evaluate: AUC undefined with a single class (%d of %d positive)", positives, len(truth))
	}

	// stat.ROC requires scores sorted ascending with classes aligned
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})
	sorted := make([]float64, len(scores))
	classes := make([]bool, len(truth))
	for i, idx := range order {
		sorted[i] = scores[idx]
		classes[i] = truth[idx]
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
