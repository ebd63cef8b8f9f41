package explore

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/tour-analytics/internal/dataset"
	"github.com/stitts-dev/tour-analytics/pkg/logger"
)

// CorrelationEntry pairs a predictor with its Pearson correlation
// against the 0/1-coded target
type CorrelationEntry struct {
	Predictor   string
	Coefficient float64
}

// CollinearPair is a flagged predictor pair whose mutual correlation
// exceeds the mean over the top-ranked set. Preferred names the member
// with the larger absolute target correlation.
type CollinearPair struct {
	First       string
	Second      string
	Coefficient float64
	Preferred   string
}

// Report is the exploratory output: the full predictor ranking, the
// top-ranked subset, flagged collinear pairs, and the advisory
// replacement map for the losing member of each pair.
type Report struct {
	Ranked       []CorrelationEntry
	Top          []CorrelationEntry
	Pairs        []CollinearPair
	Replacements map[string]string
	MeanPairwise float64
}

// TopPredictors returns the top-ranked predictor names in rank order
func (r *Report) TopPredictors() []string {
	out := make([]string, len(r.Top))
	for i, e := range r.Top {
		out[i] = e.Predictor
	}
	return out
}

// Analyze ranks every numeric predictor by absolute correlation with the
// target and surfaces collinear pairs among the topN strongest. The
// replacement map is advisory: trainers consume the full top set.
func Analyze(ds *dataset.Dataset, topN int) (*Report, error) {
	if topN < 2 {
		return nil, fmt.Errorf("explore: need at least 2 top predictors, got %d", topN)
	}

	target := ds.TargetFloats()
	columns := ds.NumericColumns()
	if len(columns) == 0 {
		return nil, fmt.Errorf("explore: dataset has no numeric predictors")
	}

	ranked := make([]CorrelationEntry, 0, len(columns))
	for _, name := range columns {
		col, _ := ds.Numeric(name)
		r := stat.Correlation(col, target, nil)
		if math.IsNaN(r) {
			// Constant columns have undefined correlation; rank them last
			r = 0
		}
		ranked = append(ranked, CorrelationEntry{Predictor: name, Coefficient: r})
	}
	// Stable sort keeps dataset column order on ties
	sort.SliceStable(ranked, func(a, b int) bool {
		return math.Abs(ranked[a].Coefficient) > math.Abs(ranked[b].Coefficient)
	})

	if topN > len(ranked) {
		topN = len(ranked)
	}
	top := make([]CorrelationEntry, topN)
	copy(top, ranked[:topN])

	report := &Report{
		Ranked:       ranked,
		Top:          top,
		Replacements: make(map[string]string),
	}

	targetCorr := make(map[string]float64, len(ranked))
	for _, e := range ranked {
		targetCorr[e.Predictor] = e.Coefficient
	}

	// Upper triangle of the pairwise matrix over the top predictors
	type pair struct {
		i, j int
		r    float64
	}
	pairs := make([]pair, 0, topN*(topN-1)/2)
	sum := 0.0
	for i := 0; i < topN; i++ {
		xi, _ := ds.Numeric(top[i].Predictor)
		for j := i + 1; j < topN; j++ {
			xj, _ := ds.Numeric(top[j].Predictor)
			r := stat.Correlation(xi, xj, nil)
			if math.IsNaN(r) {
				r = 0
			}
			pairs = append(pairs, pair{i: i, j: j, r: r})
			sum += r
		}
	}
	report.MeanPairwise = sum / float64(len(pairs))

	// Flag pairs exceeding the mean and resolve which member to keep by
	// absolute target correlation; the higher-ranked member wins ties
	threshold := math.Abs(report.MeanPairwise)
	partners := make(map[string][]string)
	for _, p := range pairs {
		if math.Abs(p.r) <= threshold {
			continue
		}
		first, second := top[p.i].Predictor, top[p.j].Predictor
		preferred := first
		if math.Abs(targetCorr[second]) > math.Abs(targetCorr[first]) {
			preferred = second
		}
		report.Pairs = append(report.Pairs, CollinearPair{
			First:       first,
			Second:      second,
			Coefficient: p.r,
			Preferred:   preferred,
		})
		partners[first] = append(partners[first], second)
		partners[second] = append(partners[second], first)
	}

	// Each losing variable maps to its flagged partner with the largest
	// absolute target correlation
	for _, cp := range report.Pairs {
		loser := cp.Second
		if cp.Preferred == cp.Second {
			loser = cp.First
		}
		if _, done := report.Replacements[loser]; done {
			continue
		}
		best := ""
		for _, partner := range partners[loser] {
			if best == "" || math.Abs(targetCorr[partner]) > math.Abs(targetCorr[best]) {
				best = partner
			}
		}
		report.Replacements[loser] = best
	}

	logger.WithStage("explore").WithFields(logrus.Fields{
		"predictors":       len(ranked),
		"top":              topN,
		"mean_pairwise":    report.MeanPairwise,
		"collinear_pairs":  len(report.Pairs),
		"replacement_vars": len(report.Replacements),
	}).Info("Correlation analysis complete")

	return report, nil
}
