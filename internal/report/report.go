package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/stitts-dev/tour-analytics/internal/evaluate"
	"github.com/stitts-dev/tour-analytics/internal/explore"
	"github.com/stitts-dev/tour-analytics/internal/model"
)

// Summary is one model's held-out test performance
type Summary struct {
	Model    string
	Params   model.Params
	Accuracy float64
	AUC      float64
	Chosen   bool
}

// Writer renders the pipeline's human-readable tables
type Writer struct {
	out io.Writer
}

func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Correlations renders a ranked predictor/coefficient table
func (w *Writer) Correlations(title string, entries []explore.CorrelationEntry) {
	fmt.Fprintf(w.out, "\n%s\n", title)
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Rank", "Predictor", "Correlation"})
	for i, e := range entries {
		table.Append([]string{
			strconv.Itoa(i + 1),
			e.Predictor,
			formatFloat(e.Coefficient),
		})
	}
	table.Render()
}

// CollinearPairs renders the flagged pairs and the advisory replacement map
func (w *Writer) CollinearPairs(rep *explore.Report) {
	fmt.Fprintf(w.out, "\nCollinear pairs (|r| > %s)\n", formatFloat(math.Abs(rep.MeanPairwise)))
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"First", "Second", "Correlation", "Keep"})
	for _, p := range rep.Pairs {
		table.Append([]string{p.First, p.Second, formatFloat(p.Coefficient), p.Preferred})
	}
	table.Render()

	if len(rep.Replacements) == 0 {
		return
	}
	fmt.Fprintln(w.out, "\nSuggested replacements (advisory)")
	table = tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Avoid", "Prefer"})
	losers := make([]string, 0, len(rep.Replacements))
	for loser := range rep.Replacements {
		losers = append(losers, loser)
	}
	sort.Strings(losers)
	for _, loser := range losers {
		table.Append([]string{loser, rep.Replacements[loser]})
	}
	table.Render()
}

// UnivariateScreen renders the per-predictor single-variable fits
func (w *Writer) UnivariateScreen(fits []explore.UnivariateFit) {
	fmt.Fprintln(w.out, "\nUnivariate logistic screen")
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Predictor", "Intercept", "Slope", "Accuracy"})
	for _, f := range fits {
		table.Append([]string{
			f.Predictor,
			formatFloat(f.Intercept),
			formatFloat(f.Slope),
			formatFloat(f.Accuracy),
		})
	}
	table.Render()
}

// SearchResults renders cross-validated scores for every grid candidate
func (w *Writer) SearchResults(name string, res *model.SearchResult) {
	fmt.Fprintf(w.out, "\n%s grid search (best: candidate %d)\n", name, res.BestIndex+1)
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Candidate", "Params", "CV Accuracy", "CV AUC"})
	for i, r := range res.Results {
		table.Append([]string{
			strconv.Itoa(i + 1),
			formatParams(r.Params),
			formatFloat(r.Accuracy),
			formatFloat(r.AUC),
		})
	}
	table.Render()
}

// Summaries renders the final held-out test metrics per model
func (w *Writer) Summaries(summaries []Summary) {
	fmt.Fprintln(w.out, "\nTest-set performance")
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Model", "Params", "Accuracy", "AUC", "Chosen"})
	for _, s := range summaries {
		chosen := ""
		if s.Chosen {
			chosen = "*"
		}
		table.Append([]string{
			s.Model,
			formatParams(s.Params),
			formatFloat(s.Accuracy),
			formatFloat(s.AUC),
			chosen,
		})
	}
	table.Render()
}

// Importance renders the permutation feature-importance ranking
func (w *Writer) Importance(modelName string, ranked []evaluate.FeatureImportance) {
	fmt.Fprintf(w.out, "\nPermutation importance (%s)\n", modelName)
	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Rank", "Feature", "AUC Loss"})
	for i, fi := range ranked {
		table.Append([]string{
			strconv.Itoa(i + 1),
			fi.Feature,
			formatFloat(fi.Importance),
		})
	}
	table.Render()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatParams(p model.Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%s", k, strconv.FormatFloat(p[k], 'g', 4, 64))
	}
	return out
}
