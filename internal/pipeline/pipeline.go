package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/tour-analytics/internal/config"
	"github.com/stitts-dev/tour-analytics/internal/dataset"
	"github.com/stitts-dev/tour-analytics/internal/evaluate"
	"github.com/stitts-dev/tour-analytics/internal/explore"
	"github.com/stitts-dev/tour-analytics/internal/model"
	"github.com/stitts-dev/tour-analytics/internal/partition"
	"github.com/stitts-dev/tour-analytics/internal/report"
	"github.com/stitts-dev/tour-analytics/pkg/logger"
)

// Results collects everything the run produced for reporting
type Results struct {
	Explore    *explore.Report
	Screen     []explore.UnivariateFit
	Logistic   *model.SearchResult
	Tree       *model.SearchResult
	ForestWide *model.SearchResult
	Forest     *model.SearchResult
	Summaries  []report.Summary
	Importance []evaluate.FeatureImportance
	FinalModel string
}

// Pipeline runs the five analysis stages as one linear batch job. Any
// stage error aborts the run.
type Pipeline struct {
	cfg   *config.Config
	runID string
	log   *logrus.Entry
}

func New(cfg *config.Config) *Pipeline {
	runID := uuid.New().String()
	return &Pipeline{
		cfg:   cfg,
		runID: runID,
		log:   logger.WithRunContext(runID, "pipeline"),
	}
}

// Run executes the pipeline and renders the report tables to out
func (p *Pipeline) Run(ctx context.Context, out io.Writer) (*Results, error) {
	p.log.WithFields(logrus.Fields{
		"input":   p.cfg.InputPath,
		"workers": p.cfg.Workers(),
	}).Info("Starting analysis run")

	opts := dataset.DefaultOptions()
	opts.ExpectedRows = p.cfg.ExpectedRows
	ds, err := dataset.Load(p.cfg.InputPath, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := &Results{}
	results.Explore, err = explore.Analyze(ds, p.cfg.TopPredictors)
	if err != nil {
		return nil, err
	}
	predictors := results.Explore.TopPredictors()
	results.Screen, err = explore.UnivariateScreen(ds, predictors)
	if err != nil {
		return nil, err
	}

	split, err := partition.NewSplit(ds.Len(), p.cfg.TestRows, p.cfg.SplitSeed)
	if err != nil {
		return nil, err
	}

	recipe, err := partition.NewRecipe(ds, predictors)
	if err != nil {
		return nil, err
	}
	if err := recipe.Fit(ds, split.TrainIndices); err != nil {
		return nil, err
	}
	trainX, err := recipe.Bake(ds, split.TrainIndices)
	if err != nil {
		return nil, err
	}
	testX, err := recipe.Bake(ds, split.TestIndices)
	if err != nil {
		return nil, err
	}
	trainY := model.SubsetLabels(ds.Target, split.TrainIndices)
	testY := model.SubsetLabels(ds.Target, split.TestIndices)

	// Fold indices are positions into the baked training matrix
	positions := make([]int, len(split.TrainIndices))
	for i := range positions {
		positions[i] = i
	}
	folds, err := partition.NewFolds(positions, p.cfg.CVFolds, p.cfg.FoldSeed)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var summaries []report.Summary

	// Penalized logistic regression, selected by CV accuracy
	logisticSearch := &model.GridSearch{
		Name:    "logistic",
		Grid:    model.LogisticGrid(),
		Fit:     model.LogisticFitFunc(),
		Metric:  model.MetricAccuracy,
		Workers: p.cfg.Workers(),
	}
	results.Logistic, err = logisticSearch.Run(trainX, trainY, folds)
	if err != nil {
		return nil, err
	}
	logisticFinal, err := model.FitLogistic(trainX, trainY, model.LogisticConfig{
		Penalty: results.Logistic.Best.Params["penalty"],
		Mixture: results.Logistic.Best.Params["mixture"],
	})
	if err != nil {
		return nil, fmt.Errorf("logistic: refit: %w", err)
	}
	summary, err := p.testSummary("logistic", results.Logistic.Best.Params, logisticFinal, testX, testY)
	if err != nil {
		return nil, err
	}
	summaries = append(summaries, summary)

	// Decision tree, selected by CV accuracy with AUC collected
	treeSearch := &model.GridSearch{
		Name:    "decision_tree",
		Grid:    model.TreeGrid(),
		Fit:     model.TreeFitFunc(),
		Metric:  model.MetricAccuracy,
		Workers: p.cfg.Workers(),
	}
	results.Tree, err = treeSearch.Run(trainX, trainY, folds)
	if err != nil {
		return nil, err
	}
	treeFinal, err := model.FitTree(trainX, trainY, model.TreeConfig{
		MaxDepth:       int(results.Tree.Best.Params["tree_depth"]),
		MinNodeSize:    5,
		CostComplexity: results.Tree.Best.Params["cost_complexity"],
	})
	if err != nil {
		return nil, fmt.Errorf("decision_tree: refit: %w", err)
	}
	summary, err = p.testSummary("decision_tree", results.Tree.Best.Params, treeFinal, testX, testY)
	if err != nil {
		return nil, err
	}
	summaries = append(summaries, summary)

	// Random forest: broad seeded search first, then the refined regular
	// grid, both selected by CV AUC
	featureCount := len(recipe.FeatureNames())
	wideSearch := &model.GridSearch{
		Name:    "random_forest_wide",
		Grid:    model.ForestRandomGrid(20, featureCount, p.cfg.ForestSearchSeed),
		Fit:     model.ForestFitFunc(p.cfg.ForestTrees, p.cfg.ForestSearchSeed),
		Metric:  model.MetricROCAUC,
		Workers: p.cfg.Workers(),
	}
	results.ForestWide, err = wideSearch.Run(trainX, trainY, folds)
	if err != nil {
		return nil, err
	}

	refinedSearch := &model.GridSearch{
		Name:    "random_forest",
		Grid:    model.ForestRefinedGrid(),
		Fit:     model.ForestFitFunc(p.cfg.ForestTrees, p.cfg.ForestSearchSeed),
		Metric:  model.MetricROCAUC,
		Workers: p.cfg.Workers(),
	}
	results.Forest, err = refinedSearch.Run(trainX, trainY, folds)
	if err != nil {
		return nil, err
	}
	forestFinal, err := model.FitForest(trainX, trainY, model.ForestConfig{
		Trees:       p.cfg.ForestTrees,
		Mtry:        int(results.Forest.Best.Params["mtry"]),
		MinNodeSize: int(results.Forest.Best.Params["min_n"]),
		Seed:        p.cfg.ForestSearchSeed,
	})
	if err != nil {
		return nil, fmt.Errorf("random_forest: refit: %w", err)
	}
	// The forest is scored on the same canonical 70/30 split as the
	// other models
	summary, err = p.testSummary("random_forest", results.Forest.Best.Params, forestFinal, testX, testY)
	if err != nil {
		return nil, err
	}
	summaries = append(summaries, summary)

	// Final model: best held-out AUC, earliest on ties
	chosen := 0
	finals := []model.Classifier{logisticFinal, treeFinal, forestFinal}
	for i := 1; i < len(summaries); i++ {
		if summaries[i].AUC > summaries[chosen].AUC {
			chosen = i
		}
	}
	summaries[chosen].Chosen = true
	results.Summaries = summaries
	results.FinalModel = summaries[chosen].Model

	results.Importance, err = evaluate.PermutationImportance(
		finals[chosen], testX, testY, recipe.FeatureNames(), p.cfg.ForestSearchSeed)
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"final_model":   results.FinalModel,
		"test_accuracy": summaries[chosen].Accuracy,
		"test_auc":      summaries[chosen].AUC,
	}).Info("Analysis run complete")

	p.render(out, results)
	return results, nil
}

func (p *Pipeline) testSummary(name string, params model.Params, clf model.Classifier, testX *mat.Dense, testY []bool) (report.Summary, error) {
	acc, err := evaluate.Accuracy(clf.Predict(testX), testY)
	if err != nil {
		return report.Summary{}, fmt.Errorf("%s: test accuracy: %w", name, err)
	}
	auc, err := evaluate.ROCAUC(clf.Score(testX), testY)
	if err != nil {
		return report.Summary{}, fmt.Errorf("%s: test AUC: %w", name, err)
	}
	logger.WithModelContext(p.runID, name).WithFields(logrus.Fields{
		"test_accuracy": acc,
		"test_auc":      auc,
	}).Info("Held-out evaluation complete")
	return report.Summary{Model: name, Params: params, Accuracy: acc, AUC: auc}, nil
}

func (p *Pipeline) render(out io.Writer, results *Results) {
	w := report.New(out)
	w.Correlations("Top predictors by |correlation| with top-10 finish", results.Explore.Top)
	w.CollinearPairs(results.Explore)
	w.UnivariateScreen(results.Screen)
	w.SearchResults("logistic", results.Logistic)
	w.SearchResults("decision_tree", results.Tree)
	w.SearchResults("random_forest_wide", results.ForestWide)
	w.SearchResults("random_forest", results.Forest)
	w.Summaries(results.Summaries)
	w.Importance(results.FinalModel, results.Importance)
}
