package explore

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/tour-analytics/internal/dataset"
	"github.com/stitts-dev/tour-analytics/internal/evaluate"
	"github.com/stitts-dev/tour-analytics/internal/model"
)

// UnivariateFit is one predictor's single-variable logistic model. The
// slope is on the standardized scale of the predictor.
type UnivariateFit struct {
	Predictor string
	Intercept float64
	Slope     float64
	Accuracy  float64
}

// UnivariateScreen fits an unpenalized single-variable logistic model
// per predictor and returns them in the given order. This
// is a diagnostic screen over the full dataset, run before partitioning.
func UnivariateScreen(ds *dataset.Dataset, predictors []string) ([]UnivariateFit, error) {
	n := ds.Len()
	fits := make([]UnivariateFit, 0, len(predictors))
	for _, name := range predictors {
		col, ok := ds.Numeric(name)
		if !ok {
			return nil, fmt.Errorf("explore: unknown predictor %q in univariate screen", name)
		}

		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		X := mat.NewDense(n, 1, nil)
		for i, v := range col {
			X.Set(i, 0, (v-mean)/std)
		}

		fit, err := model.FitLogistic(X, ds.Target, model.LogisticConfig{})
		if err != nil {
			return nil, fmt.Errorf("explore: univariate fit for %q: %w", name, err)
		}
		intercept, weights := fit.Coefficients()
		acc, err := evaluate.Accuracy(fit.Predict(X), ds.Target)
		if err != nil {
			return nil, fmt.Errorf("explore: univariate accuracy for %q: %w", name, err)
		}

		fits = append(fits, UnivariateFit{
			Predictor: name,
			Intercept: intercept,
			Slope:     weights[0],
			Accuracy:  acc,
		})
	}
	return fits, nil
}
