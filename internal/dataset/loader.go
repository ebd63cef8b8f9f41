package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/tour-analytics/pkg/logger"
)

// Options controls how the season file is loaded and cleaned
type Options struct {
	// IdentifierColumn names the player column after header normalization
	IdentifierColumn string
	// TargetColumn names the top-10 count column after header normalization
	TargetColumn string
	// DropColumns are index-style columns excluded from the predictor set
	DropColumns []string
	// ExpectedRows is the known valid row count; extra rows are truncated
	// and fewer rows is a data-integrity error. Zero disables the check.
	ExpectedRows int
}

// DefaultOptions matches the season stats export layout
func DefaultOptions() Options {
	return Options{
		IdentifierColumn: "player_name",
		TargetColumn:     "top_10",
		DropColumns:      []string{"num"},
		ExpectedRows:     195,
	}
}

// Load reads and cleans the season file at path
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f, opts)
}

// LoadFromReader reads and cleans season data from r. It truncates to the
// valid row range, normalizes headers, coerces comma-formatted numerics,
// mean-imputes missing values, and derives the top-10-finisher label.
func LoadFromReader(r io.Reader, opts Options) (*Dataset, error) {
	log := logger.WithStage("loader")

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loader: parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("loader: input has no data rows")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = NormalizeColumn(h)
	}

	rows := truncateEmpty(records[1:])
	if opts.ExpectedRows > 0 {
		if len(rows) < opts.ExpectedRows {
			return nil, fmt.Errorf("loader: expected %d valid rows, got %d", opts.ExpectedRows, len(rows))
		}
		rows = rows[:opts.ExpectedRows]
	}

	idIdx := indexOf(header, opts.IdentifierColumn)
	if idIdx < 0 {
		return nil, fmt.Errorf("loader: identifier column %q not found", opts.IdentifierColumn)
	}
	targetIdx := indexOf(header, opts.TargetColumn)
	if targetIdx < 0 {
		return nil, fmt.Errorf("loader: target column %q not found", opts.TargetColumn)
	}
	dropped := make(map[int]bool)
	for _, name := range opts.DropColumns {
		if idx := indexOf(header, name); idx >= 0 {
			dropped[idx] = true
		}
	}

	ds := &Dataset{
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
	}

	ds.Players = make([]string, len(rows))
	for i, row := range rows {
		ds.Players[i] = strings.TrimSpace(cell(row, idIdx))
	}

	imputed := 0
	coerced := 0
	for j, name := range header {
		if j == idIdx || dropped[j] {
			continue
		}

		values := make([]float64, len(rows))
		missing := 0
		parsed := 0
		firstBad := ""
		for i, row := range rows {
			raw := strings.TrimSpace(cell(row, j))
			v, miss, perr := parseNumeric(raw)
			switch {
			case miss:
				values[i] = math.NaN()
				missing++
			case perr != nil:
				if firstBad == "" {
					firstBad = raw
				}
			default:
				values[i] = v
				parsed++
				if strings.Contains(raw, ",") {
					coerced++
				}
			}
		}

		present := len(rows) - missing
		switch {
		case present == 0:
			return nil, fmt.Errorf("loader: column %q has no values to impute from", name)
		case parsed == present:
			n, err := imputeMean(values)
			if err != nil {
				return nil, fmt.Errorf("loader: column %q: %w", name, err)
			}
			imputed += n
			if j == targetIdx {
				ds.TopTens = values
				continue
			}
			ds.numericOrder = append(ds.numericOrder, name)
			ds.numeric[name] = values
		case parsed == 0:
			if j == targetIdx {
				return nil, fmt.Errorf("loader: target column %q is not numeric", name)
			}
			strs := make([]string, len(rows))
			for i, row := range rows {
				strs[i] = strings.TrimSpace(cell(row, j))
			}
			ds.categoricalOrder = append(ds.categoricalOrder, name)
			ds.categorical[name] = strs
		default:
			return nil, fmt.Errorf("loader: column %q has unparseable numeric value %q", name, firstBad)
		}
	}

	if ds.TopTens == nil {
		return nil, fmt.Errorf("loader: target column %q not found after cleaning", opts.TargetColumn)
	}
	ds.Target = make([]bool, len(ds.TopTens))
	for i, v := range ds.TopTens {
		ds.Target[i] = v > 0
	}

	log.WithFields(logrus.Fields{
		"rows":             ds.Len(),
		"numeric_cols":     len(ds.numericOrder),
		"categorical_cols": len(ds.categoricalOrder),
		"values_imputed":   imputed,
		"values_coerced":   coerced,
	}).Info("Season data loaded and cleaned")

	return ds, nil
}

// NormalizeColumn rewrites a raw header into a lower_snake_case identifier
func NormalizeColumn(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// parseNumeric handles plain and thousands-separated numbers. The second
// return is true for missing values.
func parseNumeric(raw string) (float64, bool, error) {
	if raw == "" || raw == "NA" || raw == "N/A" {
		return 0, true, nil
	}
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, err
	}
	return v, false, nil
}

// imputeMean replaces NaN entries with the mean of the present values and
// returns how many were filled
func imputeMean(values []float64) (int, error) {
	sum := 0.0
	present := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			present++
		}
	}
	if present == 0 {
		return 0, fmt.Errorf("no non-missing values for imputation")
	}
	mean := sum / float64(present)
	filled := 0
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = mean
			filled++
		}
	}
	return filled, nil
}

func truncateEmpty(rows [][]string) [][]string {
	valid := make([][]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		for _, f := range row {
			if strings.TrimSpace(f) != "" {
				empty = false
				break
			}
		}
		if !empty {
			valid = append(valid, row)
		}
	}
	return valid
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
