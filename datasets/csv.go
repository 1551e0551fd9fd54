package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/pkg/errors"
)

// LoadCSV reads a numeric CSV file into a feature matrix and label vector.
// Every column except the last is a feature; the last column is the label.
// A non-numeric first row is treated as a header and skipped.
func LoadCSV(path string) (*mat.Dense, *mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV reads CSV-formatted samples from r. See LoadCSV.
func ReadCSV(r io.Reader) (*mat.Dense, *mat.Dense, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse CSV")
	}
	if len(records) == 0 {
		return nil, nil, errors.NewValueError("ReadCSV", "no rows in input")
	}

	start := 0
	if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
		start = 1 // header row
	}
	if len(records) <= start {
		return nil, nil, errors.NewValueError("ReadCSV", "no data rows in input")
	}

	nSamples := len(records) - start
	nCols := len(records[start])
	if nCols < 2 {
		return nil, nil, errors.NewValueError("ReadCSV", "need at least one feature column and one label column")
	}

	X := mat.NewDense(nSamples, nCols-1, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		row := records[start+i]
		if len(row) != nCols {
			return nil, nil, errors.NewDimensionError("ReadCSV", nCols, len(row), 1)
		}
		for j, field := range row {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "row %d column %d is not numeric", start+i, j)
			}
			if j == nCols-1 {
				y.Set(i, 0, v)
			} else {
				X.Set(i, j, v)
			}
		}
	}

	return X, y, nil
}
