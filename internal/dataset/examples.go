package dataset

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Split string

const (
	Train      Split = "train"
	Validation Split = "validation"
)

var Splits = []Split{Train, Validation}

// Example is a question paired with the SQL that answers it.
type Example struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

//go:embed data/*.csv
var builtin embed.FS

var ErrUnknownSplit = errors.New("unknown split")
var ErrMissingColumn = errors.New("missing column")

// Builtin returns the examples shipped with the binary.
func Builtin(split Split) ([]Example, error) {
	f, err := builtin.Open("data/" + string(split) + ".csv")
	if err != nil {
		return nil, fmt.Errorf("split '%s', %w", split, ErrUnknownSplit)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV reads examples from a CSV with a header row containing the
// columns question and sql, in any order.
func LoadCSV(r io.Reader) ([]Example, error) {
	in := csv.NewReader(r)
	in.LazyQuotes = true

	header, err := in.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	qcol, scol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "question":
			qcol = i
		case "sql":
			scol = i
		}
	}
	if qcol < 0 {
		return nil, fmt.Errorf("column 'question', %w", ErrMissingColumn)
	}
	if scol < 0 {
		return nil, fmt.Errorf("column 'sql', %w", ErrMissingColumn)
	}

	var examples []Example
	for row := 2; ; row++ {
		record, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		examples = append(examples, Example{
			Question: record[qcol],
			SQL:      record[scol],
		})
	}
	return examples, nil
}
