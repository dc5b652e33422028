package dataset

import (
	"bufio"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// WriteJSONL writes one tokenized record per line.
func WriteJSONL(w io.Writer, records []Tokenized) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadJSONL is the inverse of WriteJSONL.
func ReadJSONL(r io.Reader) ([]Tokenized, error) {
	dec := json.NewDecoder(r)
	var records []Tokenized
	for {
		var rec Tokenized
		err := dec.Decode(&rec)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}
