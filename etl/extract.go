package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"propertyetl/model"

	"github.com/jszwec/csvutil"
)

var ErrEmptyInput = errors.New("etl: input has no header row")

// ReadRecords loads the raw property/repair rows from a CSV file.
func ReadRecords(path string) ([]model.PropertyRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("etl: open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// DecodeRecords parses CSV with a header row. Every record column must be
// present in the header; columns the record does not know are ignored.
func DecodeRecords(r io.Reader) ([]model.PropertyRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("etl: read header: %w", err)
	}
	dec.DisallowMissingColumns = true

	var records []model.PropertyRecord
	for {
		var rec model.PropertyRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// +2: one for the header, one because lines count from 1.
			return nil, fmt.Errorf("etl: line %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
