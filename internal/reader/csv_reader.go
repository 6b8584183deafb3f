package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSVReader reads family codes from the "code" column of a CSV file
type CSVReader struct {
	csv       *csv.Reader
	codeIndex int
	line      int
}

// NewCSVReader reads the header row and locates the code column
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := codeIndex(headers)
	if err != nil {
		return nil, err
	}
	return &CSVReader{csv: reader, codeIndex: idx, line: 1}, nil
}

func (r *CSVReader) Read() (FamilyRecord, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return FamilyRecord{}, io.EOF
	}
	r.line++
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return FamilyRecord{Line: r.line}, fmt.Errorf("%w: line %d: %v", ErrInvalidRecord, r.line, err)
		}
		return FamilyRecord{}, fmt.Errorf("error reading line %d: %w", r.line, err)
	}
	if r.codeIndex >= len(record) {
		return FamilyRecord{Line: r.line}, fmt.Errorf("%w: line %d has no code column", ErrInvalidRecord, r.line)
	}
	return newRecord(record[r.codeIndex], r.line)
}
