// Package reader streams the family codes a recomputation job works on.
package reader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrInvalidRecord marks a record the job must skip before reading the next one
var ErrInvalidRecord = errors.New("invalid record")

// CodeColumn is the header every tabular input needs
const CodeColumn = "code"

// FamilyRecord is one family to recompute
type FamilyRecord struct {
	Code string
	Line int
}

// Reader returns records one at a time and io.EOF at the end of input
type Reader interface {
	Read() (FamilyRecord, error)
}

// SliceReader reads family codes already in memory
type SliceReader struct {
	codes []string
	pos   int
}

func NewSliceReader(codes []string) *SliceReader {
	return &SliceReader{codes: codes}
}

func (r *SliceReader) Read() (FamilyRecord, error) {
	if r.pos >= len(r.codes) {
		return FamilyRecord{}, io.EOF
	}
	r.pos++
	return newRecord(r.codes[r.pos-1], r.pos)
}

func newRecord(code string, line int) (FamilyRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return FamilyRecord{Line: line}, fmt.Errorf("%w: line %d has an empty code", ErrInvalidRecord, line)
	}
	return FamilyRecord{Code: code, Line: line}, nil
}

// normalizeHeaders lowercases headers and drops the required marker
func normalizeHeaders(headers []string) []string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.ToLower(h))
		normalized[i] = strings.TrimSuffix(h, " *")
	}
	return normalized
}

func codeIndex(headers []string) (int, error) {
	for i, h := range normalizeHeaders(headers) {
		if h == CodeColumn {
			return i, nil
		}
	}
	return -1, fmt.Errorf("missing %q column in header", CodeColumn)
}

// ForFile picks the reader matching the file extension (.csv, .xlsx)
func ForFile(filename string, r io.Reader) (Reader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return NewCSVReader(r)
	case ".xlsx":
		return NewXLSXReader(r)
	default:
		return nil, fmt.Errorf("unsupported file format %q: use .csv or .xlsx", filepath.Ext(filename))
	}
}
