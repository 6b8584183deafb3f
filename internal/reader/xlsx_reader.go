package reader

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FamiliesSheet is the sheet read in priority when a workbook has several
const FamiliesSheet = "Families"

// XLSXReader streams family codes from the "code" column of a workbook
type XLSXReader struct {
	file      *excelize.File
	rows      *excelize.Rows
	codeIndex int
	line      int
}

// NewXLSXReader opens the workbook and reads the header row
func NewXLSXReader(r io.Reader) (*XLSXReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("no sheets found in Excel file")
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, FamiliesSheet) {
			sheetName = name
			break
		}
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	if !rows.Next() {
		rows.Close()
		f.Close()
		return nil, fmt.Errorf("sheet %q has no header row", sheetName)
	}
	headers, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()
		return nil, fmt.Errorf("failed to read header of sheet %q: %w", sheetName, err)
	}
	idx, err := codeIndex(headers)
	if err != nil {
		rows.Close()
		f.Close()
		return nil, err
	}
	return &XLSXReader{file: f, rows: rows, codeIndex: idx, line: 1}, nil
}

func (r *XLSXReader) Read() (FamilyRecord, error) {
	if !r.rows.Next() {
		if err := r.rows.Error(); err != nil {
			return FamilyRecord{}, fmt.Errorf("error reading row %d: %w", r.line+1, err)
		}
		return FamilyRecord{}, io.EOF
	}
	r.line++
	columns, err := r.rows.Columns()
	if err != nil {
		return FamilyRecord{Line: r.line}, fmt.Errorf("%w: row %d: %v", ErrInvalidRecord, r.line, err)
	}
	if r.codeIndex >= len(columns) {
		return FamilyRecord{Line: r.line}, fmt.Errorf("%w: row %d has no code", ErrInvalidRecord, r.line)
	}
	return newRecord(columns[r.codeIndex], r.line)
}

// Close releases the workbook
func (r *XLSXReader) Close() error {
	if err := r.rows.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
