// Package table holds the structured table extracted from an image and its
// render targets. Cell values are kept verbatim; row and column numbering is
// a display concern applied at render time and never mutates the table.
package table

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// MaxCachedChars caps the serialized table stored on an image row.
const MaxCachedChars = 10000

var (
	ErrTableTooLarge = errors.New("table too large to cache")
	ErrEmptyTable    = errors.New("table has no cells")
	ErrRaggedTable   = errors.New("table rows have differing widths")
)

type Table struct {
	Cells [][]string
}

func (t Table) Rows() int {
	return len(t.Cells)
}

func (t Table) Columns() int {
	if len(t.Cells) == 0 {
		return 0
	}
	return len(t.Cells[0])
}

// Validate rejects empty and ragged tables before they reach storage or a
// render target.
func (t Table) Validate() error {
	if t.Rows() == 0 || t.Columns() == 0 {
		return ErrEmptyTable
	}
	width := t.Columns()
	for _, row := range t.Cells {
		if len(row) != width {
			return ErrRaggedTable
		}
	}
	return nil
}

// Labels are the 1-based row and column numbers shown alongside the table.
type Labels struct {
	Rows    []string
	Columns []string
}

// DisplayLabels computes 1-based labels for a table of the given shape.
// It reads only the dimensions, so applying it any number of times yields
// the same labels.
func (t Table) DisplayLabels() Labels {
	labels := Labels{
		Rows:    make([]string, t.Rows()),
		Columns: make([]string, t.Columns()),
	}
	for i := range labels.Rows {
		labels.Rows[i] = strconv.Itoa(i + 1)
	}
	for j := range labels.Columns {
		labels.Columns[j] = strconv.Itoa(j + 1)
	}
	return labels
}

// MarshalCache serializes the table for the tabular column on an image row.
func (t Table) MarshalCache() (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(t.Cells)
	if err != nil {
		return "", fmt.Errorf("marshal table: %w", err)
	}
	if len(raw) > MaxCachedChars {
		return "", ErrTableTooLarge
	}
	return string(raw), nil
}

func UnmarshalCache(cached string) (Table, error) {
	var cells [][]string
	if err := json.Unmarshal([]byte(cached), &cells); err != nil {
		return Table{}, fmt.Errorf("unmarshal table: %w", err)
	}
	t := Table{Cells: cells}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// WriteCSV renders the table as UTF-8 CSV with no header row and no index
// column.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, row := range t.Cells {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the table as a single-sheet workbook, cell values only,
// matching the CSV conventions.
func (t Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range t.Cells {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
