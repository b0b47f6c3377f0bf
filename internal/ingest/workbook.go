package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

//
// ────────────────────────────────────────────────
//   Workbook Reading
// ────────────────────────────────────────────────
//

// Table is one sheet flattened to a trimmed header row plus data rows.
// Ragged rows are padded so every row has len(Headers) cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the value of the named column for a row, or "" when the row
// has no such cell.
func (t Table) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ReadWorkbook opens an xlsx file and flattens its first sheet into a Table.
// Header cells are stripped of surrounding whitespace, mirroring the raw
// exports which frequently carry trailing spaces.
func ReadWorkbook(path string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Table{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}

	return Table{Headers: headers, Rows: data}, nil
}

// ReadCSV flattens a CSV file into a Table with the same trimming and
// padding conventions as ReadWorkbook.
func ReadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // exports are ragged
	rows, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return Table{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}
	return Table{Headers: headers, Rows: data}, nil
}

// ReadTable dispatches on the file extension: CSV for .csv, xlsx otherwise.
func ReadTable(path string) (Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(path)
	}
	return ReadWorkbook(path)
}

//
// ────────────────────────────────────────────────
//   File Location
// ────────────────────────────────────────────────
//

// InternalFileName is the exact expected name of the primary export.
const InternalFileName = "Predictive Analysis Commodity pricing.xlsx"

// ExternalFilePath is the fixed relative path of the scraped export.
const ExternalFilePath = "data/clean_prices.xlsx"

// LocateInternalFile looks for the primary export under dir: exact name in
// dir and dir/data, then the predictive*.xlsx glob in both. Returns
// ("", false) when nothing matches.
func LocateInternalFile(dir string) (string, bool) {
	candidates := []string{
		filepath.Join(dir, InternalFileName),
		filepath.Join(dir, "data", InternalFileName),
	}
	for _, p := range candidates {
		if fileExists(p) {
			return p, true
		}
	}

	for _, pattern := range []string{
		filepath.Join(dir, "predictive*.xlsx"),
		filepath.Join(dir, "data", "predictive*.xlsx"),
	} {
		matches, err := filepath.Glob(pattern)
		if err == nil && len(matches) > 0 {
			return matches[0], true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

//
// ────────────────────────────────────────────────
//   Cell Parsing
// ────────────────────────────────────────────────
//

// dateLayouts are tried in order. Excel either preserves the export's text
// form or reformats through the cell style, so both ISO and US forms appear
// in the wild.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06 15:04",
	"1/2/06",
	"2006/01/02",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a date cell. The bool result is false for cells no layout
// accepts; callers drop the row.
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Excel serial date: days since the 1899-12-30 epoch.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		return excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour))), true
	}
	return time.Time{}, false
}

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParsePrice parses a numeric price cell, tolerating thousands separators,
// currency marks, and surrounding whitespace. The bool result is false for
// unparseable cells; callers drop the row.
func ParsePrice(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₦")
	s = strings.TrimPrefix(s, "N")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
