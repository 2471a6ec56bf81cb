// Package spreadsheet reads tabular rows from local .xlsx and .csv files.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrFileNotFound = errors.New("FALLBACK_FILE_MISSING")
	ErrUnreadable   = errors.New("FALLBACK_FILE_UNREADABLE")
)

// Row maps trimmed header text to cell text.
type Row map[string]string

// Reader reads rows from a spreadsheet file.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadRows returns every non-blank row below headerRow (1-based).
// sheet selects a worksheet by name, the first one when empty; csv files ignore it.
func (r *Reader) ReadRows(path, sheet string, headerRow int) ([]Row, error) {
	if headerRow <= 0 {
		headerRow = 1
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	var (
		grid [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		grid, err = readCSV(path)
	} else {
		grid, err = readWorkbook(path, sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	return toRows(grid, headerRow), nil
}

func toRows(grid [][]string, headerRow int) []Row {
	if len(grid) < headerRow {
		return []Row{}
	}

	header := grid[headerRow-1]
	rows := make([]Row, 0, len(grid)-headerRow)
	for _, cells := range grid[headerRow:] {
		row := make(Row, len(header))
		blank := true
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, dup := row[name]; dup {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			if value != "" {
				blank = false
			}
			row[name] = value
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var grid [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		grid = append(grid, record)
	}
	return grid, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	for r, cells := range grid {
		for c, raw := range cells {
			if text, ok := dateText(f, sheet, c+1, r+1, raw); ok {
				grid[r][c] = text
			}
		}
	}
	return grid, nil
}

// dateText renders a date-formatted serial number as ISO text.
func dateText(f *excelize.File, sheet string, col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return "", false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || !isDateFormat(style) {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02"), true
	}
	return t.Format("2006-01-02T15:04:05"), true
}

func isDateFormat(style *excelize.Style) bool {
	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 22,
		style.NumFmt >= 27 && style.NumFmt <= 36,
		style.NumFmt >= 45 && style.NumFmt <= 47,
		style.NumFmt >= 50 && style.NumFmt <= 58:
		return true
	}
	if style.CustomNumFmt == nil {
		return false
	}
	format := strings.ToLower(formatTokens(*style.CustomNumFmt))
	return strings.ContainsAny(format, "yd")
}

// formatTokens drops quoted literals, bracketed sections and escaped
// characters from a number format, leaving only its format codes.
func formatTokens(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		switch c := format[i]; c {
		case '"':
			end := strings.IndexByte(format[i+1:], '"')
			if end < 0 {
				return b.String()
			}
			i += end + 1
		case '[':
			end := strings.IndexByte(format[i+1:], ']')
			if end < 0 {
				return b.String()
			}
			i += end + 1
		case '\\', '_', '*':
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
