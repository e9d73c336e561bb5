package workbook

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// OpenExcel reads an .xlsx file into the workbook abstraction.
// A file that cannot be opened fails as a whole; individual sheets
// that cannot be read are returned empty rather than aborting the rest.
func OpenExcel(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	return fromExcelize(f, filepath.Base(path))
}

// ReadExcel reads .xlsx content from a stream (e.g. an HTTP upload).
func ReadExcel(r io.Reader, fileName string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", fileName, err)
	}
	defer f.Close()

	return fromExcelize(f, fileName)
}

func fromExcelize(f *excelize.File, fileName string) (*Workbook, error) {
	wb := &Workbook{FileName: fileName}

	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			// One unreadable sheet should not sink the file.
			wb.Sheets = append(wb.Sheets, &Sheet{Name: sheetName})
			continue
		}

		grid := make([][]Cell, len(rows))
		for i, row := range rows {
			cells := make([]Cell, len(row))
			for j, v := range row {
				cells[j] = coerceCell(v)
			}
			grid[i] = cells
		}
		wb.Sheets = append(wb.Sheets, &Sheet{Name: sheetName, Rows: grid})
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", fileName)
	}
	return wb, nil
}

// coerceCell maps excelize's string cells onto typed cell values where
// the text is unambiguously numeric or boolean. Anything else stays a
// trimmed string; empty text becomes nil.
func coerceCell(v string) Cell {
	t := strings.TrimSpace(v)
	if t == "" {
		return nil
	}
	switch strings.ToUpper(t) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	// Only plain decimal text becomes a number. Identifier-looking
	// values such as "007" or "1E2" keep their text form.
	if plainNumberRe.MatchString(t) && !(len(t) > 1 && strings.HasPrefix(t, "0") && !strings.HasPrefix(t, "0.")) {
		n, err := strconv.ParseFloat(t, 64)
		if err == nil {
			return n
		}
	}
	return t
}

var plainNumberRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
