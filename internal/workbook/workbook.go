package workbook

// Cell holds one cell value: string, float64, bool or nil.
type Cell any

// Sheet is one named rectangular grid of cells.
type Sheet struct {
	Name string   `json:"name"`
	Rows [][]Cell `json:"rows"`
}

// Workbook is the format-independent view of one source file.
type Workbook struct {
	FileName string   `json:"fileName"`
	Sheets   []*Sheet `json:"sheets"`
}

// SheetNames returns sheet names in file order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Sheet looks a sheet up by name, nil when absent.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// RowCount returns the number of grid rows, header rows included.
func (s *Sheet) RowCount() int {
	return len(s.Rows)
}

// CellAt reads one cell, nil when out of range.
func (s *Sheet) CellAt(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) {
		return nil
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// CellString renders a cell for matching purposes. Non-string cells
// are returned empty; the parser layer does its own typed formatting.
func CellString(c Cell) string {
	if c == nil {
		return ""
	}
	if s, ok := c.(string); ok {
		return s
	}
	return ""
}
