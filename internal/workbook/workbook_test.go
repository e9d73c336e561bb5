package workbook

import "testing"

func TestCoerceCell(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Cell
	}{
		{"", nil},
		{"   ", nil},
		{"TRUE", true},
		{"false", false},
		{"42", 42.0},
		{"-3.5", -3.5},
		{"0.25", 0.25},
		{"007", "007"},   // leading zeros are identifiers, not numbers
		{"1E2", "1E2"},   // scientific notation stays text
		{"OP-020", "OP-020"},
		{" R-2000iC ", "R-2000iC"},
	}
	for _, c := range cases {
		if got := coerceCell(c.in); got != c.want {
			t.Fatalf("coerceCell(%q) = %v (%T), want %v (%T)", c.in, got, got, c.want, c.want)
		}
	}
}

func TestSheetAccessors(t *testing.T) {
	t.Parallel()

	wb := &Workbook{
		FileName: "plant.xlsx",
		Sheets: []*Sheet{
			{Name: "Guns", Rows: [][]Cell{{"Gun No", "Station"}, {"G-1", "OP-010"}}},
			{Name: "Robots"},
		},
	}

	names := wb.SheetNames()
	if len(names) != 2 || names[0] != "Guns" || names[1] != "Robots" {
		t.Fatalf("sheet names: %v", names)
	}
	if wb.Sheet("Guns") == nil || wb.Sheet("missing") != nil {
		t.Fatalf("sheet lookup broken")
	}

	s := wb.Sheet("Guns")
	if s.RowCount() != 2 {
		t.Fatalf("row count = %d", s.RowCount())
	}
	if got := s.CellAt(1, 1); got != "OP-010" {
		t.Fatalf("CellAt(1,1) = %v", got)
	}
	for _, bad := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		if got := s.CellAt(bad[0], bad[1]); got != nil {
			t.Fatalf("CellAt(%d,%d) = %v, want nil", bad[0], bad[1], got)
		}
	}
}

func TestCellString(t *testing.T) {
	t.Parallel()

	if CellString("Station") != "Station" {
		t.Fatalf("string cell lost")
	}
	if CellString(nil) != "" || CellString(42.0) != "" || CellString(true) != "" {
		t.Fatalf("non-string cells must render empty for matching")
	}
}
