package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/workbook"
)

// RowInterpreter turns classified data rows into role→value records.
// It never fails on malformed or missing cells; absent values simply
// produce no mapping.
type RowInterpreter struct {
	analysis *SheetSchemaAnalysis
}

// NewRowInterpreter creates an interpreter bound to one sheet's schema.
func NewRowInterpreter(analysis *SheetSchemaAnalysis) *RowInterpreter {
	return &RowInterpreter{analysis: analysis}
}

// Interpret extracts one data row. rowIndex is the grid row index,
// used for anomaly reporting and review display.
func (in *RowInterpreter) Interpret(row []workbook.Cell, rowIndex int) *InterpretedRow {
	rec := &InterpretedRow{
		SheetName: in.analysis.SheetName,
		RowIndex:  rowIndex,
		Values:    make(map[Role]string),
	}

	for _, det := range in.analysis.Detections {
		if det.Role == RoleUnknown {
			continue
		}
		if det.Column >= len(row) {
			continue
		}
		value := FormatCell(row[det.Column])
		if value == "" {
			continue
		}
		// First non-empty column wins when a role maps to several columns.
		if _, exists := rec.Values[det.Role]; !exists {
			rec.Values[det.Role] = value
		}
	}

	rec.Summary = buildSummary(rec.Values)
	return rec
}

// IsEmpty reports whether a row produced no role values at all.
func (r *InterpretedRow) IsEmpty() bool {
	return len(r.Values) == 0
}

// FormatCell renders one cell for display: booleans become Yes/No,
// integral numbers plain digits, other numbers two decimals, text is
// trimmed. Nil yields the empty string.
func FormatCell(cell workbook.Cell) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// summaryIdentityRoles are tried in order for the leading identity
// part of a row summary.
var summaryIdentityRoles = []struct {
	role  Role
	label string
}{
	{RoleToolID, "Tool"},
	{RoleRobotID, "Robot"},
	{RoleGunID, "Gun"},
	{RoleDeviceID, "Device"},
}

// buildSummary produces the short human-readable line shown in audit
// logs and the review queue: identity first, then station, area,
// reuse state and force value.
func buildSummary(values map[Role]string) string {
	var parts []string

	for _, id := range summaryIdentityRoles {
		if v := values[id.role]; v != "" {
			parts = append(parts, fmt.Sprintf("%s %s", id.label, v))
			break
		}
	}
	if v := values[RoleStation]; v != "" {
		parts = append(parts, fmt.Sprintf("Station %s", v))
	}
	if v := values[RoleArea]; v != "" {
		parts = append(parts, fmt.Sprintf("Area %s", v))
	}
	if v := values[RoleReuseStatus]; v != "" {
		parts = append(parts, fmt.Sprintf("Reuse: %s", v))
	}
	if v := values[RoleGunForce]; v != "" {
		parts = append(parts, fmt.Sprintf("Force: %s", v))
	}

	if len(parts) == 0 {
		return "(no identity fields)"
	}
	return strings.Join(parts, " | ")
}
