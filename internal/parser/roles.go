package parser

import (
	"fmt"
	"sort"
	"strings"
)

// RoleDetector maps normalized headers onto the closed role vocabulary
// using the ordered pattern table. It is a pure header-text function:
// column values never influence the decision, which keeps every
// assignment reproducible and explainable from the table alone.
type RoleDetector struct {
	groups []RolePatternGroup
}

// NewRoleDetector creates a detector over the loaded vocabulary.
func NewRoleDetector(vocab *Vocabulary) *RoleDetector {
	return &RoleDetector{groups: vocab.RoleGroups}
}

// Detect maps one raw header to a role. Exact pattern hits return the
// group's declared confidence; substring hits are downgraded one tier.
// Table order encodes specificity, first match wins.
func (d *RoleDetector) Detect(column int, rawHeader string) ColumnRoleDetection {
	det := ColumnRoleDetection{
		Column:     column,
		Header:     rawHeader,
		Normalized: NormalizeHeader(rawHeader),
	}

	if det.Normalized == "" {
		det.Role = RoleUnknown
		det.Confidence = ConfidenceLow
		det.Reason = "empty header"
		return det
	}

	for _, group := range d.groups {
		for _, pattern := range group.Patterns {
			if det.Normalized == pattern {
				det.Role = group.Role
				det.Confidence = group.Confidence
				det.Pattern = pattern
				det.Reason = fmt.Sprintf("exact match on %q", pattern)
				return det
			}
		}
		for _, pattern := range group.Patterns {
			if strings.Contains(det.Normalized, pattern) {
				det.Role = group.Role
				det.Confidence = group.Confidence.Downgrade()
				det.Pattern = pattern
				det.Reason = fmt.Sprintf("header contains %q", pattern)
				return det
			}
		}
	}

	det.Role = RoleUnknown
	det.Confidence = ConfidenceLow
	det.Reason = "no pattern matched"
	return det
}

// AnalyzeHeaders runs role detection over a full header row and builds
// the sheet-level aggregate with the role→columns lookup and coverage.
func (d *RoleDetector) AnalyzeHeaders(sheetName string, headerRow int, headers []string) *SheetSchemaAnalysis {
	analysis := &SheetSchemaAnalysis{
		SheetName:   sheetName,
		HeaderRow:   headerRow,
		RoleColumns: make(map[Role][]int),
	}

	for i, h := range headers {
		det := d.Detect(i, h)
		analysis.Detections = append(analysis.Detections, det)
		if det.Role == RoleUnknown {
			analysis.Unknown++
			continue
		}
		analysis.KnownCount++
		analysis.RoleColumns[det.Role] = append(analysis.RoleColumns[det.Role], i)
	}

	for role := range analysis.RoleColumns {
		sort.Ints(analysis.RoleColumns[role])
	}

	total := analysis.KnownCount + analysis.Unknown
	if total > 0 {
		analysis.Coverage = float64(analysis.KnownCount) / float64(total) * 100
	}
	return analysis
}
