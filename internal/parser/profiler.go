package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/workbook"
)

// ValueType classifies one cell value.
type ValueType string

const (
	ValueEmpty   ValueType = "empty"
	ValueBool    ValueType = "boolean"
	ValueDate    ValueType = "date"
	ValueInteger ValueType = "integer"
	ValueNumber  ValueType = "number"
	ValueString  ValueType = "string"
	ValueMixed   ValueType = "mixed"
)

const (
	maxProfileSamples = 5
	emptyDominance    = 0.8
	typeDominance     = 0.6
)

// TypeRatios are per-type shares over the total row count.
type TypeRatios struct {
	String  float64 `json:"string"`
	Number  float64 `json:"number"`
	Integer float64 `json:"integer"`
	Date    float64 `json:"date"`
	Bool    float64 `json:"boolean"`
	Empty   float64 `json:"empty"`
}

// ColumnProfile is the statistical fingerprint of one column,
// independent of its header text. Recomputed per ingestion, never
// persisted; held in reserve as a secondary signal for review surfaces
// rather than overriding the header-based role decision.
type ColumnProfile struct {
	Header     string     `json:"header"`
	Normalized string     `json:"normalized"`
	Tokens     []string   `json:"tokens"`
	Total      int        `json:"total"`
	NonEmpty   int        `json:"nonEmpty"`
	Ratios     TypeRatios `json:"ratios"`
	Samples    []string   `json:"samples"`
	Distinct   int        `json:"distinct"`
	Dominant   ValueType  `json:"dominant"`
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"2006-01-02 15:04:05",
}

var boolTokens = map[string]bool{
	"y": true, "n": true, "yes": true, "no": true,
	"true": true, "false": true, "1": true, "0": true,
	"ok": true, "nok": true, "x": true,
}

// ClassifyValue types one cell with a fixed precedence: empty, then
// boolean, then date, then integer, then number, then string. The
// boolean check runs before the numeric ones so flag columns of
// "1"/"0"/"Y"/"N" are not misread as numbers.
func ClassifyValue(cell workbook.Cell) ValueType {
	switch v := cell.(type) {
	case nil:
		return ValueEmpty
	case bool:
		return ValueBool
	case float64:
		if v == float64(int64(v)) {
			return ValueInteger
		}
		return ValueNumber
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ValueEmpty
		}
		if boolTokens[strings.ToLower(s)] {
			return ValueBool
		}
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return ValueDate
			}
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ValueInteger
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return ValueNumber
		}
		return ValueString
	default:
		return ValueString
	}
}

// ProfileColumn fingerprints one column from its header and ordered
// cell values. Read-only; safe to run concurrently across columns.
func ProfileColumn(header string, values []workbook.Cell) *ColumnProfile {
	p := &ColumnProfile{
		Header:     header,
		Normalized: NormalizeHeader(header),
		Tokens:     TokenizeHeader(header),
		Total:      len(values),
	}

	counts := map[ValueType]int{}
	distinct := map[string]struct{}{}

	for _, cell := range values {
		vt := ClassifyValue(cell)
		counts[vt]++
		if vt == ValueEmpty {
			continue
		}
		p.NonEmpty++
		text := strings.TrimSpace(cellText(cell))
		if _, seen := distinct[text]; !seen {
			distinct[text] = struct{}{}
			if len(p.Samples) < maxProfileSamples {
				p.Samples = append(p.Samples, text)
			}
		}
	}
	p.Distinct = len(distinct)

	if p.Total > 0 {
		total := float64(p.Total)
		p.Ratios = TypeRatios{
			String:  float64(counts[ValueString]) / total,
			Number:  float64(counts[ValueNumber]) / total,
			Integer: float64(counts[ValueInteger]) / total,
			Date:    float64(counts[ValueDate]) / total,
			Bool:    float64(counts[ValueBool]) / total,
			Empty:   float64(counts[ValueEmpty]) / total,
		}
	}

	p.Dominant = dominantType(counts, p.Total, p.NonEmpty)
	return p
}

// dominantType picks the column's overall type: mostly-empty columns
// are "empty"; otherwise a type must cover over 60% of the non-empty
// values, anything less is "mixed".
func dominantType(counts map[ValueType]int, total, nonEmpty int) ValueType {
	if total == 0 {
		return ValueEmpty
	}
	if float64(counts[ValueEmpty])/float64(total) > emptyDominance {
		return ValueEmpty
	}
	if nonEmpty == 0 {
		return ValueEmpty
	}
	for _, vt := range []ValueType{ValueString, ValueNumber, ValueInteger, ValueDate, ValueBool} {
		if float64(counts[vt])/float64(nonEmpty) > typeDominance {
			return vt
		}
	}
	return ValueMixed
}

// FillRate is the share of non-empty cells.
func (p *ColumnProfile) FillRate() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.NonEmpty) / float64(p.Total)
}

// CardinalityRatio is distinct values over non-empty values.
func (p *ColumnProfile) CardinalityRatio() float64 {
	if p.NonEmpty == 0 {
		return 0
	}
	return float64(p.Distinct) / float64(p.NonEmpty)
}

// IsNumericColumn reports whether the column is dominated by numbers.
func (p *ColumnProfile) IsNumericColumn() bool {
	return p.Dominant == ValueNumber || p.Dominant == ValueInteger
}

// IsDateColumn reports whether the column is dominated by dates.
func (p *ColumnProfile) IsDateColumn() bool {
	return p.Dominant == ValueDate
}

// IsMostlyEmpty reports whether the column is effectively blank.
func (p *ColumnProfile) IsMostlyEmpty() bool {
	return p.Dominant == ValueEmpty
}

// IsLikelyIdentifier: high cardinality, mostly text, well filled.
func (p *ColumnProfile) IsLikelyIdentifier() bool {
	return p.CardinalityRatio() > 0.8 && p.Dominant == ValueString && p.FillRate() > 0.7
}

// IsLikelyCategory: low cardinality with a decent fill rate.
func (p *ColumnProfile) IsLikelyCategory() bool {
	return p.NonEmpty >= 4 && p.CardinalityRatio() < 0.3 && p.FillRate() > 0.5
}

func cellText(cell workbook.Cell) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
