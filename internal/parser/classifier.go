package parser

import (
	"strings"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/workbook"
)

// SheetClassifier scores every sheet of a workbook against the
// category signatures and keeps the best sheet per category plus an
// overall best pick. Sheets that clear no guard end up unclassified
// rather than defaulted to a best guess.
type SheetClassifier struct {
	vocab *Vocabulary
}

// NewSheetClassifier creates a classifier over the loaded vocabulary.
func NewSheetClassifier(vocab *Vocabulary) *SheetClassifier {
	return &SheetClassifier{vocab: vocab}
}

// ClassifyWorkbook scores all sheets. For each category the winning
// sheet is kept; Best is the single highest-scoring pairing overall,
// ties broken by strong-match count then data-row count.
func (c *SheetClassifier) ClassifyWorkbook(wb *workbook.Workbook) *WorkbookClassification {
	result := &WorkbookClassification{
		ByCategory: make(map[Category]*CategoryMatch),
	}
	if wb == nil {
		return result
	}

	for _, sheet := range wb.Sheets {
		if c.isReservedSheet(sheet.Name) {
			continue
		}
		for _, match := range c.scoreSheet(sheet) {
			cur := result.ByCategory[match.Category]
			if cur == nil || betterMatch(match, cur) {
				result.ByCategory[match.Category] = match
			}
		}
	}

	for _, match := range result.ByCategory {
		if result.Best == nil || betterMatch(match, result.Best) {
			result.Best = match
		}
	}
	return result
}

// scoreSheet evaluates one sheet against every category signature and
// returns the pairings that clear the guards.
func (c *SheetClassifier) scoreSheet(sheet *workbook.Sheet) []*CategoryMatch {
	rules := c.vocab.Scoring
	var matches []*CategoryMatch

	for i := range c.vocab.Categories {
		sig := &c.vocab.Categories[i]

		best := c.bestHeaderRow(sheet, sig)
		if best == nil {
			continue
		}

		dataRows := sheet.RowCount() - best.HeaderRow - 1
		if dataRows < 0 {
			dataRows = 0
		}
		best.DataRows = dataRows

		// Row-count guard: a near-empty sheet only qualifies when a
		// strong keyword vouches for it, so a scratch sheet cannot
		// out-score a real data sheet on weak coincidences.
		if dataRows < rules.MinDataRows && best.StrongMatches == 0 {
			continue
		}

		best.NameScore = c.nameScore(sheet.Name, sig)
		best.Score += best.NameScore

		// Score floor: weak hits alone must not claim a category. A
		// strong keyword identifies the category on its own, so the
		// floor only applies to weak-only matches.
		if best.StrongMatches == 0 && best.Score < rules.MinScore {
			continue
		}
		matches = append(matches, best)
	}
	return matches
}

// bestHeaderRow scans candidate header rows from the top within the
// configured depth and keeps the row with the highest keyword score.
// Rows with too few text cells are skipped as too sparse to be headers.
func (c *SheetClassifier) bestHeaderRow(sheet *workbook.Sheet, sig *CategorySignature) *CategoryMatch {
	rules := c.vocab.Scoring
	depth := rules.MaxScanDepth
	if depth > len(sheet.Rows) {
		depth = len(sheet.Rows)
	}

	var best *CategoryMatch
	for rowIdx := 0; rowIdx < depth; rowIdx++ {
		cells := textCells(sheet.Rows[rowIdx])
		if len(cells) < rules.MinHeaderCells {
			continue
		}

		var matched []string
		strong := 0
		for _, kw := range sig.Strong {
			if anyCellContains(cells, kw) {
				matched = append(matched, kw)
				strong++
			}
		}
		weak := 0
		for _, kw := range sig.Weak {
			if anyCellContains(cells, kw) {
				matched = append(matched, kw)
				weak++
			}
		}
		if strong == 0 && weak == 0 {
			continue
		}

		score := float64(strong)*rules.StrongWeight + float64(weak)*rules.WeakWeight
		if best == nil || score > best.Score {
			best = &CategoryMatch{
				Category:        sig.Category,
				SheetName:       sheet.Name,
				HeaderRow:       rowIdx,
				MatchedKeywords: matched,
				StrongMatches:   strong,
				Score:           score,
			}
		}
	}
	return best
}

// nameScore adds the fixed sheet-name bonus for recognized fragments
// and the penalty for generic names like "Data" or "Sheet1".
func (c *SheetClassifier) nameScore(sheetName string, sig *CategorySignature) float64 {
	rules := c.vocab.Scoring
	name := strings.ToLower(strings.TrimSpace(sheetName))

	score := 0.0
	for _, hint := range sig.NameHints {
		if strings.Contains(name, hint) {
			score += rules.NameBonus
			break
		}
	}
	for _, generic := range c.vocab.GenericNames {
		if name == generic {
			score -= rules.GenericPenalty
			break
		}
	}
	return score
}

func (c *SheetClassifier) isReservedSheet(sheetName string) bool {
	name := strings.ToLower(strings.TrimSpace(sheetName))
	for _, reserved := range c.vocab.ReservedSheets {
		if name == reserved {
			return true
		}
	}
	return false
}

// betterMatch orders pairings by score, then strong matches, then rows.
func betterMatch(a, b *CategoryMatch) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.StrongMatches != b.StrongMatches {
		return a.StrongMatches > b.StrongMatches
	}
	return a.DataRows > b.DataRows
}

func textCells(row []workbook.Cell) []string {
	var cells []string
	for _, c := range row {
		s := strings.TrimSpace(workbook.CellString(c))
		if s != "" {
			cells = append(cells, strings.ToLower(s))
		}
	}
	return cells
}

func anyCellContains(cells []string, keyword string) bool {
	for _, cell := range cells {
		if strings.Contains(cell, keyword) {
			return true
		}
	}
	return false
}
