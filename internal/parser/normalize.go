package parser

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeHeader canonicalizes raw header text for pattern matching:
// lower case, trimmed, underscores and hyphens folded to spaces,
// internal whitespace collapsed. Empty or nil input yields "".
func NormalizeHeader(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ToLower(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TokenizeHeader splits a raw header into lower-cased tokens, breaking
// on separators and camel-case boundaries. All-uppercase acronym runs
// stay intact: "OLPStatus" → ["olp", "status"], "RobotID" → ["robot", "id"].
func TokenizeHeader(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	isSep := func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("_-./\\()[]{}:;,|", r)
	}

	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSep(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			// lower→Upper boundary: "robotId" splits before "Id".
			if unicode.IsLower(prev) && unicode.IsUpper(r) {
				flush()
			} else if unicode.IsUpper(prev) && unicode.IsUpper(r) {
				// Upper run followed by lower starts a new word at the
				// last capital: "OLPStatus" keeps "OLP", starts "Status".
				if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					flush()
				}
			} else if unicode.IsDigit(prev) != unicode.IsDigit(r) {
				// letter↔digit boundary: "Station010" → "station", "010".
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return tokens
}
