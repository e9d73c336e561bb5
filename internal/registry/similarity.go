package registry

import "strings"

// Candidate scoring. Keys are compared segment-wise (area, station,
// identifier); each segment contributes equally. A segment scores 1.0
// when equal and its normalized Levenshtein similarity otherwise,
// except that segments whose digit runs differ score 0: "20" and "30"
// are different stations, not a typo of one another. Typo-level
// differences ("UNDERBDY" for "UNDERBODY") keep a high score and
// surface as review candidates.
//
// Non-identical keys are additionally capped at maxCandidateScore so
// no review candidate can ever reach the score reserved for an exact
// match. Automatic linking happens on exact key or alias hits only,
// never on similarity.
const maxCandidateScore = 0.99

// KeySimilarity scores two canonical keys in [0,1]. Identical keys
// score 1.0; everything else lands at or below maxCandidateScore.
// Deterministic and symmetric.
func KeySimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	partsA := strings.Split(a, "|")
	partsB := strings.Split(b, "|")

	n := len(partsA)
	if len(partsB) > n {
		n = len(partsB)
	}
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		var pa, pb string
		if i < len(partsA) {
			pa = partsA[i]
		}
		if i < len(partsB) {
			pb = partsB[i]
		}
		sum += segmentSimilarity(pa, pb)
	}
	score := sum / float64(n)
	if score > maxCandidateScore {
		score = maxCandidateScore
	}
	return score
}

// segmentSimilarity scores one key segment pair.
func segmentSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if digitSignature(a) != digitSignature(b) {
		return 0
	}
	la, lb := len(a), len(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(editDistance(a, b))/float64(maxLen)
}

// digitSignature concatenates the digit runs of a segment. Segments
// that disagree here name different pieces of equipment.
func digitSignature(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// editDistance is the classic Levenshtein distance over bytes; keys
// are ASCII after normalization.
func editDistance(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
