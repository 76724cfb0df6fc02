package cipher

import (
	"sort"
	"strings"
)

// LetterFrequency is one row of a frequency table.
type LetterFrequency struct {
	Letter  string  `json:"letter"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

func letterCounts(text string) (counts [26]int, total int) {
	for _, r := range strings.ToUpper(text) {
		if r >= 'A' && r <= 'Z' {
			counts[r-'A']++
			total++
		}
	}
	return counts, total
}

// FrequencyAnalysis counts the ASCII letters of text, most frequent first.
// Letters that do not occur are omitted.
func FrequencyAnalysis(text string) []LetterFrequency {
	counts, total := letterCounts(text)
	out := make([]LetterFrequency, 0, 26)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		out = append(out, LetterFrequency{
			Letter:  string(rune('A' + i)),
			Count:   c,
			Percent: 100 * float64(c) / float64(total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// IndexOfCoincidence is the probability that two letters drawn from text
// without replacement match. English prose sits near 0.066, uniformly
// random letters near 0.038. Fewer than two letters yield 0.
func IndexOfCoincidence(text string) float64 {
	counts, total := letterCounts(text)
	if total < 2 {
		return 0
	}
	sum := 0
	for _, c := range counts {
		sum += c * (c - 1)
	}
	return float64(sum) / float64(total*(total-1))
}
