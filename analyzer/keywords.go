package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	minTokenRunes     = 3
	maxRankedKeywords = 100
)

// tokenPattern captures word runs: letters, combining marks, digits,
// underscores and hyphens.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_-]+`)

// Tokenizer splits visible page text into ranked keywords
type Tokenizer struct {
	stopwords StopwordSet
}

// NewTokenizer creates a tokenizer that drops the given stopwords
func NewTokenizer(stopwords StopwordSet) *Tokenizer {
	return &Tokenizer{stopwords: stopwords}
}

// Tokens lowercases text and returns its words of at least three characters,
// in document order.
func (t *Tokenizer) Tokens(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.Trim(m, "-")
		if utf8.RuneCountInString(m) < minTokenRunes {
			continue
		}
		tokens = append(tokens, m)
	}
	return tokens
}

// Rank returns up to 100 distinct words ordered by frequency. Words with
// equal counts keep the order in which they first appeared.
func (t *Tokenizer) Rank(text string) []string {
	counts := make(map[string]int)
	var order []string

	for _, tok := range t.Tokens(text) {
		if t.stopwords.Contains(tok) || strings.HasPrefix(tok, "http") {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxRankedKeywords {
		order = order[:maxRankedKeywords]
	}
	return order
}

// Keywords ranks text and partitions the result by script. Words that are
// neither Arabic nor plain ASCII are dropped.
func (t *Tokenizer) Keywords(text string) KeywordSet {
	var set KeywordSet
	for _, word := range t.Rank(text) {
		switch {
		case containsArabic(word):
			set.Arabic = append(set.Arabic, word)
		case isASCII(word):
			set.English = append(set.English, word)
		}
	}

	set.Arabic = dedupe(set.Arabic)
	set.English = dedupe(set.English)
	return set
}

func containsArabic(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// dedupe removes repeated entries, keeping the first occurrence
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
