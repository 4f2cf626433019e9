package video

import (
	"strings"
	"unicode"
)

// fillerPhrases are lead-ins that add nothing to a stock-footage search.
// Ordered longest-first so "the history of rome" loses the whole phrase,
// not just "history of". Stripped at most once, only at the start.
var fillerPhrases = []string{
	"a brief history of",
	"the history of",
	"a history of",
	"history of",
	"the story of",
	"story of",
	"the truth about",
	"how to",
	"what is",
	"what are",
	"about",
	"the",
	"a",
}

// BuildQueries derives the ranked search-term list for a planning run from
// the script topic and its visual keywords. Keywords keep their given order,
// the normalized topic comes last, duplicates collapse to first occurrence,
// and the list is cycled until it reaches minQueries. An empty candidate set
// yields an empty list; the caller must fall back to local-only sourcing.
func BuildQueries(topic string, keywords []string, minQueries int) []string {
	var candidates []string
	for _, k := range keywords {
		candidates = append(candidates, normalizeTerm(k))
	}
	candidates = append(candidates, normalizeTerm(topic))

	seen := make(map[string]bool, len(candidates))
	queries := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		queries = append(queries, c)
	}

	if len(queries) == 0 {
		return nil
	}

	// Duplicate terms at the query-list level are fine; deduplication
	// happens later by asset identity, not by query string.
	for i := 0; len(queries) < minQueries; i++ {
		queries = append(queries, queries[i%len(queries)])
	}

	return queries
}

// normalizeTerm lowercases, strips one leading filler phrase, removes every
// rune that is not alphanumeric or whitespace, and collapses whitespace.
func normalizeTerm(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	for _, phrase := range fillerPhrases {
		if strings.HasPrefix(s, phrase+" ") {
			s = strings.TrimSpace(s[len(phrase):])
			break
		}
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
