package store

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// words lower-cases s and splits it on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(fold.String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// trigrams returns the trigram set of s the way pg_trgm builds it: each word
// is padded with two leading spaces and one trailing space.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range words(s) {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// similarity mirrors pg_trgm's similarity(): shared trigrams over the union.
func similarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// tokenCoverage is the share of query words present in the document. It
// stands in for full-text rank in the in-memory store.
func tokenCoverage(document, query string) float64 {
	q := words(query)
	if len(q) == 0 {
		return 0
	}
	doc := make(map[string]struct{})
	for _, w := range words(document) {
		doc[w] = struct{}{}
	}
	hits := 0
	for _, w := range q {
		if _, ok := doc[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// matchesAll reports whether every query word appears in the document, the way
// a plainto_tsquery AND-query matches.
func matchesAll(document, query string) bool {
	return len(words(query)) > 0 && tokenCoverage(document, query) == 1
}
