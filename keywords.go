package ponder

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultStopwords is the prose vocabulary excluded from keyword
// extraction: articles, pronouns, auxiliaries, prepositions, and
// similar connective words that carry no topical signal.
var DefaultStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "can": {},
	"to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "with": {}, "at": {},
	"by": {}, "from": {}, "as": {}, "into": {}, "through": {}, "during": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "under": {},
	"between": {}, "about": {}, "and": {}, "but": {}, "or": {}, "nor": {},
	"so": {}, "yet": {}, "if": {}, "then": {}, "else": {}, "when": {},
	"where": {}, "why": {}, "how": {}, "all": {}, "each": {}, "every": {},
	"both": {}, "few": {}, "more": {}, "most": {}, "other": {}, "some": {},
	"such": {}, "no": {}, "not": {}, "only": {}, "own": {}, "same": {},
	"than": {}, "too": {}, "very": {}, "just": {}, "now": {}, "here": {},
	"there": {}, "again": {}, "until": {}, "while": {}, "because": {},
	"any": {}, "this": {}, "that": {}, "these": {}, "those": {}, "it": {},
	"its": {}, "i": {}, "you": {}, "he": {}, "she": {}, "we": {}, "they": {},
	"my": {}, "your": {}, "his": {}, "her": {}, "our": {}, "their": {},
	"me": {}, "him": {}, "us": {}, "them": {}, "what": {}, "which": {},
	"who": {},
}

// ExtractKeywords pulls the most frequent topical terms from text.
//
// Text is lowercased and split on punctuation, symbols, and whitespace.
// Tokens shorter than four runes and tokens in the stopword set are
// discarded. Survivors are ranked by frequency, ties broken by first
// appearance, and the top maxTerms are returned in rank order.
//
// A nil stopwords set means [DefaultStopwords]; a non-positive maxTerms
// means [DefaultMaxKeywords]. Output depends only on the inputs.
func ExtractKeywords(text string, stopwords map[string]struct{}, maxTerms int) []string {
	if stopwords == nil {
		stopwords = DefaultStopwords
	}
	if maxTerms <= 0 {
		maxTerms = DefaultMaxKeywords
	}

	normalized := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, text)

	counts := make(map[string]int)
	var order []string
	for _, token := range strings.Fields(normalized) {
		if utf8.RuneCountInString(token) < 4 {
			continue
		}
		if _, ok := stopwords[token]; ok {
			continue
		}
		if counts[token] == 0 {
			order = append(order, token)
		}
		counts[token]++
	}

	// Stable sort keeps first-appearance order among equal counts.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxTerms {
		order = order[:maxTerms]
	}
	return order
}
