package ponder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		stopwords map[string]struct{}
		maxTerms  int
		want      []string
	}{
		{
			name:      "filters stopwords and short tokens",
			text:      "The quick brown fox jumps over the lazy dog",
			stopwords: map[string]struct{}{"the": {}, "over": {}},
			maxTerms:  10,
			want:      []string{"quick", "brown", "jumps", "lazy"},
		},
		{
			name:     "frequency ranks first",
			text:     "parser parser parser lexer lexer token",
			maxTerms: 10,
			want:     []string{"parser", "lexer", "token"},
		},
		{
			name:     "ties keep first appearance order",
			text:     "gamma alpha gamma alpha beta beta",
			maxTerms: 10,
			want:     []string{"gamma", "alpha", "beta"},
		},
		{
			name:     "punctuation splits tokens",
			text:     "cache.Invalidate(cache) -> cache!",
			maxTerms: 10,
			want:     []string{"cache", "invalidate"},
		},
		{
			name:     "max terms truncates",
			text:     "alpha alpha beta beta gamma delta",
			maxTerms: 2,
			want:     []string{"alpha", "beta"},
		},
		{
			name:     "short tokens dropped",
			text:     "api db orm sql code code",
			maxTerms: 10,
			want:     []string{"code"},
		},
		{
			name:     "empty text",
			text:     "",
			maxTerms: 10,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.text, tt.stopwords, tt.maxTerms)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractKeywords() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractKeywordsDefaults(t *testing.T) {
	// Nil stopwords means the default prose set; "the" and "with" must
	// not survive.
	got := ExtractKeywords("the problem with the parser", nil, 0)
	want := []string{"problem", "parser"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractKeywords() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	text := "retry backoff retry jitter backoff retry timeout"
	first := ExtractKeywords(text, nil, 5)
	for i := 0; i < 10; i++ {
		again := ExtractKeywords(text, nil, 5)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d diverged (-first +again):\n%s", i, diff)
		}
	}
}
