package ponder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zoobzio/capitan"
)

// sectionDelimiter opens a section when it prefixes a line. The rest of
// the line names the section.
const sectionDelimiter = "File: "

// Section is one delimited region of a sectioned document.
type Section struct {
	Name     string
	Text     string
	Position int
}

// RankedSection is a section with its relevance score.
type RankedSection struct {
	Section
	Score float64
}

// SplitSections cuts a document into sections at lines beginning with
// "File: ". Each section's text runs from its delimiter line up to the
// next delimiter or end of input, delimiter line included. Text before
// the first delimiter is discarded. Returns nil when the document has
// no delimiter at all.
func SplitSections(doc string) []Section {
	var sections []Section
	var current *Section
	var buf strings.Builder

	flush := func() {
		if current != nil {
			current.Text = buf.String()
			sections = append(sections, *current)
			buf.Reset()
		}
	}

	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, sectionDelimiter) {
			flush()
			current = &Section{
				Name:     strings.TrimSpace(line[len(sectionDelimiter):]),
				Position: len(sections),
			}
		}
		if current != nil {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()
	return sections
}

// Sieve scores document sections against a query and keeps only the
// most relevant ones, shrinking oversized context before it reaches
// the generator.
//
// Scoring counts literal substring occurrences, case-insensitively:
// query terms weigh double, extracted keywords weigh single. Section
// names steer the score: test and spec files are halved, interface,
// type, and model files are boosted. Equal scores preserve document
// order.
type Sieve struct {
	topK        int
	stopwords   map[string]struct{}
	maxKeywords int
	report      io.Writer
	cache       *gocache.Cache
}

// NewSieve returns a sieve with default limits, reporting rankings to
// stderr and no result cache.
func NewSieve() *Sieve {
	return &Sieve{
		topK:        DefaultTopSections,
		stopwords:   DefaultStopwords,
		maxKeywords: DefaultMaxKeywords,
		report:      os.Stderr,
	}
}

// WithTopK sets how many sections survive filtering. Non-positive
// values are ignored.
func (s *Sieve) WithTopK(n int) *Sieve {
	if n > 0 {
		s.topK = n
	}
	return s
}

// WithStopwords replaces the stopword set used for keyword extraction.
func (s *Sieve) WithStopwords(set map[string]struct{}) *Sieve {
	if set != nil {
		s.stopwords = set
	}
	return s
}

// WithMaxKeywords caps keyword extraction. Non-positive values are
// ignored.
func (s *Sieve) WithMaxKeywords(n int) *Sieve {
	if n > 0 {
		s.maxKeywords = n
	}
	return s
}

// WithReport redirects the human-readable ranking report.
func (s *Sieve) WithReport(w io.Writer) *Sieve {
	if w != nil {
		s.report = w
	}
	return s
}

// WithCache memoizes filter results keyed by document, query, keywords,
// and limit. Entries expire after ttl; cleanup sets the sweep interval.
func (s *Sieve) WithCache(ttl, cleanup time.Duration) *Sieve {
	s.cache = gocache.New(ttl, cleanup)
	return s
}

// Keywords extracts query keywords using the sieve's stopwords and cap.
func (s *Sieve) Keywords(text string) []string {
	return ExtractKeywords(text, s.stopwords, s.maxKeywords)
}

// Rank scores every section of doc against the query and keywords and
// returns them ordered best-first. Equal scores keep document order.
func (s *Sieve) Rank(ctx context.Context, doc, query string, keywords []string) []RankedSection {
	sections := SplitSections(doc)
	if len(sections) == 0 {
		return nil
	}

	var queryTerms []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(term) > 3 {
			queryTerms = append(queryTerms, term)
		}
	}

	ranked := make([]RankedSection, len(sections))
	for i, sec := range sections {
		lowered := strings.ToLower(sec.Text)

		score := 0.0
		for _, term := range queryTerms {
			score += 2 * float64(strings.Count(lowered, term))
		}
		for _, kw := range keywords {
			k := strings.ToLower(kw)
			if k == "" {
				continue
			}
			score += float64(strings.Count(lowered, k))
		}

		name := strings.ToLower(sec.Name)
		if strings.Contains(name, "test") || strings.Contains(name, "spec") {
			score *= 0.5
		}
		if strings.Contains(name, "interface") || strings.Contains(name, "type") || strings.Contains(name, "model") {
			score *= 1.5
		}

		ranked[i] = RankedSection{Section: sec, Score: score}
	}

	// Stable sort keeps equal scores in document order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Filter returns doc reduced to its most relevant sections, reassembled
// in score order and separated by blank lines. A document with no
// sections filters to the empty string. When a cache is configured,
// repeated calls with identical inputs return the cached result without
// re-ranking or re-reporting.
func (s *Sieve) Filter(ctx context.Context, doc, query string, keywords []string) string {
	var key string
	if s.cache != nil {
		key = sieveKey(doc, query, keywords, s.topK)
		if cached, ok := s.cache.Get(key); ok {
			if out, ok := cached.(string); ok {
				return out
			}
		}
	}

	ranked := s.Rank(ctx, doc, query, keywords)
	selected := ranked
	if len(selected) > s.topK {
		selected = selected[:s.topK]
	}

	var b strings.Builder
	for _, sec := range selected {
		b.WriteString(sec.Text)
		if !strings.HasSuffix(sec.Text, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	out := b.String()

	if len(selected) > 0 {
		fmt.Fprint(s.report, RenderRanking(selected))
		capitan.Emit(ctx, SectionsRanked,
			FieldSectionCount.Field(len(ranked)),
			FieldSelectedCount.Field(len(selected)),
			FieldTopSection.Field(selected[0].Name),
			FieldTopScore.Field(float32(selected[0].Score)),
		)
	}

	if s.cache != nil {
		s.cache.Set(key, out, gocache.DefaultExpiration)
	}
	return out
}

func sieveKey(doc, query string, keywords []string, topK int) string {
	h := sha256.New()
	io.WriteString(h, doc)
	h.Write([]byte{0})
	io.WriteString(h, query)
	h.Write([]byte{0})
	for _, kw := range keywords {
		io.WriteString(h, kw)
		h.Write([]byte{0x1f})
	}
	io.WriteString(h, strconv.Itoa(topK))
	return hex.EncodeToString(h.Sum(nil))
}

// FilterDocument is the one-shot form of [Sieve.Filter] with default
// settings. A non-positive topK means [DefaultTopSections].
func FilterDocument(ctx context.Context, doc, query string, keywords []string, topK int) string {
	return NewSieve().WithTopK(topK).Filter(ctx, doc, query, keywords)
}
