package ponder

import (
	"regexp"
	"strconv"
	"strings"
)

// Meta is the commentary a generator may embed in its output on
// dedicated marker lines.
type Meta struct {
	Note         string
	Confidence   float64
	Alternatives []string
}

// Marker lines are matched whole: the marker must open the line, aside
// from leading whitespace, and is case-insensitive.
var (
	metaNotePattern     = regexp.MustCompile(`(?i)^\s*META:\s*(.+)$`)
	confidencePattern   = regexp.MustCompile(`(?i)^\s*CONFIDENCE:\s*([0-9]+(?:\.[0-9]+)?)\s*%?\s*$`)
	alternativesPattern = regexp.MustCompile(`(?i)^\s*ALTERNATIVES:\s*(.+)$`)
)

// ExtractMeta strips marker lines from generated text and returns the
// parsed commentary alongside the cleaned body.
//
// Only the first occurrence of each marker counts; later duplicates
// stay in the body untouched. Confidence is read as a percentage and
// clamped to [0, 1]. Alternatives are split on "|" with empties
// dropped. The body is the remaining lines, trimmed.
func ExtractMeta(raw string) (Meta, string) {
	var meta Meta
	var noteFound, confFound, altFound bool

	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !noteFound {
			if m := metaNotePattern.FindStringSubmatch(line); m != nil {
				meta.Note = strings.TrimSpace(m[1])
				noteFound = true
				continue
			}
		}
		if !confFound {
			if m := confidencePattern.FindStringSubmatch(line); m != nil {
				pct, err := strconv.ParseFloat(m[1], 64)
				if err == nil {
					meta.Confidence = clampUnit(pct / 100)
				}
				confFound = true
				continue
			}
		}
		if !altFound {
			if m := alternativesPattern.FindStringSubmatch(line); m != nil {
				for _, alt := range strings.Split(m[1], "|") {
					if trimmed := strings.TrimSpace(alt); trimmed != "" {
						meta.Alternatives = append(meta.Alternatives, trimmed)
					}
				}
				altFound = true
				continue
			}
		}
		kept = append(kept, line)
	}

	return meta, strings.TrimSpace(strings.Join(kept, "\n"))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
