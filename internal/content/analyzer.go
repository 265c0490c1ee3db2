// Package content isolates how free text is understood.
//
// Everything that reads submitted phase content (criteria matching,
// quality heuristics, rationale extraction) goes through Analyzer, so the
// matching strategy can change without touching the state machine.
// The only implementation today is keyword and regex based.
package content

import (
	"regexp"
	"strings"
)

// Stats summarizes the shape of a piece of text.
type Stats struct {
	Words     int     `json:"words"`
	Sentences int     `json:"sentences"`
	Blocks    int     `json:"blocks"`
	Headings  bool    `json:"headings"`
	Bullets   bool    `json:"bullets"`
	AvgWords  float64 `json:"avg_words_per_sentence"`
}

// Analyzer answers questions about submitted text.
type Analyzer interface {
	// Contains reports whether keyword occurs in text, ignoring case.
	Contains(text, keyword string) bool
	// Matched returns the keywords that occur in text, in input order.
	Matched(text string, keywords []string) []string
	// Stats computes word, sentence and markdown structure statistics.
	Stats(text string) Stats
	// Extract returns the first capture group of every match of pattern.
	Extract(text string, pattern *regexp.Regexp) []string
}

var (
	headingPattern  = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	bulletPattern   = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+\S`)
	blockSeparator  = regexp.MustCompile(`\n\s*\n`)
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	whitespaceRunes = regexp.MustCompile(`\s+`)
)

// KeywordAnalyzer is the keyword/regex Analyzer.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer returns the default Analyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

// Contains reports case-insensitive substring presence. An empty keyword
// never matches.
func (a *KeywordAnalyzer) Contains(text, keyword string) bool {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(kw))
}

// Matched returns the keywords present in text.
func (a *KeywordAnalyzer) Matched(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(lower, k) {
			out = append(out, kw)
		}
	}
	return out
}

// Stats computes text statistics.
func (a *KeywordAnalyzer) Stats(text string) Stats {
	st := Stats{
		Words:    len(strings.Fields(text)),
		Headings: headingPattern.MatchString(text),
		Bullets:  bulletPattern.MatchString(text),
	}

	for _, block := range blockSeparator.Split(text, -1) {
		if strings.TrimSpace(block) != "" {
			st.Blocks++
		}
	}

	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(whitespaceRunes.ReplaceAllString(s, " ")) != "" {
			st.Sentences++
		}
	}
	if st.Sentences > 0 {
		st.AvgWords = float64(st.Words) / float64(st.Sentences)
	}
	return st
}

// Extract returns trimmed first capture groups (or whole matches when the
// pattern has no groups).
func (a *KeywordAnalyzer) Extract(text string, pattern *regexp.Regexp) []string {
	var out []string
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		s := m[0]
		if len(m) > 1 {
			s = m[1]
		}
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fraction returns matched/total scaled to 0-100. A zero total yields 0;
// callers that treat "nothing to check" as complete handle that case.
func Fraction(matched, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Clamp(float64(matched) / float64(total) * 100)
}

// Clamp bounds v to [0,100].
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// OutputKeyword turns an output id such as "problem-statement" into the
// phrase searched for in content.
func OutputKeyword(output string) string {
	return strings.ReplaceAll(output, "-", " ")
}
