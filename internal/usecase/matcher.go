package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/wallascan/backend/config"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
	controlCharsRegex   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// Default fuzzy thresholds (0-100 scale), tuned against real Wallapop
// listing text
const (
	defaultTitleThreshold       = 75
	defaultDescriptionThreshold = 65
	defaultExcludedThreshold    = 85
)

// Matcher performs fuzzy text matching between listing text and search
// terms. A score of 100 is an exact match after normalization. Pure and
// deterministic: no I/O, no state beyond the configured thresholds.
type Matcher struct {
	titleThreshold       int
	descriptionThreshold int
	excludedThreshold    int
}

// NewMatcher creates a matcher with the given thresholds, falling back to
// defaults for unset values
func NewMatcher(cfg config.MatchingConfig) *Matcher {
	m := &Matcher{
		titleThreshold:       cfg.TitleThreshold,
		descriptionThreshold: cfg.DescriptionThreshold,
		excludedThreshold:    cfg.ExcludedThreshold,
	}
	if m.titleThreshold <= 0 {
		m.titleThreshold = defaultTitleThreshold
	}
	if m.descriptionThreshold <= 0 {
		m.descriptionThreshold = defaultDescriptionThreshold
	}
	if m.excludedThreshold <= 0 {
		m.excludedThreshold = defaultExcludedThreshold
	}
	return m
}

// CleanText normalizes text for comparison: lowercase, diacritics
// stripped, punctuation removed, whitespace collapsed
func CleanText(s string) string {
	s = strings.ToLower(s)
	s = stripDiacritics(s)
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanDisplayText cleans text destined for output: control characters
// stripped and whitespace collapsed, but case and punctuation kept
func CleanDisplayText(s string) string {
	s = controlCharsRegex.ReplaceAllString(s, " ")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripDiacritics decomposes to NFD and removes combining marks, so
// "cámara" compares equal to "camara"
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Score computes a normalized Levenshtein similarity between two strings
// on a 0-100 scale. Inputs are compared as-is; callers normalize first.
func Score(a, b string) int {
	if a == b {
		return 100
	}
	return int(levenshtein.Similarity(a, b, nil) * 100)
}

// matches reports whether term scores at or above threshold against the
// full candidate text or any of its whitespace-delimited tokens. Both
// sides are normalized before scoring.
func matches(text, term string, threshold int) bool {
	text = CleanText(text)
	term = CleanText(term)
	if text == "" || term == "" {
		return false
	}

	if strings.Contains(text, term) {
		return true
	}
	if Score(text, term) >= threshold {
		return true
	}
	for _, token := range strings.Fields(text) {
		if Score(token, term) >= threshold {
			return true
		}
	}
	return false
}

// IsExcluded reports whether the text fuzzy-matches any excluded term at
// the excluded threshold
func (m *Matcher) IsExcluded(text string, terms []string) bool {
	for _, term := range terms {
		if matches(text, term, m.excludedThreshold) {
			return true
		}
	}
	return false
}

// KeywordMatch scores a keyword against title and description at their
// respective thresholds. Returns the best score, whether the match came
// from the description, and whether any comparison met its threshold.
func (m *Matcher) KeywordMatch(title, description, keyword string) (score int, inDescription, ok bool) {
	keyword = CleanText(keyword)
	if keyword == "" {
		return 0, false, false
	}

	titleScore := bestScore(CleanText(title), keyword)
	if titleScore >= m.titleThreshold {
		score = titleScore
		ok = true
	}

	descScore := bestScore(CleanText(description), keyword)
	if descScore >= m.descriptionThreshold {
		if descScore > score {
			score = descScore
		}
		inDescription = true
		ok = true
	}

	return score, inDescription, ok
}

// bestScore returns the highest similarity between term and either the
// whole text or any single token of it
func bestScore(text, term string) int {
	if text == "" || term == "" {
		return 0
	}
	if strings.Contains(text, term) {
		return 100
	}
	best := Score(text, term)
	for _, token := range strings.Fields(text) {
		if s := Score(token, term); s > best {
			best = s
		}
	}
	return best
}
