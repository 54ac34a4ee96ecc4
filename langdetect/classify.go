package langdetect

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// minSnippetLen discards snippets too short to carry a signal.
	minSnippetLen = 3
	// maxSnippets bounds classification cost per page.
	maxSnippets = 200
	// snippetWeightCap caps a single snippet's contribution so one
	// long paragraph cannot drown out the rest of the page.
	snippetWeightCap = 120
)

// Labels frequently carry inline HTML from the diagram editor's
// rich-text mode; tags and entities are noise for detection.
var (
	markupTags = regexp.MustCompile(`<[^>]+>`)
	brTags     = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// CleanText strips inline markup and decodes HTML entities from a raw
// label value, collapsing the result to trimmed plain text.
func CleanText(raw string) string {
	s := brTags.ReplaceAllString(raw, " ")
	s = markupTags.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Classify returns the single allowed language that best explains the
// given label texts. The result is always a member of allowed (when
// allowed is non-empty; an empty allow-list is a degenerate case and
// returns def unchanged).
//
// Each cleaned snippet contributes confidence x min(len, cap) to its
// guessed language's score, counting only guesses inside the
// allow-list. If nothing scores, the fallback is def when allowed, or
// else the lexicographically smallest allowed code, so the result is
// deterministic for testability.
func Classify(det Detector, samples []string, allowed []string, def string) string {
	def = Normalize(def)
	allowed = NormalizeSet(allowed)
	if len(allowed) == 0 {
		return def
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, code := range allowed {
		allowedSet[code] = true
	}

	scores := make(map[string]float64)
	considered := 0
	for _, raw := range samples {
		if considered >= maxSnippets {
			break
		}
		text := CleanText(raw)
		if utf8.RuneCountInString(text) < minSnippetLen {
			continue
		}
		considered++

		guess, ok := det.Detect(text)
		if !ok || !allowedSet[guess.Code] {
			continue
		}
		weight := utf8.RuneCountInString(text)
		if weight > snippetWeightCap {
			weight = snippetWeightCap
		}
		scores[guess.Code] += guess.Confidence * float64(weight)
	}

	best, bestScore := "", 0.0
	// Iterate the allow-list in order so ties break deterministically.
	for _, code := range allowed {
		if s := scores[code]; s > bestScore {
			best, bestScore = code, s
		}
	}
	if best != "" {
		return best
	}

	if allowedSet[def] {
		return def
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return sorted[0]
}
