// Package langdetect determines the primary language of a diagram
// page's labels, constrained to an operator-supplied allow-list.
//
// The raw statistical detector (lingua) and the allow-list policy are
// kept separate: Detector yields unconstrained guesses, Classify
// reduces them to a member of the allowed set.
package langdetect

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize lowercases a language code and collapses region-qualified
// variants to their base code ("zh-CN" and "zh_TW" become "zh",
// "pt-BR" becomes "pt"). Unparseable input is handled by splitting on
// the separator.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf > language.No {
			return base.String()
		}
	}
	cut := func(r rune) bool { return r == '-' || r == '_' }
	if idx := strings.IndexFunc(code, cut); idx > 0 {
		code = code[:idx]
	}
	return strings.ToLower(code)
}

// NormalizeSet normalizes a list of codes and deduplicates them
// case-insensitively, preserving first-seen order.
func NormalizeSet(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := Normalize(c)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// DisplayName returns the English name of a language code for logs
// and status output, falling back to the code itself.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
