package langdetect

import (
	"strings"
	"testing"
	"unicode"
)

// fakeDetector guesses by script: Cyrillic -> ru, text containing
// French markers -> fr, everything else -> en. Deterministic and fast,
// which is all Classify needs from the raw detector.
type fakeDetector struct {
	confidence float64
}

func (f fakeDetector) Detect(text string) (Guess, bool) {
	conf := f.confidence
	if conf == 0 {
		conf = 0.9
	}
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return Guess{Code: "ru", Confidence: conf}, true
		}
	}
	for _, marker := range []string{"bonjour", "é", "è", "ç"} {
		if strings.Contains(strings.ToLower(text), marker) {
			return Guess{Code: "fr", Confidence: conf}, true
		}
	}
	return Guess{Code: "en", Confidence: conf}, true
}

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"zh-CN", "zh"},
		{"zh_TW", "zh"},
		{"pt-BR", "pt"},
		{"pt_br", "pt"},
		{"de-AT", "de"},
		{" fr ", "fr"},
		{"", ""},
		{"xx-YY", "xx"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeSet_Dedupes(t *testing.T) {
	got := NormalizeSet([]string{"DE", "de", "zh-CN", "zh-TW", "fr", ""})
	want := []string{"de", "zh", "fr"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

// ---------------------------------------------------------------------------
// CleanText
// ---------------------------------------------------------------------------

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "Hello"},
		{"<b>Hello</b> world", "Hello world"},
		{"line1<br>line2", "line1 line2"},
		{"line1<BR/>line2", "line1 line2"},
		{"caf&eacute; &amp; bar", "café & bar"},
		{"  spaced   out  ", "spaced out"},
		{"<div style=\"font-size:12px\">Styled</div>", "Styled"},
	}
	for _, tc := range tests {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Classify
// ---------------------------------------------------------------------------

func TestClassify_AlwaysInAllowed(t *testing.T) {
	det := fakeDetector{}
	samples := []string{"Привет мир", "Здравствуйте", "Hello there"}

	tests := []struct {
		name    string
		allowed []string
		def     string
		want    string
	}{
		{"detected in allowed", []string{"en", "ru"}, "en", "ru"},
		{"detected outside allowed", []string{"de", "it"}, "de", "de"},
		{"default outside allowed", []string{"de", "it"}, "ja", "de"},
		{"empty allowed returns default", nil, "en", "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(det, samples, tc.allowed, tc.def)
			if got != tc.want {
				t.Errorf("Classify = %q, want %q", got, tc.want)
			}
			if len(tc.allowed) > 0 {
				found := false
				for _, a := range tc.allowed {
					if got == a {
						found = true
					}
				}
				if !found {
					t.Errorf("result %q not in allowed set %v", got, tc.allowed)
				}
			}
		})
	}
}

func TestClassify_WeightsByLength(t *testing.T) {
	// One long English snippet should outweigh several tiny French ones.
	samples := []string{
		"bonjour", "bonjour", "bonjour",
		strings.Repeat("the quick brown fox jumps over the lazy dog ", 3),
	}
	got := Classify(fakeDetector{}, samples, []string{"en", "fr"}, "fr")
	if got != "en" {
		t.Errorf("Classify = %q, want en (length-weighted)", got)
	}
}

func TestClassify_SkipsShortAndMarkupOnlySnippets(t *testing.T) {
	samples := []string{"a", "<br>", "&nbsp;", "ok", "Привет, как дела сегодня"}
	got := Classify(fakeDetector{}, samples, []string{"ru", "en"}, "en")
	if got != "ru" {
		t.Errorf("Classify = %q, want ru", got)
	}
}

func TestClassify_NoUsableText_FallsBackDeterministically(t *testing.T) {
	for i := 0; i < 5; i++ {
		got := Classify(fakeDetector{}, nil, []string{"it", "de", "fr"}, "nl")
		// "nl" not allowed: lexicographically smallest allowed wins.
		if got != "de" {
			t.Fatalf("Classify = %q, want de", got)
		}
	}
}

func TestClassify_RegionalVariantsCollapse(t *testing.T) {
	got := Classify(fakeDetector{}, []string{"Hello world"}, []string{"EN-us", "pt-BR"}, "pt")
	if got != "en" {
		t.Errorf("Classify = %q, want en", got)
	}
}
