package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Guess is one unconstrained detection result.
type Guess struct {
	// Code is the normalized base language code ("en", "zh").
	Code string
	// Confidence is the detector's confidence in [0, 1].
	Confidence float64
}

// Detector yields a best-guess language for a single text snippet.
// Implementations must be deterministic for the same input.
type Detector interface {
	Detect(text string) (Guess, bool)
}

type linguaDetector struct {
	det lingua.LanguageDetector
}

// NewDetector builds the lingua-backed detector over all supported
// languages. Models are loaded lazily per language; detection is
// deterministic, so classification is reproducible across runs.
func NewDetector() Detector {
	return &linguaDetector{
		det: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

func (d *linguaDetector) Detect(text string) (Guess, bool) {
	values := d.det.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 {
		return Guess{}, false
	}
	best := values[0]
	if best.Value() <= 0 {
		return Guess{}, false
	}
	code := strings.ToLower(best.Language().IsoCode639_1().String())
	return Guess{Code: Normalize(code), Confidence: best.Value()}, true
}
