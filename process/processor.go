// Package process drives whole-document translation: decode each
// page, classify its primary language, rewrite its labels and encode
// it back the way it was found.
package process

import (
	"context"
	"fmt"
	"sync"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/diaglot/diaglot/langdetect"
	"github.com/diaglot/diaglot/mxfile"
	"github.com/diaglot/diaglot/rewrite"
)

const (
	// DefaultMaxConcurrent bounds parallel backend requests.
	DefaultMaxConcurrent = 4
	// maxSamples bounds how many labels feed language classification.
	maxSamples = 100
)

// Options configures a Processor.
type Options struct {
	Detector   langdetect.Detector
	Translator rewrite.Translator

	// Languages are the requested target codes. SourceLang names the
	// language promoted to the visible label when requested, and is
	// the classifier's fallback for pages without a clear signal.
	Languages  []string
	SourceLang string

	// Overwrite lets fresh translations replace existing keys.
	Overwrite bool
	// Uncompressed forces framed pages to plain text on output.
	Uncompressed bool
	// MaxConcurrent bounds parallel translation requests during the
	// cache warm-up phase. Zero means DefaultMaxConcurrent.
	MaxConcurrent int
}

// Stats summarizes one processing run.
type Stats struct {
	Pages        int // pages rewritten
	PagesSkipped int // pages left untouched due to decode errors
	Writes       int // attributes set or changed
}

// Processor translates every page of a document. Tree mutation is
// strictly serial; only the backend warm-up fans out.
type Processor struct {
	detector      langdetect.Detector
	translator    rewrite.Translator
	languages     []string
	sourceLang    string
	overwrite     bool
	uncompressed  bool
	maxConcurrent int
}

// New builds a Processor, normalizing the language codes once up
// front so the rest of the pipeline can compare them literally.
func New(opts Options) *Processor {
	src := langdetect.Normalize(opts.SourceLang)
	if src == "" {
		src = "en"
	}
	mc := opts.MaxConcurrent
	if mc <= 0 {
		mc = DefaultMaxConcurrent
	}
	return &Processor{
		detector:      opts.Detector,
		translator:    opts.Translator,
		languages:     langdetect.NormalizeSet(opts.Languages),
		sourceLang:    src,
		overwrite:     opts.Overwrite,
		uncompressed:  opts.Uncompressed,
		maxConcurrent: mc,
	}
}

// Process rewrites every page of doc in place. A page that cannot be
// decoded is logged and left exactly as found; only a document-level
// failure is an error.
func (p *Processor) Process(ctx context.Context, doc *mxfile.Document) (Stats, error) {
	var stats Stats
	for i, page := range doc.Pages() {
		log := logrus.WithFields(logrus.Fields{"page": i + 1, "name": page.Name()})

		writes, err := p.processPage(ctx, page)
		if err != nil {
			log.WithError(err).Warn("page left untouched")
			stats.PagesSkipped++
			continue
		}
		log.WithField("writes", writes).Debug("page done")
		stats.Pages++
		stats.Writes += writes
	}
	return stats, nil
}

// ProcessBytes runs the pipeline over a serialized document.
func (p *Processor) ProcessBytes(ctx context.Context, data []byte) ([]byte, Stats, error) {
	doc, err := mxfile.Parse(data)
	if err != nil {
		return nil, Stats{}, err
	}
	stats, err := p.Process(ctx, doc)
	if err != nil {
		return nil, stats, err
	}
	out, err := doc.Bytes()
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

func (p *Processor) processPage(ctx context.Context, page *mxfile.Page) (int, error) {
	root, err := page.Root()
	if err != nil {
		return 0, err
	}

	snapshot := mxfile.Snapshot(root)
	texts := collectTexts(snapshot)
	if len(texts) == 0 {
		return 0, nil
	}

	samples := texts
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	primary := langdetect.Classify(p.detector, samples, p.languages, p.sourceLang)
	logrus.WithFields(logrus.Fields{
		"name":    page.Name(),
		"primary": primary,
		"labels":  len(texts),
	}).Info("classified page")

	p.warm(ctx, texts, primary)

	rw := &rewrite.Rewriter{
		Translator:  p.translator,
		Languages:   p.languages,
		BaseLang:    p.sourceLang,
		PrimaryLang: primary,
		Overwrite:   p.overwrite,
	}
	writes := 0
	for _, el := range snapshot {
		writes += rw.Apply(ctx, el)
	}
	if writes == 0 {
		return 0, nil
	}

	if err := page.Commit(p.uncompressed); err != nil {
		return 0, fmt.Errorf("encoding page: %w", err)
	}
	return writes, nil
}

// collectTexts gathers the distinct plain label texts of a page in
// document order.
func collectTexts(snapshot []*etree.Element) []string {
	seen := make(map[string]bool)
	var out []string
	for _, el := range snapshot {
		raw, ok := rewrite.VisibleText(el)
		if !ok {
			continue
		}
		text := rewrite.PlainText(raw)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	return out
}

// warm issues every translation the rewrite phase will need through a
// bounded worker pool, so the serial tree rewrite afterwards only ever
// hits the chain's cache.
func (p *Processor) warm(ctx context.Context, texts []string, primary string) {
	targets := p.warmTargets(primary)
	if len(targets) == 0 {
		return
	}

	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup
	for _, text := range texts {
		for _, target := range targets {
			wg.Add(1)
			sem <- struct{}{}
			go func(text, target string) {
				defer wg.Done()
				defer func() { <-sem }()
				p.translator.Translate(ctx, text, primary, target)
			}(text, target)
		}
	}
	wg.Wait()
}

// warmTargets mirrors the rewriter's decision of which translations a
// page needs: the base language when the page is not already in it,
// plus every other requested language.
func (p *Processor) warmTargets(primary string) []string {
	base := primary
	for _, l := range p.languages {
		if l == p.sourceLang {
			base = p.sourceLang
			break
		}
	}

	var targets []string
	if base != primary {
		targets = append(targets, base)
	}
	for _, l := range p.languages {
		if l != base && l != primary {
			targets = append(targets, l)
		}
	}
	return targets
}
