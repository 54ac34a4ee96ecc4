package rewrite

import (
	"context"
	"strings"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// keyPrefix starts every translation attribute. The editor renders a
// label_<code> key matching its interface language automatically.
const keyPrefix = "label"

// Translator produces target-language text for a snippet. A failed
// translation comes back as the input text, never as an error; the
// rewriter stores whatever it gets.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) string
}

// Rewriter applies translation attributes to one page's nodes.
//
// BaseLang is the language promoted to the visible label when it is
// among the requested Languages; otherwise the page's PrimaryLang
// takes its place and the visible label stays as found.
type Rewriter struct {
	Translator  Translator
	Languages   []string
	BaseLang    string
	PrimaryLang string

	// Overwrite lets fresh translations replace existing label_<code>
	// attributes. When false, nodes translated on a previous run keep
	// their keys untouched.
	Overwrite bool
}

// Apply rewrites a single node and returns the number of attributes
// it set or changed. Nodes without visible text, and nodes that
// cannot be given a container, are skipped.
func (r *Rewriter) Apply(ctx context.Context, node *etree.Element) int {
	raw, ok := VisibleText(node)
	if !ok {
		return 0
	}
	text := PlainText(raw)
	if text == "" {
		return 0
	}

	container := ResolveContainer(node)
	if container == nil {
		logrus.Debugf("no container for <%s>, skipping %q", node.Tag, truncateLabel(text))
		return 0
	}

	base := r.PrimaryLang
	if containsLang(r.Languages, r.BaseLang) {
		base = r.BaseLang
	}

	written := 0

	// The visible label always ends up in the base language. When the
	// page is already in it there is nothing to translate and the
	// original spelling stays.
	baseText := text
	if base != r.PrimaryLang {
		baseText = r.Translator.Translate(ctx, text, r.PrimaryLang, base)
	}
	if container.SelectAttrValue(AttrLabel, "") != baseText {
		container.CreateAttr(AttrLabel, baseText)
		written++
	}
	if base != r.PrimaryLang {
		// The original text must not get lost: keep it under the
		// primary language's key, in both separator spellings so
		// either editor convention picks it up.
		written += r.setKey(container, key(r.PrimaryLang, "_"), text)
		written += r.setKey(container, key(r.PrimaryLang, "-"), text)

		// A node living inside its container would re-surface its own
		// text next to the rewritten label.
		if node != container && node.Parent() == container {
			node.RemoveAttr(AttrValue)
			node.RemoveAttr(AttrLabel)
		}
	}

	for _, lang := range r.Languages {
		if lang == base || lang == r.PrimaryLang {
			continue
		}
		translated := r.Translator.Translate(ctx, text, r.PrimaryLang, lang)
		written += r.setKey(container, key(lang, "_"), translated)
	}
	return written
}

// setKey writes one translation attribute, honoring the overwrite
// policy. Either separator spelling of the key blocks a non-overwrite
// write, so files produced under one convention are not duplicated
// under the other.
func (r *Rewriter) setKey(container *etree.Element, k, val string) int {
	attr := container.SelectAttr(k)
	if attr == nil && !r.Overwrite {
		if alt := swapSeparator(k); container.SelectAttr(alt) != nil {
			return 0
		}
	}
	if attr != nil {
		if !r.Overwrite || attr.Value == val {
			return 0
		}
	}
	container.CreateAttr(k, val)
	return 1
}

func key(lang, sep string) string {
	return keyPrefix + sep + lang
}

// swapSeparator turns label_xx into label-xx and back.
func swapSeparator(k string) string {
	rest := strings.TrimPrefix(k, keyPrefix)
	if strings.HasPrefix(rest, "_") {
		return keyPrefix + "-" + rest[1:]
	}
	if strings.HasPrefix(rest, "-") {
		return keyPrefix + "_" + rest[1:]
	}
	return k
}

func containsLang(langs []string, code string) bool {
	for _, l := range langs {
		if l == code {
			return true
		}
	}
	return false
}

func truncateLabel(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
