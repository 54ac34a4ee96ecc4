// Package backend implements the translation backend chain: a
// prioritized sequence of interchangeable translation services with
// per-run memoization and graceful degradation. Total failure is
// signaled by returning the input text unchanged, never by an error,
// so a broken backend can never abort a document run.
package backend

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Backend is a single translation capability. Attempt translates text
// from source to target; an error or an empty/unchanged result makes
// the chain advance to the next backend.
type Backend interface {
	Name() string
	Attempt(ctx context.Context, text, source, target string) (string, error)
}

type cacheKey struct {
	source string
	text   string
	target string
}

// Chain tries backends in order until one produces a changed,
// non-empty result. Results (including degraded ones) are memoized per
// (source, text, target) for the lifetime of the chain, which is
// scoped to a single document run. Translate is safe for concurrent
// use.
type Chain struct {
	backends []Backend

	mu    sync.Mutex
	cache map[cacheKey]string
}

// NewChain builds a chain over the given backends, in priority order.
func NewChain(backends ...Backend) *Chain {
	return &Chain{
		backends: backends,
		cache:    make(map[cacheKey]string),
	}
}

// Names returns the backend names in priority order, for logging.
func (c *Chain) Names() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Translate returns the best available translation of text, or text
// itself when every backend fails. Callers detect the degraded
// outcome by comparing output to input.
func (c *Chain) Translate(ctx context.Context, text, source, target string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	source = strings.ToLower(source)
	target = strings.ToLower(target)
	if source == target {
		return trimmed
	}

	key := cacheKey{source: source, text: trimmed, target: target}
	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	result := c.attemptAll(ctx, trimmed, source, target)

	c.mu.Lock()
	// Another worker may have raced us on the same triple; keep the
	// first stored value so repeated lookups stay stable.
	if cached, ok := c.cache[key]; ok {
		result = cached
	} else {
		c.cache[key] = result
	}
	c.mu.Unlock()
	return result
}

func (c *Chain) attemptAll(ctx context.Context, text, source, target string) string {
	for _, b := range c.backends {
		out, err := b.Attempt(ctx, text, source, target)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"backend": b.Name(),
				"source":  source,
				"target":  target,
			}).WithError(err).Warn("translation backend failed, trying next")
			continue
		}
		out = strings.TrimSpace(out)
		if out == "" {
			logrus.WithField("backend", b.Name()).Debug("backend returned empty result")
			continue
		}
		// An unchanged result for a real language pair means the
		// backend could not translate, not that it succeeded.
		if out == text {
			logrus.WithField("backend", b.Name()).Debug("backend returned input unchanged")
			continue
		}
		return out
	}

	logrus.WithFields(logrus.Fields{
		"source": source,
		"target": target,
	}).Warn("all translation backends failed, keeping original text")
	return text
}
