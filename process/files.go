package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/diaglot/diaglot/mxfile"
)

// translatedSuffix marks output files so a folder run never feeds its
// own results back in.
const translatedSuffix = "_translated"

// OutputPath derives the destination file for input. An explicit name
// wins; otherwise the input's stem gains a suffix and the extension
// becomes .drawio.
func OutputPath(input, outDir, outName string) string {
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	name := outName
	if name == "" {
		base := filepath.Base(input)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		name = stem + translatedSuffix + ".drawio"
	}
	return filepath.Join(dir, name)
}

// IsDiagramFile reports whether name looks like a draw.io document.
func IsDiagramFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".drawio", ".xml":
		return true
	}
	return false
}

// ProcessFile translates one document from disk to disk.
func (p *Processor) ProcessFile(ctx context.Context, input, output string) (Stats, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return Stats{}, err
	}
	doc, err := mxfile.Parse(data)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", input, err)
	}
	stats, err := p.Process(ctx, doc)
	if err != nil {
		return stats, err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, err
		}
	}
	if err := doc.WriteFile(output); err != nil {
		return stats, err
	}
	logrus.WithFields(logrus.Fields{
		"input":  input,
		"output": output,
		"pages":  stats.Pages,
		"writes": stats.Writes,
	}).Info("wrote translated document")
	return stats, nil
}

// ProcessPath accepts either a single document or a folder of them.
// For a folder every diagram file is translated next to the others;
// outName only applies to single-file input. It returns the written
// output paths.
func (p *Processor) ProcessPath(ctx context.Context, input, outDir, outName string) ([]string, Stats, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, Stats{}, err
	}
	if !info.IsDir() {
		out := OutputPath(input, outDir, outName)
		stats, err := p.ProcessFile(ctx, input, out)
		if err != nil {
			return nil, stats, err
		}
		return []string{out}, stats, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		total   Stats
		outputs []string
	)
	for _, e := range entries {
		if e.IsDir() || !IsDiagramFile(e.Name()) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if strings.HasSuffix(stem, translatedSuffix) {
			continue
		}
		in := filepath.Join(input, e.Name())
		out := OutputPath(in, outDir, "")
		stats, err := p.ProcessFile(ctx, in, out)
		if err != nil {
			logrus.WithError(err).Errorf("skipping %s", in)
			continue
		}
		total.Pages += stats.Pages
		total.PagesSkipped += stats.PagesSkipped
		total.Writes += stats.Writes
		outputs = append(outputs, out)
	}
	if len(outputs) == 0 {
		return nil, total, fmt.Errorf("no diagram files found in %s", input)
	}
	return outputs, total, nil
}
