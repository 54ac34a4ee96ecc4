// diaglot — translate draw.io diagram labels into multiple languages.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diaglot/diaglot/backend"
	"github.com/diaglot/diaglot/config"
	"github.com/diaglot/diaglot/i18n"
	"github.com/diaglot/diaglot/langdetect"
	"github.com/diaglot/diaglot/process"
	"github.com/diaglot/diaglot/server"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

// options collects the root command's flags.
type options struct {
	langs        []string
	sourceLang   string
	outDir       string
	outName      string
	overwrite    bool
	uncompressed bool
	jobs         int
	timeout      int
	proxy        string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	var opt options
	root := &cobra.Command{
		Use:   "diaglot [flags] INPUT",
		Short: "Translate draw.io diagram labels",
		Long: `diaglot — translate draw.io diagram labels.

Reads a .drawio/.xml document (or a folder of them), detects each
page's language, and writes a copy whose nodes carry a label for every
requested language. The visible label becomes the source language;
the original text is preserved under a label_<code> attribute, so the
diagram editor can switch languages without re-translating.

Backends are tried in order: DeepL (api key), LibreTranslate
(self-hosted instance), and the public Google web endpoint as a
keyless fallback. Credentials come from .diaglot.yaml or the
environment (DEEPL_API_KEY, LIBRETRANSLATE_URL, ...).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args[0], opt)
		},
	}

	fl := root.Flags()
	fl.StringSliceVarP(&opt.langs, "langs", "l", nil, "Target languages, e.g. en,fr,de")
	fl.StringVar(&opt.sourceLang, "source-lang", "", "Base language promoted to the visible label (default en)")
	fl.StringVarP(&opt.outDir, "out-dir", "o", "", "Output directory (default: next to the input)")
	fl.StringVar(&opt.outName, "out-name", "", "Output file name (single-file input only)")
	fl.BoolVar(&opt.overwrite, "overwrite", false, "Replace existing label_<code> attributes")
	fl.BoolVar(&opt.uncompressed, "uncompressed", false, "Write page content as plain XML instead of re-compressing")
	fl.IntVarP(&opt.jobs, "jobs", "j", 0, "Parallel translation requests (default 4)")
	fl.IntVar(&opt.timeout, "timeout", 0, "Per-request timeout in seconds (default 30)")
	fl.StringVar(&opt.proxy, "proxy", "", "HTTP(S) proxy URL for backend traffic")
	fl.BoolVarP(&opt.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// translate (root command body)
// ---------------------------------------------------------------------------

func runTranslate(input string, opt options) error {
	if opt.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := mergedConfig(opt)
	if err != nil {
		return err
	}
	proc, err := newProcessor(cfg, opt.uncompressed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logInfo(i18n.T("Translating %s"), input)
	outputs, stats, err := proc.ProcessPath(ctx, input, cfg.OutputDir, opt.outName)
	if err != nil {
		return err
	}

	for _, out := range outputs {
		logSuccess(i18n.T("Wrote %s"), out)
	}
	logInfo(i18n.N("translated %d page", "translated %d pages", stats.Pages), stats.Pages)
	if stats.PagesSkipped > 0 {
		logWarning(i18n.N("skipped %d page", "skipped %d pages", stats.PagesSkipped), stats.PagesSkipped)
	}
	return nil
}

// mergedConfig layers flag values over .diaglot.yaml and the
// environment. A flag only wins when it was actually given.
func mergedConfig(opt options) (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}

	if len(opt.langs) > 0 {
		cfg.Languages = opt.langs
	}
	if opt.sourceLang != "" {
		cfg.SourceLang = opt.sourceLang
	}
	if opt.outDir != "" {
		cfg.OutputDir = opt.outDir
	}
	if opt.overwrite {
		cfg.OverwriteExisting = true
	}
	if opt.jobs > 0 {
		cfg.MaxConcurrent = opt.jobs
	}
	if opt.timeout > 0 {
		cfg.TimeoutSeconds = opt.timeout
	}
	if opt.proxy != "" {
		cfg.Proxy = opt.proxy
	}

	if len(cfg.Languages) == 0 {
		return nil, errors.New("no target languages: pass --langs or set languages in " + config.FileName)
	}
	return cfg, nil
}

// buildChain assembles the backend fallback chain from configured
// credentials, in fixed priority order.
func buildChain(cfg *config.Config) (*backend.Chain, error) {
	var backends []backend.Backend
	timeout := cfg.Timeout()

	if key := cfg.Backends.DeepL.APIKey; key != "" {
		backends = append(backends, backend.NewDeepL(cfg.Backends.DeepL.APIURL, key, cfg.Proxy, timeout))
	}
	if u := cfg.Backends.LibreTranslate.URL; u != "" {
		backends = append(backends, backend.NewLibreTranslate(u, cfg.Backends.LibreTranslate.APIKey, cfg.Proxy, timeout))
	}
	if cfg.GoogleWebEnabled() {
		backends = append(backends, backend.NewGoogleWeb("", cfg.Proxy, timeout))
	}
	if len(backends) == 0 {
		return nil, errors.New("no translation backends configured")
	}
	return backend.NewChain(backends...), nil
}

func newProcessor(cfg *config.Config, uncompressed bool) (*process.Processor, error) {
	chain, err := buildChain(cfg)
	if err != nil {
		return nil, err
	}
	logInfo(i18n.T("Backends: %s"), strings.Join(chain.Names(), ", "))

	return process.New(process.Options{
		Detector:      langdetect.NewDetector(),
		Translator:    chain,
		Languages:     cfg.Languages,
		SourceLang:    cfg.SourceLang,
		Overwrite:     cfg.OverwriteExisting,
		Uncompressed:  uncompressed,
		MaxConcurrent: cfg.MaxConcurrent,
	}), nil
}

// ---------------------------------------------------------------------------
// serve (upload front end)
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	var (
		addr string
		opt  options
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a drag-and-drop translation page",
		Long: `Start an HTTP server with a drag-and-drop upload page.

POST /translate accepts a multipart "file" field and responds with
the translated document as an attachment. GET /healthz reports
liveness.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opt.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				// Request logging is the point of running a server.
				logrus.SetLevel(logrus.InfoLevel)
			}

			cfg, err := mergedConfig(opt)
			if err != nil {
				return err
			}
			proc, err := newProcessor(cfg, false)
			if err != nil {
				return err
			}

			logSuccess(i18n.T("Listening on %s"), addr)
			return server.New(proc).Run(addr)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&addr, "addr", ":8080", "Listen address")
	fl.StringSliceVarP(&opt.langs, "langs", "l", nil, "Target languages, e.g. en,fr,de")
	fl.StringVar(&opt.sourceLang, "source-lang", "", "Base language promoted to the visible label (default en)")
	fl.BoolVar(&opt.overwrite, "overwrite", false, "Replace existing label_<code> attributes")
	fl.IntVarP(&opt.jobs, "jobs", "j", 0, "Parallel translation requests (default 4)")
	fl.IntVar(&opt.timeout, "timeout", 0, "Per-request timeout in seconds (default 30)")
	fl.StringVar(&opt.proxy, "proxy", "", "HTTP(S) proxy URL for backend traffic")
	fl.BoolVarP(&opt.verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("diaglot version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}
