// Package config implements .diaglot.yaml configuration file support.
//
// When a .diaglot.yaml file exists in the working directory (or the
// input file's directory) it provides defaults for every run; flags
// override the file, and backend credentials can always come from the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".diaglot.yaml"

// Defaults applied when neither file nor flags say otherwise.
const (
	DefaultSourceLang    = "en"
	DefaultMaxConcurrent = 4
	DefaultTimeout       = 30 * time.Second
)

// Config is the top-level .diaglot.yaml structure.
type Config struct {
	// Languages is the default target language list.
	Languages []string `yaml:"languages,omitempty"`
	// SourceLang is the base language promoted to the visible label
	// (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// OutputDir is where translated documents are written (default:
	// next to the input).
	OutputDir string `yaml:"output_dir,omitempty"`
	// OverwriteExisting lets fresh translations replace existing
	// label_<code> attributes.
	OverwriteExisting bool `yaml:"overwrite_existing,omitempty"`
	// MaxConcurrent bounds parallel backend requests (default 4).
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// TimeoutSeconds is the per-request HTTP timeout (default 30).
	TimeoutSeconds int `yaml:"timeout,omitempty"`
	// Proxy is an HTTP(S) proxy URL for all backend traffic.
	Proxy string `yaml:"proxy,omitempty"`

	Backends Backends `yaml:"backends,omitempty"`
}

// Backends configures the translation services tried in order.
type Backends struct {
	DeepL          DeepL          `yaml:"deepl,omitempty"`
	LibreTranslate LibreTranslate `yaml:"libretranslate,omitempty"`
	// GoogleWeb toggles the keyless web-endpoint fallback (default on).
	GoogleWeb *bool `yaml:"google_web,omitempty"`
}

// DeepL holds DeepL API credentials.
type DeepL struct {
	APIKey string `yaml:"api_key,omitempty"`
	APIURL string `yaml:"api_url,omitempty"`
}

// LibreTranslate points at a LibreTranslate instance.
type LibreTranslate struct {
	URL    string `yaml:"url,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Load reads .diaglot.yaml from the given directory and merges in
// environment credentials. A missing file is not an error; the result
// then carries environment values and defaults only.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env + defaults
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Environment variables recognized for credentials and transport. The
// environment wins over the file so secrets can stay out of it.
const (
	EnvDeepLKey          = "DEEPL_API_KEY"
	EnvDeepLURL          = "DEEPL_API_URL"
	EnvLibreTranslateURL = "LIBRETRANSLATE_URL"
	EnvLibreTranslateKey = "LIBRETRANSLATE_API_KEY"
	EnvProxy             = "DIAGLOT_PROXY"
)

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDeepLKey); v != "" {
		c.Backends.DeepL.APIKey = v
	}
	if v := os.Getenv(EnvDeepLURL); v != "" {
		c.Backends.DeepL.APIURL = v
	}
	if v := os.Getenv(EnvLibreTranslateURL); v != "" {
		c.Backends.LibreTranslate.URL = v
	}
	if v := os.Getenv(EnvLibreTranslateKey); v != "" {
		c.Backends.LibreTranslate.APIKey = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.SourceLang == "" {
		c.SourceLang = DefaultSourceLang
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(DefaultTimeout / time.Second)
	}
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GoogleWebEnabled reports whether the keyless fallback backend should
// join the chain. Absent from the file means enabled.
func (c *Config) GoogleWebEnabled() bool {
	return c.Backends.GoogleWeb == nil || *c.Backends.GoogleWeb
}
