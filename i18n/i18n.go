// Package i18n localizes diaglot's own user-facing strings.
//
// It wraps gotext: catalogs are embedded in the binary and loaded once
// at startup via Init, after which T translates single strings and N
// picks plural forms.
//
//	i18n.Init("") // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("Translating..."))
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation catalogs, laid out as
// locales/{lang}/LC_MESSAGES/diaglot.po.
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name.
const domain = "diaglot"

var po *gotext.Locale

// Init loads the catalog for lang, auto-detecting from the
// environment when lang is empty. Call once at startup before any T
// or N call.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string, passing it through unchanged when no
// translation exists.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates with plural forms; the target language's plural
// formula decides which form n selects.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage follows the GNU gettext precedence
// LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Strip the encoding suffix ("fr_FR.UTF-8" -> "fr_FR").
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
