// Package i18n resolves user-facing strings from embedded JSON catalogs.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLanguage is the fallback locale when none is configured.
const DefaultLanguage = "ru"

//go:embed locales/*.json
var embeddedLocales embed.FS

// Params are substituted into {name} placeholders.
type Params map[string]any

// Translator looks up strings by key and language.
type Translator struct {
	catalogs    map[string]map[string]string
	defaultLang string
	codes       []string
	tags        []language.Tag
	matcher     language.Matcher
}

// New loads the embedded catalogs.
func New(defaultLang string) (*Translator, error) {
	return Load(embeddedLocales, defaultLang)
}

// Load reads every locales/*.json file from fsys. The file stem is the language code.
func Load(fsys fs.FS, defaultLang string) (*Translator, error) {
	defaultLang = strings.ToLower(strings.TrimSpace(defaultLang))
	if defaultLang == "" {
		defaultLang = DefaultLanguage
	}

	paths, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}
	sort.Strings(paths)

	t := &Translator{
		catalogs:    make(map[string]map[string]string, len(paths)),
		defaultLang: defaultLang,
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", p, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", p, err)
		}
		code := strings.ToLower(strings.TrimSuffix(path.Base(p), path.Ext(p)))
		t.catalogs[code] = messages
	}

	if _, ok := t.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q has no catalog", defaultLang)
	}

	// the matcher falls back to its first tag, so the default goes first
	t.codes = append(t.codes, defaultLang)
	for code := range t.catalogs {
		if code != defaultLang {
			t.codes = append(t.codes, code)
		}
	}
	sort.Strings(t.codes[1:])
	for _, code := range t.codes {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("parse language tag %q: %w", code, err)
		}
		t.tags = append(t.tags, tag)
	}
	t.matcher = language.NewMatcher(t.tags)

	return t, nil
}

// Default returns the fallback language code.
func (t *Translator) Default() string {
	return t.defaultLang
}

// Supported returns the available language codes, default first.
func (t *Translator) Supported() []string {
	return append([]string(nil), t.codes...)
}

// IsSupported reports whether a catalog exists for the exact code.
func (t *Translator) IsSupported(code string) bool {
	_, ok := t.catalogs[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// Resolve maps a client-supplied language code (e.g. "en-US", "zh-Hans") to the
// closest supported code, or the default.
func (t *Translator) Resolve(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return t.defaultLang
	}
	if t.IsSupported(code) {
		return strings.ToLower(code)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return t.defaultLang
	}
	_, idx, confidence := t.matcher.Match(tag)
	if confidence == language.No {
		return t.defaultLang
	}
	return t.codes[idx]
}

// Translate returns the string for key in lang, falling back to the default
// language and finally to "_key_".
func (t *Translator) Translate(key, lang string, params Params) string {
	text, ok := t.catalogs[strings.ToLower(lang)][key]
	if !ok {
		text, ok = t.catalogs[t.defaultLang][key]
	}
	if !ok {
		return "_" + key + "_"
	}
	if len(params) == 0 {
		return text
	}

	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Number formats an integer with the digit grouping of lang.
func (t *Translator) Number(lang string, n int) string {
	return t.printer(lang).Sprintf("%d", n)
}

// Decimal formats a float with the given precision and the decimal separator of lang.
func (t *Translator) Decimal(lang string, v float64, precision int) string {
	return t.printer(lang).Sprintf(fmt.Sprintf("%%.%df", precision), v)
}

func (t *Translator) printer(lang string) *message.Printer {
	return message.NewPrinter(t.tags[t.indexOf(t.Resolve(lang))])
}

func (t *Translator) indexOf(code string) int {
	for i, c := range t.codes {
		if c == code {
			return i
		}
	}
	return 0
}
