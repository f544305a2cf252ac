package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func newTestTranslator(t *testing.T) *Translator {
	t.Helper()
	tr, err := New("ru")
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	return tr
}

func TestEmbeddedCatalogsShareKeys(t *testing.T) {
	tr := newTestTranslator(t)
	base := tr.catalogs["ru"]
	for _, code := range []string{"en", "zh"} {
		catalog, ok := tr.catalogs[code]
		if !ok {
			t.Fatalf("missing catalog %s", code)
		}
		for key := range base {
			if _, ok := catalog[key]; !ok {
				t.Errorf("catalog %s is missing key %s", code, key)
			}
		}
	}
}

func TestTranslate(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/ru.json": {Data: []byte(`{"greeting":"Привет, {name}!","only_ru":"только"}`)},
		"locales/en.json": {Data: []byte(`{"greeting":"Hello, {name}!"}`)},
	}
	tr, err := Load(fsys, "ru")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := map[string]struct {
		key, lang string
		params    Params
		want      string
	}{
		"direct":           {"greeting", "en", Params{"name": "Ann"}, "Hello, Ann!"},
		"default fallback": {"only_ru", "en", nil, "только"},
		"unknown language": {"greeting", "de", Params{"name": "Ann"}, "Привет, Ann!"},
		"missing key":      {"nope", "en", nil, "_nope_"},
		"numeric param":    {"greeting", "EN", Params{"name": 42}, "Hello, 42!"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tr.Translate(tt.key, tt.lang, tt.params); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadRejectsMissingDefault(t *testing.T) {
	fsys := fstest.MapFS{"locales/en.json": {Data: []byte(`{}`)}}
	if _, err := Load(fsys, "ru"); err == nil {
		t.Fatalf("expected error when default catalog is missing")
	}
	if _, err := Load(fstest.MapFS{}, "ru"); err == nil {
		t.Fatalf("expected error with no catalogs")
	}
	bad := fstest.MapFS{"locales/ru.json": {Data: []byte(`{`)}}
	if _, err := Load(bad, "ru"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolve(t *testing.T) {
	tr := newTestTranslator(t)
	tests := map[string]string{
		"":        "ru",
		"en":      "en",
		"EN":      "en",
		"en-US":   "en",
		"zh-Hans": "zh",
		"ru-RU":   "ru",
		"de":      "ru",
		"!!":      "ru",
	}
	for in, want := range tests {
		if got := tr.Resolve(in); got != want {
			t.Errorf("Resolve(%q): expected %q, got %q", in, want, got)
		}
	}
	if got := tr.Supported(); len(got) != 3 || got[0] != "ru" {
		t.Fatalf("unexpected supported list: %v", got)
	}
}

func TestNumberFormatting(t *testing.T) {
	tr := newTestTranslator(t)
	if got := tr.Number("en", 1234); got != "1,234" {
		t.Fatalf("expected grouped number, got %q", got)
	}
	if got := tr.Decimal("en", 4.6, 1); got != "4.6" {
		t.Fatalf("expected 4.6, got %q", got)
	}
	if got := tr.Decimal("ru", 4.6, 1); !strings.Contains(got, ",") {
		t.Fatalf("expected comma separator for ru, got %q", got)
	}
}
