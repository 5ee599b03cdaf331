// Package i18n holds the site's UI strings in Spanish and English and picks
// the visitor's language.
package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
)

// Bundle is a set of per-language message catalogs. Keys are dotted paths
// such as "contact.success".
type Bundle struct {
	catalogs map[string]map[string]string
	langs    []string
	fallback string
	matcher  language.Matcher
}

// Load reads <dir>/<lang>.json for every supported language. Catalogs may be
// flat or nested objects; nested keys are joined with dots. Only the fallback
// catalog is required.
func Load(dir string, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{"es", "en"}
	}
	catalogs := make(map[string]map[string]string, len(supported))
	for _, lang := range supported {
		raw, err := os.ReadFile(filepath.Join(dir, lang+".json"))
		if errors.Is(err, fs.ErrNotExist) && lang != fallback {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s catalog: %w", lang, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("i18n: parse %s catalog: %w", lang, err)
		}
		messages := map[string]string{}
		if err := flatten("", doc, messages); err != nil {
			return nil, fmt.Errorf("i18n: %s catalog: %w", lang, err)
		}
		catalogs[lang] = messages
	}
	return New(fallback, supported, catalogs)
}

func flatten(prefix string, doc map[string]any, out map[string]string) error {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch typed := v.(type) {
		case string:
			out[key] = typed
		case map[string]any:
			if err := flatten(key, typed, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q holds %T, want string or object", key, v)
		}
	}
	return nil
}

// New builds a bundle from in-memory catalogs. The fallback language is
// always preferred when nothing else matches.
func New(fallback string, supported []string, catalogs map[string]map[string]string) (*Bundle, error) {
	if _, ok := catalogs[fallback]; !ok {
		return nil, fmt.Errorf("i18n: fallback catalog %s not loaded", fallback)
	}
	langs := []string{fallback}
	for _, lang := range supported {
		if lang != fallback {
			langs = append(langs, lang)
		}
	}
	tags := make([]language.Tag, 0, len(langs))
	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("i18n: supported language %q: %w", lang, err)
		}
		tags = append(tags, tag)
	}
	b := &Bundle{
		catalogs: make(map[string]map[string]string, len(catalogs)),
		langs:    langs,
		fallback: fallback,
		matcher:  language.NewMatcher(tags),
	}
	for lang, messages := range catalogs {
		b.catalogs[lang] = messages
	}
	return b, nil
}

// Supported lists the configured languages, fallback first.
func (b *Bundle) Supported() []string {
	return append([]string(nil), b.langs...)
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// T returns the message for key in lang. Regional variants such as "es-AR"
// use their base language. Missing messages fall back to the fallback
// catalog and finally to the key itself.
func (b *Bundle) T(lang, key string) string {
	if b == nil {
		return key
	}
	for _, candidate := range []string{lang, baseOf(lang), b.fallback} {
		if msg, ok := b.catalogs[candidate][key]; ok {
			return msg
		}
	}
	return key
}

func baseOf(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

// Resolve picks the supported language that best matches an Accept-Language
// header, a cookie value or a bare language code. Anything unparseable or
// without a close match yields the fallback.
func (b *Bundle) Resolve(acceptLang string) string {
	desired, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(desired) == 0 {
		return b.fallback
	}
	_, index, conf := b.matcher.Match(desired...)
	if conf <= language.Low {
		return b.fallback
	}
	return b.langs[index]
}
