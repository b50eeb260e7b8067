package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

// Translator resolves fixed system strings by key for a requested locale,
// falling back to the default locale for unknown locales or missing keys.
type Translator struct {
	defaultLocale string
	matcher       language.Matcher
	tags          []language.Tag
	bundles       map[string]map[string]string
}

// New loads every embedded locale bundle. defaultLocale must be one of the
// bundled locales.
func New(defaultLocale string) (*Translator, error) {
	entries, err := localesFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locale bundles: %w", err)
	}

	t := &Translator{
		defaultLocale: defaultLocale,
		bundles:       make(map[string]map[string]string),
	}

	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".json")
		data, err := localesFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", name, err)
		}

		var nested map[string]interface{}
		if err := json.Unmarshal(data, &nested); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", name, err)
		}

		flat := make(map[string]string)
		flatten("", nested, flat)
		t.bundles[name] = flat

		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("invalid locale name %s: %w", name, err)
		}
		// The default locale must be first so the matcher falls back to it
		if name == defaultLocale {
			t.tags = append([]language.Tag{tag}, t.tags...)
		} else {
			t.tags = append(t.tags, tag)
		}
	}

	if _, ok := t.bundles[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no bundle", defaultLocale)
	}

	t.matcher = language.NewMatcher(t.tags)
	return t, nil
}

// Translate returns the string for key in the closest bundled locale.
// Missing keys fall back to the default bundle and finally to the key itself.
func (t *Translator) Translate(key, locale string) string {
	bundle := t.bundles[t.resolve(locale)]
	if v, ok := bundle[key]; ok {
		return v
	}
	if v, ok := t.bundles[t.defaultLocale][key]; ok {
		return v
	}
	log.WithFields(log.Fields{"key": key, "locale": locale}).Warn("Missing translation key")
	return key
}

// resolve maps an arbitrary locale string to a bundled locale name
func (t *Translator) resolve(locale string) string {
	if _, ok := t.bundles[locale]; ok {
		return locale
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return t.defaultLocale
	}
	_, idx, conf := t.matcher.Match(tag)
	if conf == language.No {
		return t.defaultLocale
	}
	base, _ := t.tags[idx].Base()
	if _, ok := t.bundles[base.String()]; ok {
		return base.String()
	}
	return t.defaultLocale
}

func flatten(prefix string, nested map[string]interface{}, out map[string]string) {
	for k, v := range nested {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]interface{}:
			flatten(key, val, out)
		}
	}
}
