// Package i18n resolves {locale, key} pairs to display strings.
package i18n

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var defaultTables []byte

// Translator is the read side of a Catalog.
type Translator interface {
	T(locale, key string) string
}

// Catalog holds flattened translation tables keyed by locale then dotted key.
// A Catalog is immutable once built and safe for concurrent use.
type Catalog struct {
	fallback string
	tables   map[string]map[string]string
}

// Parse builds a Catalog from YAML shaped as locale -> nested key tree.
// The fallback locale must be present.
func Parse(data []byte, fallback string) (*Catalog, error) {
	var raw map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	tables := make(map[string]map[string]string, len(raw))
	for locale, tree := range raw {
		flat := make(map[string]string)
		flatten("", tree, flat)
		tables[locale] = flat
	}

	if _, ok := tables[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q has no translation table", fallback)
	}

	return &Catalog{fallback: fallback, tables: tables}, nil
}

// Default parses the tables compiled into the binary.
func Default(fallback string) (*Catalog, error) {
	return Parse(defaultTables, fallback)
}

func flatten(prefix string, tree map[string]interface{}, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// T returns the string for key in locale, then in the fallback locale, and
// finally the key itself so a missing entry is visible rather than blank.
func (c *Catalog) T(locale, key string) string {
	if s, ok := c.tables[locale][key]; ok {
		return s
	}
	if s, ok := c.tables[c.fallback][key]; ok {
		return s
	}
	return key
}

// Supports reports whether locale has its own table.
func (c *Catalog) Supports(locale string) bool {
	_, ok := c.tables[locale]
	return ok
}

// Resolve maps locale to itself when supported and to the fallback otherwise.
func (c *Catalog) Resolve(locale string) string {
	if c.Supports(locale) {
		return locale
	}
	return c.fallback
}

// Fallback returns the fallback locale.
func (c *Catalog) Fallback() string {
	return c.fallback
}

// Locales lists the supported locales in sorted order.
func (c *Catalog) Locales() []string {
	locales := make([]string, 0, len(c.tables))
	for l := range c.tables {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

var rtlLocales = map[string]bool{
	"ar": true,
	"fa": true,
	"he": true,
	"ur": true,
}

// Dir returns the document text direction for locale: "rtl" or "ltr".
func Dir(locale string) string {
	if rtlLocales[locale] {
		return "rtl"
	}
	return "ltr"
}
