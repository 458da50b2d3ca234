// Package messages resolves dotted keys plus named parameters into
// localized text. It is a pure lookup service: parameters arrive already
// formatted, placeholders are {name} markers in the catalog strings.
package messages

import (
	"fmt"
	"strings"
)

type Catalog struct {
	def string
}

func New(defaultLocale string) *Catalog {
	if _, ok := locales[defaultLocale]; !ok {
		defaultLocale = "en"
	}
	return &Catalog{def: defaultLocale}
}

// Get resolves key for the locale, falling back to the default locale and
// finally to the key itself, so a missing entry stays visible instead of
// crashing a panel render.
func (c *Catalog) Get(locale, key string, params map[string]string) string {
	text, ok := lookup(locale, key)
	if !ok {
		if text, ok = lookup(c.def, key); !ok {
			return key
		}
	}
	if len(params) == 0 {
		return text
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Month returns the localized month name, 1-indexed.
func (c *Catalog) Month(locale string, month int) string {
	return c.Get(locale, fmt.Sprintf("month.%d", month), nil)
}

// Weekday returns the localized weekday name, Monday = 1.
func (c *Catalog) Weekday(locale string, weekday int) string {
	return c.Get(locale, fmt.Sprintf("weekday.%d", weekday), nil)
}

func lookup(locale, key string) (string, bool) {
	table, ok := locales[locale]
	if !ok {
		return "", false
	}
	text, ok := table[key]
	return text, ok
}

// P is shorthand for building a parameter map at the call site.
func P(pairs ...string) map[string]string {
	if len(pairs)%2 != 0 {
		panic("messages: odd parameter list")
	}
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m
}
