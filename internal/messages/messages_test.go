package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSubstitution(t *testing.T) {
	c := New("en")
	got := c.Get("en", "tz.updated", P("zone", "Europe/Kyiv"))
	assert.Equal(t, "Timezone set to Europe/Kyiv.", got)
}

func TestFallbackToDefaultLocale(t *testing.T) {
	c := New("en")
	// unknown locale falls back to the default catalog
	got := c.Get("de", "common.back", nil)
	assert.Equal(t, "Back", got)
}

func TestMissingKeyStaysVisible(t *testing.T) {
	c := New("en")
	assert.Equal(t, "no.such.key", c.Get("en", "no.such.key", nil))
}

func TestLocalizedLookup(t *testing.T) {
	c := New("en")
	assert.Equal(t, "Отмена", c.Get("ru", "common.cancel", nil))
	assert.Equal(t, "Январь", c.Month("ru", 1))
	assert.Equal(t, "Sunday", c.Weekday("en", 7))
}

func TestLocaleParity(t *testing.T) {
	for key := range en {
		_, ok := ru[key]
		assert.True(t, ok, "ru catalog is missing %q", key)
	}
	for key := range ru {
		_, ok := en[key]
		assert.True(t, ok, "en catalog is missing %q", key)
	}
}
