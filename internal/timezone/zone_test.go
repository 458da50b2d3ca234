package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver()
	require.NoError(t, err)
	return r
}

func TestResolveExactIdentifier(t *testing.T) {
	r := newTestResolver(t)

	tz, ok := r.Resolve("Europe/Kyiv")
	assert.True(t, ok)
	assert.Equal(t, "Europe/Kyiv", tz)
}

func TestResolveCityName(t *testing.T) {
	r := newTestResolver(t)

	for query, want := range map[string]string{
		"Berlin":            "Europe/Berlin",
		"berlin":            "Europe/Berlin",
		"new york":          "America/New_York",
		"New_York":          "America/New_York",
		"Saint  Petersburg": "Europe/Saint_Petersburg",
		"buenos aires":      "America/Argentina/Buenos_Aires",
	} {
		tz, ok := r.Resolve(query)
		assert.True(t, ok, "query %q", query)
		assert.Equal(t, want, tz, "query %q", query)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := newTestResolver(t)

	_, ok := r.Resolve("atlantis")
	assert.False(t, ok)
	_, ok = r.Resolve("  ")
	assert.False(t, ok)
}

func TestResolvedZonesLoad(t *testing.T) {
	r := newTestResolver(t)

	for _, z := range r.zones {
		_, err := time.LoadLocation(z.TZ)
		assert.NoError(t, err, "zone %s", z.TZ)
	}
}

func TestNearest(t *testing.T) {
	r := newTestResolver(t)

	// central Kyiv
	assert.Equal(t, "Europe/Kyiv", r.Nearest(50.45, 30.52))
	// Brooklyn
	assert.Equal(t, "America/New_York", r.Nearest(40.65, -73.95))
	// Bondi Beach
	assert.Equal(t, "Australia/Sydney", r.Nearest(-33.89, 151.27))
}

func TestParseCoords(t *testing.T) {
	lat, long, err := parseCoords("+5026+03031")
	require.NoError(t, err)
	assert.InDelta(t, 50.43, lat, 0.01)
	assert.InDelta(t, 30.52, long, 0.01)

	lat, long, err = parseCoords("+404251-0740023")
	require.NoError(t, err)
	assert.InDelta(t, 40.71, lat, 0.01)
	assert.InDelta(t, -74.01, long, 0.01)
}
