// Package timezone maps what users actually send, a zone name, a city or
// a shared location, onto an IANA zone identifier that time.LoadLocation
// accepts.
package timezone

import (
	"bufio"
	_ "embed"
	"fmt"
	"strings"
	"time"

	// the embedded table may name zones newer than the host's zoneinfo
	_ "time/tzdata"

	"github.com/pkg/errors"
)

//go:embed zone1970.tab
var zoneTab string

type Zone struct {
	Code string
	GeoLocation
	TZ string
}

// Resolver holds the parsed zone table. Zero value is unusable, construct
// with NewResolver.
type Resolver struct {
	zones []Zone
	// lowercased city name (the part after the last slash) -> table index
	byCity map[string]int
}

func NewResolver() (*Resolver, error) {
	zones, err := loadZones(zoneTab)
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, errors.New("empty zone list")
	}

	byCity := make(map[string]int, len(zones))
	for i, z := range zones {
		city := z.TZ[strings.LastIndexByte(z.TZ, '/')+1:]
		byCity[normalize(city)] = i
	}

	return &Resolver{zones: zones, byCity: byCity}, nil
}

// Resolve turns free text into a zone identifier. Exact identifiers win,
// then a city-name match against the zone table. Returns false when
// nothing matches.
func (r *Resolver) Resolve(query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}

	if _, err := time.LoadLocation(query); err == nil {
		return query, true
	}

	if i, ok := r.byCity[normalize(query)]; ok {
		return r.zones[i].TZ, true
	}

	return "", false
}

// Nearest returns the zone whose reference point is closest to the given
// coordinates, in degrees.
func (r *Resolver) Nearest(lat, long float64) string {
	point := GeoLocation{degToRad(lat), degToRad(long)}

	minIdx := 0
	minDist := point.GreatCircleDistance(r.zones[0].GeoLocation)
	for i, z := range r.zones[1:] {
		if dist := point.GreatCircleDistance(z.GeoLocation); dist < minDist {
			minDist = dist
			minIdx = i + 1
		}
	}

	return r.zones[minIdx].TZ
}

// loadZones parses zone1970.tab formatted data into a slice of Zone.
func loadZones(data string) ([]Zone, error) {
	var zones []Zone

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		var code, coord, tz string
		if _, err := fmt.Sscanf(line, "%s\t%s\t%s", &code, &coord, &tz); err != nil {
			return nil, errors.Wrapf(err, "parse zone line %q", line)
		}

		lat, long, err := parseCoords(coord)
		if err != nil {
			return nil, errors.Wrapf(err, "parse coordinates %q", coord)
		}

		zones = append(zones, Zone{code, GeoLocation{degToRad(lat), degToRad(long)}, tz})
	}

	return zones, scanner.Err()
}

// parseCoords parses the ISO 6709 latitude and longitude used in
// zone1970.tab and returns them in degrees with fractional part.
func parseCoords(coords string) (lat float64, long float64, err error) {
	l := make([]float64, 6)
	s := make([]byte, 2)

	if len(coords) == 11 {
		// format ±DDMM±DDDMM
		_, err = fmt.Sscanf(coords, "%c%2f%2f%c%3f%2f", &s[0], &l[0], &l[1], &s[1], &l[3], &l[4])
	} else {
		// format ±DDMMSS±DDDMMSS
		_, err = fmt.Sscanf(coords, "%c%2f%2f%2f%c%3f%2f%2f", &s[0], &l[0], &l[1], &l[2], &s[1], &l[3], &l[4], &l[5])
		lat = l[2] / 3600
		long = l[5] / 3600
	}
	if err != nil {
		return 0, 0, err
	}

	lat += l[0] + l[1]/60
	long += l[3] + l[4]/60

	if s[0] == '-' {
		lat = -lat
	}
	if s[1] == '-' {
		long = -long
	}

	return lat, long, nil
}

// normalize lowercases and strips everything but letters and spaces so
// "New York", "new_york" and "NEW  YORK" all compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if r == ' ' || r == '_' || r == '-' {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	return strings.TrimSpace(b.String())
}
