// math/latlong.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"encoding/json"
	"fmt"
	gomath "math"
	"regexp"
	"strconv"
	"strings"
)

const NMPerLatitude = 60

const NauticalMilesToFeet = 6076.12
const FeetToNauticalMiles = 1 / NauticalMilesToFeet

///////////////////////////////////////////////////////////////////////////
// Point2LL

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude
type Point2LL [2]float32

func (p Point2LL) Longitude() float32 {
	return p[0]
}

func (p Point2LL) Latitude() float32 {
	return p[1]
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

func (p Point2LL) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

// NMPerLongitudeAt returns the number of nautical miles per degree of
// longitude at the latitude of the given point.
func NMPerLongitudeAt(p Point2LL) float32 {
	return NMPerLatitude * Cos(Radians(p[1]))
}

// pair of floats (no exponents)
var reLatLongFloat = regexp.MustCompile(`^(\-?[0-9]+\.[0-9]+), *(\-?[0-9]+\.[0-9]+)$`)

// ParseLatLong parses either a decimal "lat, long" pair or a dotted
// degrees/minutes/seconds pair like "N40.37.58.400,W073.46.17.000".
func ParseLatLong(llstr []byte) (Point2LL, error) {
	s := strings.TrimSpace(string(llstr))
	if strs := reLatLongFloat.FindStringSubmatch(s); len(strs) == 3 {
		lat, err := strconv.ParseFloat(strs[1], 32)
		if err != nil {
			return Point2LL{}, err
		}
		long, err := strconv.ParseFloat(strs[2], 32)
		if err != nil {
			return Point2LL{}, err
		}
		return Point2LL{float32(long), float32(lat)}, nil
	}

	lat, long, ok := strings.Cut(s, ",")
	if !ok {
		return Point2LL{}, fmt.Errorf("%s: invalid latlong string", s)
	}
	var p Point2LL
	var err error
	if p[1], err = parseDotted(strings.TrimSpace(lat), 'N', 'S'); err != nil {
		return Point2LL{}, fmt.Errorf("%s: %w", s, err)
	}
	if p[0], err = parseDotted(strings.TrimSpace(long), 'E', 'W'); err != nil {
		return Point2LL{}, fmt.Errorf("%s: %w", s, err)
	}
	return p, nil
}

// parseDotted parses a single dotted coordinate of the form
// Hddd.mm.ss.fff, where H is the positive or negative hemisphere letter.
func parseDotted(s string, pos, neg byte) (float32, error) {
	if len(s) == 0 || (s[0] != pos && s[0] != neg) {
		return 0, fmt.Errorf("expected %c or %c", pos, neg)
	}
	fields := strings.Split(s[1:], ".")
	if len(fields) != 4 {
		return 0, fmt.Errorf("expected four dotted fields")
	}

	scales := [4]float64{1, 60, 3600, 3600000}
	var v float64
	for i, f := range fields {
		if i == 3 {
			// Treat the last set of digits as a decimal, so that
			// Nxx.yy.zz.1 is handled like Nxx.yy.zz.100.
			for len(f) < 3 {
				f += "0"
			}
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%q: invalid number", f)
		}
		v += float64(n) / scales[i]
	}
	if s[0] == neg {
		v = -v
	}
	return float32(v), nil
}

// NMDistance2ll returns the distance in nautical miles between two
// provided lat-long coordinates.
func NMDistance2LL(a Point2LL, b Point2LL) float32 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	const R = 6371000 // metres
	rad := func(d float64) float64 { return float64(d) / 180 * gomath.Pi }
	lat1, lon1 := rad(float64(a[1])), rad(float64(a[0]))
	lat2, lon2 := rad(float64(b[1])), rad(float64(b[0]))
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
	dm := R * c // in metres

	return float32(dm * 0.000539957)
}

// NMDistance2LLFast returns the flat-earth distance in nautical miles
// between two nearby points.
func NMDistance2LLFast(a Point2LL, b Point2LL, nmPerLongitude float32) float32 {
	return Distance2f(LL2NM(a, nmPerLongitude), LL2NM(b, nmPerLongitude))
}

// NM2LL converts a point expressed in nautical mile coordinates to
// lat-long.
func NM2LL(p [2]float32, nmPerLongitude float32) Point2LL {
	return Point2LL{p[0] / nmPerLongitude, p[1] / NMPerLatitude}
}

// LL2NM converts a point expressed in latitude-longitude coordinates to
// nautical mile coordinates; this is useful for example for reasoning
// about distances, since both axes then have the same measure.
func LL2NM(p Point2LL, nmPerLongitude float32) [2]float32 {
	return [2]float32{p[0] * nmPerLongitude, p[1] * NMPerLatitude}
}

// Offset2LL returns the point at distance dist along the vector with heading hdg from
// the given point. It assumes a (locally) flat earth.
func Offset2LL(pll Point2LL, hdg float32, dist float32, nmPerLongitude float32) Point2LL {
	p := LL2NM(pll, nmPerLongitude)
	h := Radians(hdg)
	v := [2]float32{Sin(h), Cos(h)}
	v = Scale2f(v, dist)
	p = Add2f(p, v)
	return NM2LL(p, nmPerLongitude)
}

// Store Point2LLs as strings is JSON, for compactness/friendliness...
func (p Point2LL) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%f, %f\"", p[1], p[0])), nil
}

func (p *Point2LL) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		// [longitude, latitude]
		var pt [2]float32
		err := json.Unmarshal(b, &pt)
		if err == nil {
			*p = pt
		}
		return err
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	pt, err := ParseLatLong([]byte(s))
	if err == nil {
		*p = pt
	}
	return err
}
