// aviation/route.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mmp/flightcore/math"
)

///////////////////////////////////////////////////////////////////////////
// LegType

// LegType records which kind of procedure a waypoint was taken from.
type LegType int

const (
	LegFix LegType = iota // a fix typed in directly
	LegSID
	LegSTAR
	LegIAP
	LegAirway
)

func (l LegType) String() string {
	switch l {
	case LegFix:
		return "fix"
	case LegSID:
		return "sid"
	case LegSTAR:
		return "star"
	case LegIAP:
		return "iap"
	case LegAirway:
		return "awy"
	default:
		return "unknown"
	}
}

///////////////////////////////////////////////////////////////////////////
// Waypoint

type Waypoint struct {
	Fix            string               `json:"fix"`
	Location       math.Point2LL        `json:"location"`
	AltRestriction *AltitudeRestriction `json:"altitude_restriction,omitempty"`
	Speed          int                  `json:"speed,omitempty"` // 0 = unset
	FlyOver        bool                 `json:"flyover,omitempty"`
	Leg            LegType              `json:"leg,omitempty"`
}

func (wp Waypoint) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("fix", wp.Fix)}
	if wp.AltRestriction != nil {
		attrs = append(attrs, slog.String("altitude_restriction", wp.AltRestriction.Encoded()))
	}
	if wp.Speed != 0 {
		attrs = append(attrs, slog.Int("speed", wp.Speed))
	}
	if wp.FlyOver {
		attrs = append(attrs, slog.Bool("flyover", true))
	}
	if wp.Leg != LegFix {
		attrs = append(attrs, slog.String("leg", wp.Leg.String()))
	}
	return slog.GroupValue(attrs...)
}

type WaypointArray []Waypoint

// Encode returns the route in the same textual form that ParseWaypoints
// accepts.
func (wa WaypointArray) Encode() string {
	var entries []string
	for _, w := range wa {
		s := w.Fix
		if w.AltRestriction != nil {
			s += "/a" + w.AltRestriction.Encoded()
		}
		if w.Speed != 0 {
			s += fmt.Sprintf("/s%d", w.Speed)
		}
		if w.FlyOver {
			s += "/flyover"
		}
		if w.Leg != LegFix {
			s += "/" + w.Leg.String()
		}
		entries = append(entries, s)
	}
	return strings.Join(entries, " ")
}

// RouteString returns just the fixes of the route.
func (wa WaypointArray) RouteString() string {
	var r []string
	for _, wp := range wa {
		r = append(r, wp.Fix)
	}
	return strings.Join(r, " ")
}

// Index returns the index of the first waypoint with the given fix
// name, or -1 if it isn't in the route.
func (wa WaypointArray) Index(fix string) int {
	for i, wp := range wa {
		if wp.Fix == fix {
			return i
		}
	}
	return -1
}

func (wa *WaypointArray) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		// Encoded string; locations are resolved later via InitializeLocations.
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		wp, err := ParseWaypoints(s)
		if err == nil {
			*wa = wp
		}
		return err
	}

	var wps []Waypoint
	if err := json.Unmarshal(b, &wps); err != nil {
		return err
	}
	*wa = wps
	return nil
}

// Locator is a simple interface to abstract looking up the location of a
// named thing (e.g. a fix).
type Locator interface {
	// Locate returns the lat-long coordinates of the named point if they
	// are available; the bool indicates whether the point was known.
	Locate(fix string) (math.Point2LL, bool)
}

// InitializeLocations resolves the location of each waypoint that
// doesn't have one yet.
func (wa WaypointArray) InitializeLocations(loc Locator) error {
	for i, wp := range wa {
		if !wp.Location.IsZero() {
			continue
		}
		if p, ok := loc.Locate(wp.Fix); ok {
			wa[i].Location = p
		} else if p, err := math.ParseLatLong([]byte(wp.Fix)); err == nil {
			wa[i].Location = p
		} else {
			return fmt.Errorf("%s: unable to locate waypoint", wp.Fix)
		}
	}
	return nil
}

// ParseWaypoints parses a whitespace-separated list of fixes, each of
// which may be followed by /-delimited modifiers: aALT for an altitude
// restriction, sSPEED for a speed restriction, flyover, and one of
// sid/star/iap/awy for the leg type.
func ParseWaypoints(str string) (WaypointArray, error) {
	var waypoints WaypointArray
	for _, field := range strings.Fields(str) {
		components := strings.Split(field, "/")

		wp := Waypoint{Fix: components[0]}
		if wp.Fix == "" {
			return nil, fmt.Errorf("%q: no fix specified", field)
		}
		for _, f := range components[1:] {
			if len(f) == 0 {
				return nil, fmt.Errorf("no command found after / in %q", field)
			}

			switch f {
			case "flyover":
				wp.FlyOver = true
			case "sid":
				wp.Leg = LegSID
			case "star":
				wp.Leg = LegSTAR
			case "iap":
				wp.Leg = LegIAP
			case "awy":
				wp.Leg = LegAirway
			default:
				switch f[0] {
				case 'a':
					ar, err := ParseAltitudeRestriction(f[1:])
					if err != nil {
						return nil, err
					}
					wp.AltRestriction = ar
				case 's':
					kts, err := strconv.Atoi(f[1:])
					if err != nil {
						return nil, fmt.Errorf("%s: error parsing number after speed restriction: %v", f[1:], err)
					}
					wp.Speed = kts
				default:
					return nil, fmt.Errorf("%s: unknown fix modifier: %s", field, f)
				}
			}
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

///////////////////////////////////////////////////////////////////////////
// AltitudeRestriction

type AltitudeRestriction struct {
	// We treat 0 as "unset", which works naturally for the bottom but
	// requires occasional care at the top.
	Range [2]float32
}

// TargetAltitude returns the altitude closest to alt that satisfies the
// restriction.
func (a AltitudeRestriction) TargetAltitude(alt float32) float32 {
	if a.Range[1] != 0 {
		return math.Clamp(alt, a.Range[0], a.Range[1])
	} else {
		return max(alt, a.Range[0])
	}
}

// Encoded returns the restriction in the form ParseAltitudeRestriction
// accepts.
func (a AltitudeRestriction) Encoded() string {
	if a.Range[0] != 0 {
		if a.Range[0] == a.Range[1] {
			return fmt.Sprintf("%.0f", a.Range[0])
		} else if a.Range[1] != 0 {
			return fmt.Sprintf("%.0f-%.0f", a.Range[0], a.Range[1])
		} else {
			return fmt.Sprintf("%.0f+", a.Range[0])
		}
	} else if a.Range[1] != 0 {
		return fmt.Sprintf("%.0f-", a.Range[1])
	} else {
		return ""
	}
}

func ParseAltitudeRestriction(s string) (*AltitudeRestriction, error) {
	n := len(s)
	if n == 0 {
		return nil, fmt.Errorf("%s: no altitude provided for crossing restriction", s)
	}

	if s[n-1] == '-' {
		// At or below
		alt, err := strconv.Atoi(s[:n-1])
		if err != nil {
			return nil, fmt.Errorf("%s: error parsing altitude restriction: %v", s, err)
		}
		return &AltitudeRestriction{Range: [2]float32{0, float32(alt)}}, nil
	} else if s[n-1] == '+' {
		// At or above
		alt, err := strconv.Atoi(s[:n-1])
		if err != nil {
			return nil, fmt.Errorf("%s: error parsing altitude restriction: %v", s, err)
		}
		return &AltitudeRestriction{Range: [2]float32{float32(alt), 0}}, nil
	} else if alts := strings.Split(s, "-"); len(alts) == 2 {
		// Between
		if low, err := strconv.Atoi(alts[0]); err != nil {
			return nil, fmt.Errorf("%s: error parsing altitude restriction: %v", s, err)
		} else if high, err := strconv.Atoi(alts[1]); err != nil {
			return nil, fmt.Errorf("%s: error parsing altitude restriction: %v", s, err)
		} else if low > high {
			return nil, fmt.Errorf("%s: low altitude %d is above high altitude %d", s, low, high)
		} else {
			return &AltitudeRestriction{Range: [2]float32{float32(low), float32(high)}}, nil
		}
	} else {
		// At
		if alt, err := strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("%s: error parsing altitude restriction: %v", s, err)
		} else {
			return &AltitudeRestriction{Range: [2]float32{float32(alt), float32(alt)}}, nil
		}
	}
}
