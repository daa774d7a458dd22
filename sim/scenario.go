// sim/scenario.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/log"
	"github.com/mmp/flightcore/math"
	"github.com/mmp/flightcore/nav"
	"github.com/mmp/flightcore/util"

	"github.com/iancoleman/orderedmap"
	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Scenario describes the initial state of a simulation: the fixes and
// approaches in the area, the types of aircraft, and the aircraft
// themselves.
type Scenario struct {
	StartTime      time.Time     `json:"start_time"`
	ReferencePoint math.Point2LL `json:"reference_point"`
	// If not given, it is computed at the reference point using the
	// World Magnetic Model.
	MagneticVariation *float32 `json:"magnetic_variation,omitempty"`
	LatchEstablished  bool     `json:"latch_established,omitempty"`

	Fixes         map[string]math.Point2LL          `json:"fixes"`
	Approaches    map[string]av.ApproachCourse      `json:"approaches"`
	AircraftTypes map[string]av.AircraftPerformance `json:"aircraft_types"`

	// Aircraft are kept in the order they're given in the file.
	Aircraft []ScenarioAircraft `json:"-"`

	// TICK:CALLSIGN:CLEARANCE; see ParseClearanceScript.
	Clearances []string `json:"clearances,omitempty"`
}

type ScenarioAircraft struct {
	Callsign        string             `json:"-"`
	Type            string             `json:"type"`
	Category        nav.FlightCategory `json:"category"`
	Position        math.Point2LL      `json:"position"`
	Heading         float32            `json:"heading"`
	Altitude        float32            `json:"altitude"`
	Speed           float32            `json:"speed"`
	FieldElevation  float32            `json:"field_elevation"`
	ClearedAltitude float32            `json:"cleared_altitude"`
	Route           av.WaypointArray   `json:"route"`
	// Approach the aircraft has already been cleared for, if any.
	Approach string `json:"approach,omitempty"`
}

type fixLocator map[string]math.Point2LL

func (f fixLocator) Locate(fix string) (math.Point2LL, bool) {
	p, ok := f[fix]
	return p, ok
}

// LoadScenario loads and validates the scenario in the given JSON file,
// which may be zstd-compressed.
func LoadScenario(path string, lg *log.Logger) (*Scenario, error) {
	b, err := util.ReadFileBytes(path)
	if err != nil {
		return nil, err
	}

	sc, err := ParseScenario(b, lg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates a JSON scenario.
func ParseScenario(b []byte, lg *log.Logger) (*Scenario, error) {
	var raw struct {
		Scenario
		Aircraft json.RawMessage `json:"aircraft"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	sc := raw.Scenario

	if len(raw.Aircraft) > 0 {
		// Unmarshal once to get the callsigns in order and once more for
		// the aircraft themselves.
		om := orderedmap.New()
		if err := json.Unmarshal(raw.Aircraft, om); err != nil {
			return nil, err
		}
		var acs map[string]ScenarioAircraft
		if err := json.Unmarshal(raw.Aircraft, &acs); err != nil {
			return nil, err
		}

		for _, callsign := range om.Keys() {
			ac := acs[callsign]
			ac.Callsign = callsign
			sc.Aircraft = append(sc.Aircraft, ac)
		}
	}

	var e util.ErrorLogger
	sc.PostDeserialize(&e, lg)
	if e.HaveErrors() {
		e.PrintErrors(lg)
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, e.Err())
	}
	return &sc, nil
}

// PostDeserialize fills in derived values and checks the scenario for
// errors, which are reported via e.
func (sc *Scenario) PostDeserialize(e *util.ErrorLogger, lg *log.Logger) {
	if sc.StartTime.IsZero() {
		sc.StartTime = time.Now().UTC().Truncate(time.Second)
	}

	if sc.MagneticVariation == nil && !sc.ReferencePoint.IsZero() {
		mv, err := MagneticVariation(sc.ReferencePoint, sc.StartTime)
		if err != nil {
			lg.Warn("unable to compute magnetic variation", slog.Any("error", err))
		} else {
			lg.Infof("magnetic variation at %s: %.1f", sc.ReferencePoint.DDString(), mv)
		}
		sc.MagneticVariation = &mv
	}

	for icao, perf := range sc.AircraftTypes {
		if perf.ICAO == "" {
			perf.ICAO = icao
			sc.AircraftTypes[icao] = perf
		}
		perf.Check(e)
	}

	for _, id := range util.SortedMapKeys(sc.Approaches) {
		ap := sc.Approaches[id]
		if ap.Id == "" {
			ap.Id = id
			sc.Approaches[id] = ap
		}
		if err := ap.Check(); err != nil {
			e.Error(err)
		}
	}

	seen := make(map[string]bool)
	for i := range sc.Aircraft {
		ac := &sc.Aircraft[i]
		e.Push(ac.Callsign)

		if seen[ac.Callsign] {
			e.ErrorString("%v", ErrDuplicateCallsign)
		}
		seen[ac.Callsign] = true

		if _, ok := sc.AircraftTypes[ac.Type]; !ok {
			e.ErrorString("%q: %v", ac.Type, ErrUnknownAircraftType)
		}
		if ac.Position.IsZero() {
			e.ErrorString("no position specified")
		}
		if err := ac.Route.InitializeLocations(fixLocator(sc.Fixes)); err != nil {
			e.Error(err)
		}
		if ac.Approach != "" {
			if _, ok := sc.Approaches[ac.Approach]; !ok {
				e.ErrorString("%q: %v", ac.Approach, ErrUnknownApproach)
			} else if ac.Category == nav.Departure {
				e.ErrorString("departures can't be cleared for an approach")
			}
		}
		if ac.Category == nav.Arrival && ac.Altitude <= ac.FieldElevation {
			e.ErrorString("arrival altitude %.0f must be above the field elevation", ac.Altitude)
		}

		e.Pop()
	}

	if len(sc.Clearances) > 0 {
		if _, err := sc.ClearanceScript(); err != nil {
			e.Error(err)
		}
	}
}

// ClearanceScript returns the scenario's scripted clearances.
func (sc *Scenario) ClearanceScript() ([]ScriptedClearance, error) {
	return ParseClearanceScript(strings.NewReader(strings.Join(sc.Clearances, "\n")))
}

// MagneticVariation returns the magnetic declination in degrees at p at
// the given time; positive values are east.
func MagneticVariation(p math.Point2LL, t time.Time) (float32, error) {
	loc := egm96.NewLocationGeodetic(float64(p.Latitude()), float64(p.Longitude()), 0)
	mag, err := wmm.CalculateWMMMagneticField(loc, t)
	if err != nil {
		return 0, err
	}
	return float32(mag.D()), nil
}

// NewAircraft returns the aircraft described by sa.
func (sc *Scenario) NewAircraft(sa ScenarioAircraft) *Aircraft {
	var magvar float32
	if sc.MagneticVariation != nil {
		magvar = *sc.MagneticVariation
	}
	ref := sc.ReferencePoint
	if ref.IsZero() {
		ref = sa.Position
	}

	fs := nav.FlightState{
		Position:          sa.Position,
		Heading:           sa.Heading,
		Altitude:          sa.Altitude,
		IAS:               sa.Speed,
		GS:                sa.Speed,
		FieldElevation:    sa.FieldElevation,
		MagneticVariation: magvar,
		NmPerLongitude:    math.NMPerLongitudeAt(ref),
	}
	cleared := sa.ClearedAltitude
	if cleared == 0 {
		cleared = sa.Altitude
	}

	ac := &Aircraft{
		Callsign:       sa.Callsign,
		TypeOfAircraft: sa.Type,
		Route:          sa.Route,
		Nav:            nav.NewNavState(sa.Callsign, sa.Category, sc.AircraftTypes[sa.Type], fs, cleared),
	}

	if ac.Nav.Mode == nav.NavModeFix && len(ac.Route) == 0 {
		ac.Nav.Mode = nav.NavModeHeading
	}
	if sa.Approach != "" {
		course := sc.Approaches[sa.Approach]
		ac.Nav.Approach.Course = &course
		ac.Nav.FlightState.FieldElevation = course.Elevation
	}
	return ac
}

// NewSim returns a Sim initialized with the scenario's approaches and
// aircraft.
func (sc *Scenario) NewSim(perf *nav.Performance, lg *log.Logger) (*Sim, error) {
	s := NewSim(NewSimConfiguration{
		StartTime:        sc.StartTime,
		Performance:      perf,
		Approaches:       sc.Approaches,
		LatchEstablished: sc.LatchEstablished,
	}, lg)

	for _, sa := range sc.Aircraft {
		if err := s.Spawn(sc.NewAircraft(sa)); err != nil {
			s.Destroy()
			return nil, err
		}
	}
	return s, nil
}
