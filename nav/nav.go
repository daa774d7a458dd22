// nav/nav.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"
)

// Errors used by the nav package
var (
	ErrFixNotInRoute         = errors.New("Fix not in aircraft's route")
	ErrInvalidClearance      = errors.New("Clearance not valid in current phase")
	ErrInvalidRouteState     = errors.New("Invalid route state")
	ErrNotClearedForApproach = errors.New("Aircraft has not been cleared for an approach")
	ErrInvalidHeading        = errors.New("Invalid heading")
	ErrInvalidAltitude       = errors.New("Invalid altitude")
)

// FlightState holds the aircraft's physical state.
type FlightState struct {
	Position     math.Point2LL
	Heading      float32 // degrees true
	Altitude     float32 // feet MSL
	IAS, GS      float32 // knots
	AltitudeRate float32 // ft/min; + -> climb, - -> descent

	// Elevation of the field the aircraft is departing from or landing at.
	FieldElevation float32

	MagneticVariation float32 // degrees; + -> east
	NmPerLongitude    float32
}

func (fs *FlightState) Summary() string {
	return fmt.Sprintf("heading %03d altitude %.0f ias %.1f gs %.1f",
		int(fs.Heading), fs.Altitude, fs.IAS, fs.GS)
}

func (fs FlightState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("position", fs.Position.DDString()),
		slog.Float64("heading", float64(fs.Heading)),
		slog.Float64("altitude", float64(fs.Altitude)),
		slog.Float64("ias", float64(fs.IAS)),
		slog.Float64("gs", float64(fs.GS)),
		slog.Float64("altitude_rate", float64(fs.AltitudeRate)),
	)
}

// AltitudeAGL returns the aircraft's height above the field.
func (fs FlightState) AltitudeAGL() float32 {
	return fs.Altitude - fs.FieldElevation
}

// Targets holds the assigned values the aircraft is flying toward.
type Targets struct {
	ClearedAltitude    float32 // feet MSL
	AssignedHeading    float32 // degrees true; used in NavModeHeading
	TargetVerticalRate float32 // ft/min; always positive
}

type ApproachState struct {
	Course        *av.ApproachCourse
	ClearedToLand bool
}

// NavState is the complete navigation state of a single aircraft. Each
// aircraft owns its own NavState; Machine.Advance returns an updated copy
// rather than modifying the one it is given.
type NavState struct {
	Callsign string
	Category FlightCategory
	Phase    FlightPhase
	Mode     NavMode

	// Index into the route of the waypoint currently being flown to;
	// len(route) once the route has been completed.
	LegIndex           int
	DistanceToWaypoint float32

	Established bool

	FlightState FlightState
	Perf        av.AircraftPerformance
	Targets     Targets
	Approach    ApproachState
	Hold        *FlyHold

	// When a taxiing aircraft will reach the runway.
	TaxiReadyAt time.Time

	// Set when the aircraft has left the simulation.
	Removed bool
}

// NewNavState returns the state for a newly created aircraft of the
// given category.
func NewNavState(callsign string, category FlightCategory, perf av.AircraftPerformance, fs FlightState,
	clearedAltitude float32) NavState {
	s := NavState{
		Callsign:    callsign,
		Category:    category,
		Phase:       category.InitialPhase(),
		FlightState: fs,
		Perf:        perf,
		Targets: Targets{
			ClearedAltitude: clearedAltitude,
			AssignedHeading: fs.Heading,
		},
	}

	if s.Phase.OnGround() {
		s.Mode = NavModeHeading
		s.FlightState.Altitude = fs.FieldElevation
		s.FlightState.IAS, s.FlightState.GS, s.FlightState.AltitudeRate = 0, 0, 0
	} else {
		s.Mode = NavModeFix
	}
	return s
}

// Check returns an error if the combination of phase, mode, and flight
// state is inconsistent.
func (s *NavState) Check() error {
	if !s.Phase.Valid() {
		return fmt.Errorf("%s: invalid phase %d", s.Callsign, int(s.Phase))
	}
	if s.Phase == PhaseLanding && s.Mode != NavModeRunway {
		return fmt.Errorf("%s: landing in %s mode", s.Callsign, s.Mode)
	}
	if (s.Mode == NavModeHold) != (s.Phase == PhaseHold) {
		return fmt.Errorf("%s: %s mode in %s phase", s.Callsign, s.Mode, s.Phase)
	}
	if s.Phase.OnGround() {
		if s.FlightState.Altitude != s.FlightState.FieldElevation || s.FlightState.AltitudeRate != 0 {
			return fmt.Errorf("%s: airborne in %s phase", s.Callsign, s.Phase)
		}
	}
	return nil
}

// TargetAltitude returns the altitude the aircraft is currently trying
// to reach: the cleared altitude, adjusted to meet the current
// waypoint's altitude restriction when following the route.
func (s *NavState) TargetAltitude(route av.WaypointArray) float32 {
	alt := s.Targets.ClearedAltitude
	if s.Mode == NavModeFix && s.LegIndex >= 0 && s.LegIndex < len(route) {
		if ar := route[s.LegIndex].AltRestriction; ar != nil {
			alt = ar.TargetAltitude(alt)
		}
	}
	return alt
}

// MagneticHeading returns the aircraft's heading with respect to magnetic
// north.
func (s *NavState) MagneticHeading() float32 {
	return math.NormalizeHeading(s.FlightState.Heading - s.FlightState.MagneticVariation)
}

func (s NavState) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("callsign", s.Callsign),
		slog.String("category", s.Category.String()),
		slog.String("phase", s.Phase.String()),
		slog.String("mode", s.Mode.String()),
		slog.Int("leg", s.LegIndex),
		slog.Float64("distance_to_waypoint", float64(s.DistanceToWaypoint)),
		slog.Bool("established", s.Established),
		slog.Any("flight_state", s.FlightState),
		slog.Float64("magnetic_heading", float64(s.MagneticHeading())),
		slog.Float64("cleared_altitude", float64(s.Targets.ClearedAltitude)),
	}
	if s.Approach.Course != nil {
		attrs = append(attrs, slog.Any("approach", *s.Approach.Course),
			slog.Bool("cleared_to_land", s.Approach.ClearedToLand))
	}
	if s.Hold != nil {
		attrs = append(attrs, slog.String("hold_state", s.Hold.State.String()))
	}
	if s.Removed {
		attrs = append(attrs, slog.Bool("removed", true))
	}
	return slog.GroupValue(attrs...)
}
