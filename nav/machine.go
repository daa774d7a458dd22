// nav/machine.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"fmt"
	"slices"
	"time"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"

	"github.com/brunoga/deep"
)

// Machine runs the flight phase state machine. A single Machine is shared
// by all aircraft; it holds no per-aircraft state, so Advance and Fly may
// be called concurrently for different aircraft.
type Machine struct {
	Perf      *Performance
	Navigator *Navigator
	Evaluator *CourseEvaluator

	// LatchEstablished causes aircraft in the approach phase to stay
	// established once they have become so, even if they subsequently
	// drift off of the course.
	LatchEstablished bool
}

func NewMachine(perf *Performance) *Machine {
	return &Machine{
		Perf:      perf,
		Navigator: NewNavigator(perf),
		Evaluator: NewCourseEvaluator(perf),
	}
}

// advance holds the state for a single call to Machine.Advance.
type advance struct {
	m      *Machine
	s      *NavState
	route  av.WaypointArray
	now    time.Time
	events []Event
}

// Advance runs one tick of the state machine for an aircraft: it applies
// the given clearance intent (which may be nil), reevaluates whether the
// aircraft is established on its approach course, performs at most one
// phase transition, and sequences the route. It returns the
// updated state and the events that occurred, in order. Errors are
// reported as events; the returned state is always valid.
func (m *Machine) Advance(state NavState, route av.WaypointArray, intent Intent, now time.Time) (NavState, []Event) {
	s := deep.MustCopy(state)
	if s.Removed {
		return s, nil
	}

	a := &advance{m: m, s: &s, route: route, now: now}
	phase := s.Phase
	if intent != nil {
		a.applyIntent(intent)
	}
	a.updateEstablished()
	// A clearance that changed the phase is this tick's transition; the
	// new phase's own conditions are checked starting with the next one.
	if s.Phase == phase {
		a.transition()
	}
	a.navigate()

	return s, a.events
}

func (a *advance) emit(e Event) {
	e.Callsign = a.s.Callsign
	a.events = append(a.events, e)
}

func (a *advance) emitError(t EventType, err error) {
	NavLog(a.s.Callsign, a.now, NavLogState, "%s: %v", t, err)
	a.emit(Event{Type: t, Message: err.Error(), Err: err})
}

func (a *advance) setPhase(to FlightPhase) {
	from := a.s.Phase
	if from == to {
		return
	}
	a.s.Phase = to
	if from == PhaseHold {
		a.s.Hold = nil
	}
	NavLog(a.s.Callsign, a.now, NavLogState, "phase %s -> %s", from, to)
	a.emit(Event{Type: PhaseChangedEvent, FromPhase: from, ToPhase: to})

	switch to {
	case PhaseTakeoff:
		a.setMode(NavModeRunway)

	case PhaseClimb:
		a.s.Targets.TargetVerticalRate = a.m.Perf.TypicalClimbFactor * a.s.Perf.Rate.Climb
		a.resumeNavigation()

	case PhaseDescent:
		a.s.Targets.TargetVerticalRate = a.m.Perf.TypicalDescentFactor * a.s.Perf.Rate.Descent

	case PhaseHold:
		a.s.Hold = NewFlyHold(a.s.FlightState)
		a.setMode(NavModeHold)

	case PhaseApproach:
		// Discard any latched value from before; it's only valid if it
		// holds right now.
		a.evaluateEstablished()
		a.s.Targets.AssignedHeading = a.s.Approach.Course.Bearing
		a.setMode(NavModeHeading)

	case PhaseLanding:
		a.setMode(NavModeRunway)
	}
}

func (a *advance) setMode(to NavMode) {
	from := a.s.Mode
	if from == to {
		return
	}
	a.s.Mode = to
	NavLog(a.s.Callsign, a.now, NavLogState, "mode %s -> %s", from, to)
	a.emit(Event{Type: NavModeChangedEvent, FromMode: from, ToMode: to})
}

// resumeNavigation goes back to following the route if there's any of it
// left and otherwise maintains the present heading.
func (a *advance) resumeNavigation() {
	if a.s.LegIndex >= 0 && a.s.LegIndex < len(a.route) {
		a.setMode(NavModeFix)
	} else {
		a.s.Targets.AssignedHeading = a.s.FlightState.Heading
		a.setMode(NavModeHeading)
	}
}

func (a *advance) setEstablished(est bool) {
	if est != a.s.Established {
		a.s.Established = est
		NavLog(a.s.Callsign, a.now, NavLogApproach, "established %v", est)
		a.emit(Event{Type: EstablishedChangedEvent, Established: est})
	}
}

///////////////////////////////////////////////////////////////////////////
// Clearances

func (a *advance) requirePhase(intent Intent, phases ...FlightPhase) error {
	if !slices.Contains(phases, a.s.Phase) {
		return fmt.Errorf("%w: %s while in %s", ErrInvalidClearance, intent, a.s.Phase)
	}
	return nil
}

func (a *advance) applyIntent(intent Intent) {
	NavLog(a.s.Callsign, a.now, NavLogCommand, "clearance: %s", intent)

	if err := a.clear(intent); err != nil {
		t := InvalidClearanceEvent
		if errors.Is(err, av.ErrInvalidGeometry) {
			t = InvalidGeometryEvent
		}
		NavLog(a.s.Callsign, a.now, NavLogCommand, "%s: %v", t, err)
		a.emit(Event{Type: t, Clearance: intent.String(), Message: err.Error(), Err: err})
	}
}

// clear applies the given clearance, returning an error and leaving the
// state unchanged if it isn't valid.
func (a *advance) clear(intent Intent) error {
	s := a.s
	switch it := intent.(type) {
	case TaxiIntent:
		if err := a.requirePhase(it, PhaseApron); err != nil {
			return err
		}
		a.accept(it)
		s.TaxiReadyAt = a.now.Add(a.m.Perf.TaxiDelayDuration())
		a.setPhase(PhaseTaxi)

	case TakeoffIntent:
		if err := a.requirePhase(it, PhaseWaiting); err != nil {
			return err
		}
		a.accept(it)
		a.setPhase(PhaseTakeoff)

	case AltitudeIntent:
		if err := a.requirePhase(it, PhaseTakeoff, PhaseClimb, PhaseCruise, PhaseDescent, PhaseHold); err != nil {
			return err
		}
		if it.Altitude <= s.FlightState.FieldElevation || !math.IsFinite(it.Altitude) {
			return fmt.Errorf("%w: %w: %.0f", ErrInvalidClearance, ErrInvalidAltitude, it.Altitude)
		}
		a.accept(it)
		s.Targets.ClearedAltitude = it.Altitude

	case HeadingIntent:
		if err := a.requirePhase(it, PhaseClimb, PhaseCruise, PhaseDescent); err != nil {
			return err
		}
		if it.Heading <= 0 || it.Heading > 360 {
			return fmt.Errorf("%w: %w: %.0f", ErrInvalidClearance, ErrInvalidHeading, it.Heading)
		}
		a.accept(it)
		hdg := it.Heading
		if it.Magnetic {
			hdg += s.FlightState.MagneticVariation
		}
		s.Targets.AssignedHeading = math.NormalizeHeading(hdg)
		a.setMode(NavModeHeading)

	case DirectFixIntent:
		if err := a.requirePhase(it, PhaseClimb, PhaseCruise, PhaseDescent); err != nil {
			return err
		}
		idx := a.route.Index(it.Fix)
		if idx == -1 {
			return fmt.Errorf("%w: %w: %s", ErrInvalidClearance, ErrFixNotInRoute, it.Fix)
		}
		a.accept(it)
		s.LegIndex = idx
		a.setMode(NavModeFix)

	case HoldIntent:
		if err := a.requirePhase(it, PhaseCruise); err != nil {
			return err
		}
		a.accept(it)
		a.setPhase(PhaseHold)

	case ExitHoldIntent:
		if err := a.requirePhase(it, PhaseHold); err != nil {
			return err
		}
		a.accept(it)
		a.setPhase(PhaseCruise)
		a.resumeNavigation()

	case ApproachIntent:
		if err := a.requirePhase(it, PhaseCruise, PhaseDescent, PhaseHold); err != nil {
			return err
		}
		if err := it.Course.Check(); err != nil {
			return err
		}
		a.accept(it)
		course := it.Course
		s.Approach = ApproachState{Course: &course}
		s.FlightState.FieldElevation = course.Elevation

	case VectorFinalIntent:
		if err := a.requirePhase(it, PhaseDescent); err != nil {
			return err
		}
		if s.Approach.Course == nil {
			return fmt.Errorf("%w: %w", ErrInvalidClearance, ErrNotClearedForApproach)
		}
		a.accept(it)
		a.setPhase(PhaseApproach)

	case LandIntent:
		if err := a.requirePhase(it, PhaseDescent, PhaseApproach); err != nil {
			return err
		}
		if s.Approach.Course == nil {
			return fmt.Errorf("%w: %w", ErrInvalidClearance, ErrNotClearedForApproach)
		}
		a.accept(it)
		s.Approach.ClearedToLand = true

	case GoAroundIntent:
		if err := a.requirePhase(it, PhaseApproach, PhaseLanding); err != nil {
			return err
		}
		if s.Phase == PhaseLanding && s.FlightState.Altitude <= s.FlightState.FieldElevation {
			return fmt.Errorf("%w: %s after touchdown", ErrInvalidClearance, it)
		}
		a.accept(it)
		a.goAround()

	default:
		return fmt.Errorf("%w: unhandled clearance %T", ErrInvalidClearance, intent)
	}
	return nil
}

func (a *advance) accept(intent Intent) {
	a.emit(Event{Type: ClearanceAcceptedEvent, Clearance: intent.String()})
}

func (a *advance) goAround() {
	s := a.s
	a.setPhase(PhaseCruise)

	s.Approach = ApproachState{}
	a.setEstablished(false)

	s.Targets.ClearedAltitude = max(s.Targets.ClearedAltitude, s.FlightState.FieldElevation+a.m.Perf.MissedApproachAltitude)
	s.Targets.TargetVerticalRate = a.m.Perf.TypicalClimbFactor * s.Perf.Rate.Climb
	s.Targets.AssignedHeading = s.FlightState.Heading
	a.setMode(NavModeHeading)
}

///////////////////////////////////////////////////////////////////////////
// Automatic transitions

func (a *advance) evaluateEstablished() {
	s := a.s
	if s.Approach.Course == nil {
		a.setEstablished(false)
		return
	}

	fs := s.FlightState
	est, err := a.m.Evaluator.Established(fs.Position, fs.Heading, *s.Approach.Course, fs.NmPerLongitude)
	if err != nil {
		a.emitError(InvalidGeometryEvent, err)
		est = false
	}
	a.setEstablished(est)
}

func (a *advance) updateEstablished() {
	if a.m.LatchEstablished && a.s.Phase == PhaseApproach && a.s.Established {
		return
	}
	a.evaluateEstablished()
}

// transition performs the phase's automatic transition if its condition
// holds. Phases that only change in response to clearances have no
// automatic transition.
func (a *advance) transition() {
	s, perf := a.s, a.m.Perf
	fs := &s.FlightState

	switch s.Phase {
	case PhaseApron, PhaseWaiting, PhaseHold:

	case PhaseTaxi:
		if !a.now.Before(s.TaxiReadyAt) {
			a.setPhase(PhaseWaiting)
		}

	case PhaseTakeoff:
		if fs.AltitudeAGL() >= perf.TakeoffTurnAltitude {
			a.setPhase(PhaseClimb)
		}

	case PhaseClimb:
		if math.Abs(fs.Altitude-s.Targets.ClearedAltitude) <= perf.AltitudeTolerance {
			a.setPhase(PhaseCruise)
		}

	case PhaseCruise:
		if s.TargetAltitude(a.route) < fs.Altitude-perf.AltitudeTolerance {
			a.setPhase(PhaseDescent)
		}

	case PhaseDescent:
		if s.Approach.Course != nil && s.Established {
			a.setPhase(PhaseApproach)
		}

	case PhaseApproach:
		if s.Established && fs.AltitudeAGL() <= perf.MinimumDescentAltitude {
			a.setPhase(PhaseLanding)
		}

	case PhaseLanding:
		if fs.Altitude <= fs.FieldElevation && fs.GS < perf.TaxiSpeed {
			s.Removed = true
			NavLog(s.Callsign, a.now, NavLogState, "removed")
			a.emit(Event{Type: RemovedEvent})
		}

	default:
		panic(fmt.Sprintf("%s: unhandled phase %s", s.Callsign, s.Phase))
	}
}

// navigate sequences the route for aircraft that are following it.
func (a *advance) navigate() {
	s := a.s
	switch s.Phase {
	case PhaseClimb, PhaseCruise, PhaseDescent:
	default:
		return
	}
	if s.Mode != NavModeFix {
		return
	}

	d, err := a.m.Navigator.Evaluate(s.FlightState, a.route, s.LegIndex)
	if err != nil {
		a.emitError(InvalidRouteStateEvent, err)
		// Maintain the present heading rather than reporting the same
		// problem every tick.
		s.Targets.AssignedHeading = s.FlightState.Heading
		a.setMode(NavModeHeading)
		return
	}

	s.DistanceToWaypoint = d.Distance
	if d.Action == ContinueToCurrent {
		return
	}

	wp := a.route[s.LegIndex]
	NavLog(s.Callsign, a.now, NavLogWaypoint, "passed %s at %.2fnm anticipated %v", wp.Fix, d.Distance, d.Anticipated)
	a.emit(Event{Type: WaypointPassedEvent, Waypoint: wp.Fix})
	s.LegIndex++

	if d.RouteComplete {
		LogRoute(s.Callsign, a.now, a.route)
		a.emit(Event{Type: RouteCompletedEvent})
		s.Targets.AssignedHeading = s.FlightState.Heading
		a.setMode(NavModeHeading)
	} else {
		s.DistanceToWaypoint = math.NMDistance2LLFast(s.FlightState.Position, a.route[s.LegIndex].Location,
			s.FlightState.NmPerLongitude)
	}
}
