// nav/flight_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"slices"
	"testing"
	"time"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"
)

// simulate runs the aircraft for up to n one-second ticks, issuing the
// given intents at the specified ticks, and returns the sequence of
// phases it went through along with its final state.
func simulate(t *testing.T, m *Machine, s NavState, route av.WaypointArray, intents map[int]Intent,
	n int) ([]FlightPhase, NavState) {
	t.Helper()

	phases := []FlightPhase{s.Phase}
	now := testNow
	for i := range n {
		m.Fly(&s, route, 1)

		var events []Event
		s, events = m.Advance(s, route, intents[i], now)
		for _, e := range events {
			if e.Type.IsError() {
				t.Errorf("tick %d: %s", i, e)
			}
			if e.Type == PhaseChangedEvent {
				phases = append(phases, e.ToPhase)
			}
		}
		if err := s.Check(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if s.Removed {
			break
		}
		now = now.Add(time.Second)
	}
	return phases, s
}

func TestFlyDeparture(t *testing.T) {
	m := NewMachine(DefaultPerformance())

	fs := testFlightState(testOrigin, 90, 0, 0)
	fs.FieldElevation = 13
	s := NewNavState("JBU2", Departure, testAircraftPerformance(), fs, 5000)
	route := av.WaypointArray{{Fix: "DEPRT", Location: offset(testOrigin, 90, 60)}}

	intents := map[int]Intent{0: TaxiIntent{}, 61: TakeoffIntent{}}
	phases, s := simulate(t, m, s, route, intents, 400)

	want := []FlightPhase{PhaseApron, PhaseTaxi, PhaseWaiting, PhaseTakeoff, PhaseClimb, PhaseCruise}
	if !slices.Equal(phases, want) {
		t.Fatalf("phases %v, expected %v", phases, want)
	}
	if math.Abs(s.FlightState.Altitude-5000) > m.Perf.AltitudeTolerance {
		t.Errorf("altitude %.0f, expected 5000", s.FlightState.Altitude)
	}
	if s.Mode != NavModeFix || s.FlightState.IAS <= s.Perf.Speed.V2 {
		t.Errorf("mode %s ias %.0f", s.Mode, s.FlightState.IAS)
	}
}

func TestFlyArrival(t *testing.T) {
	m := NewMachine(DefaultPerformance())

	fs := testFlightState(offset(testOrigin, 270, 15), 90, 4000, 200)
	s := NewNavState("AAL1", Arrival, testAircraftPerformance(), fs, 4000)
	s.Mode = NavModeHeading
	s.Targets.AssignedHeading = 90

	intents := map[int]Intent{
		0: ApproachIntent{Course: testCourse},
		1: AltitudeIntent{Altitude: 2000},
		5: LandIntent{},
	}
	phases, s := simulate(t, m, s, nil, intents, 2000)

	want := []FlightPhase{PhaseCruise, PhaseDescent, PhaseApproach, PhaseLanding}
	if !slices.Equal(phases, want) {
		t.Fatalf("phases %v, expected %v", phases, want)
	}
	if !s.Removed {
		t.Fatalf("aircraft not removed; state %+v", s)
	}
	if s.FlightState.Altitude != testCourse.Elevation {
		t.Errorf("altitude %.0f after landing", s.FlightState.Altitude)
	}
	if d := testCourse.DistanceToThreshold(s.FlightState.Position, s.FlightState.NmPerLongitude); d > 2 {
		t.Errorf("stopped %.1fnm from the threshold", d)
	}
}

func TestFlyTurns(t *testing.T) {
	m := NewMachine(DefaultPerformance())

	for _, tc := range []struct {
		name     string
		assigned float32
		seconds  int
	}{
		{"right 90", 180, 30},
		{"left 90", 0, 30},
		{"right through north", 30, 40},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := makeState(PhaseCruise)
			if tc.name == "right through north" {
				s.FlightState.Heading = 350
			}
			s.Mode = NavModeHeading
			s.Targets.AssignedHeading = tc.assigned

			prev := s.FlightState.Heading
			for range tc.seconds + 1 {
				m.Fly(&s, nil, 1)
				if d := math.HeadingDifference(prev, s.FlightState.Heading); d > m.Perf.TurnRateDegrees()+0.01 {
					t.Fatalf("turned %.1f degrees in one second", d)
				}
				prev = s.FlightState.Heading
			}
			if math.HeadingDifference(s.FlightState.Heading, tc.assigned) > 0.01 {
				t.Errorf("heading %.1f, expected %.0f", s.FlightState.Heading, tc.assigned)
			}
		})
	}
}

func TestFlyGroundPhasesStationary(t *testing.T) {
	m := NewMachine(DefaultPerformance())
	for _, phase := range []FlightPhase{PhaseApron, PhaseTaxi, PhaseWaiting} {
		s := makeState(phase)
		before := s.FlightState
		m.Fly(&s, testRoute(), 1)
		if s.FlightState != before {
			t.Errorf("%s: aircraft moved", phase)
		}
	}
}

func TestFlyHold(t *testing.T) {
	m := NewMachine(DefaultPerformance())
	s := makeState(PhaseHold)
	fix := s.FlightState.Position

	var states []HoldState
	returned := false
	for i := range 600 {
		m.Fly(&s, nil, 1)

		if len(states) == 0 || states[len(states)-1] != s.Hold.State {
			states = append(states, s.Hold.State)
		}
		d := math.NMDistance2LL(fix, s.FlightState.Position)
		if d > 10 {
			t.Fatalf("tick %d: %.2fnm from the holding fix", i, d)
		}
		if i > 120 && d < 0.5 {
			returned = true
		}
	}

	if !returned {
		t.Errorf("never returned to the holding fix")
	}
	want := []HoldState{HoldStateTurningOutbound, HoldStateFlyingOutbound, HoldStateTurningInbound,
		HoldStateFlyingInbound, HoldStateTurningOutbound}
	if len(states) < len(want) || !slices.Equal(states[:len(want)], want) {
		t.Errorf("hold states %v, expected to start with %v", states, want)
	}
	if s.FlightState.IAS > 230 {
		t.Errorf("holding at %.0f knots", s.FlightState.IAS)
	}
}
