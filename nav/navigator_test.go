// nav/navigator_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"fmt"
	"testing"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"
)

var testOrigin = math.Point2LL{-73.5, 40}

func testFlightState(p math.Point2LL, heading, altitude, gs float32) FlightState {
	return FlightState{
		Position:       p,
		Heading:        heading,
		Altitude:       altitude,
		IAS:            gs,
		GS:             gs,
		NmPerLongitude: math.NMPerLongitudeAt(testOrigin),
	}
}

func offset(p math.Point2LL, hdg, dist float32) math.Point2LL {
	return math.Offset2LL(p, hdg, dist, math.NMPerLongitudeAt(testOrigin))
}

// turnRoute returns a two-waypoint route where the first waypoint is
// dist nm north of the origin and the second requires a turn to the
// given heading there.
func turnRoute(dist, turnTo float32, flyOver bool) av.WaypointArray {
	wp := offset(testOrigin, 0, dist)
	return av.WaypointArray{
		{Fix: "TURNN", Location: wp, FlyOver: flyOver},
		{Fix: "NEXXT", Location: offset(wp, turnTo, 10)},
	}
}

func TestNavigatorInvalidRoute(t *testing.T) {
	n := NewNavigator(DefaultPerformance())
	fs := testFlightState(testOrigin, 0, 5000, 250)
	route := turnRoute(3, 90, false)

	for _, tc := range []struct {
		name  string
		route av.WaypointArray
		leg   int
	}{
		{"empty route", nil, 0},
		{"negative leg", route, -1},
		{"leg past end", route, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := n.Evaluate(fs, tc.route, tc.leg); !errors.Is(err, ErrInvalidRouteState) {
				t.Errorf("expected ErrInvalidRouteState, got %v", err)
			}
		})
	}
}

func TestNavigatorDecisions(t *testing.T) {
	n := NewNavigator(DefaultPerformance())
	fs := testFlightState(testOrigin, 0, 5000, 250) // turn radius ~1.33nm

	tests := []struct {
		name        string
		route       av.WaypointArray
		leg         int
		action      NavAction
		anticipated bool
		complete    bool
	}{
		{"fly-by far away", turnRoute(3, 90, false), 0, ContinueToCurrent, false, false},
		{"fly-by within turn lead", turnRoute(1, 90, false), 0, AdvanceToNext, true, false},
		{"fly-by outside turn lead", turnRoute(1.5, 90, false), 0, ContinueToCurrent, false, false},
		{"fly-over within turn lead", turnRoute(1, 90, true), 0, ContinueToCurrent, false, false},
		{"fly-over just outside pass distance", turnRoute(0.6, 90, true), 0, ContinueToCurrent, false, false},
		{"fly-over passed", turnRoute(0.4, 90, true), 0, AdvanceToNext, false, false},
		{"fly-by passed straight ahead", turnRoute(0.4, 0, false), 0, AdvanceToNext, false, false},
		{"no turn no anticipation", turnRoute(0.8, 0, false), 0, ContinueToCurrent, false, false},
		{"sharp turn beyond fly-by limit", turnRoute(5.5, 170, false), 0, ContinueToCurrent, false, false},
		{"sharp turn within fly-by limit", turnRoute(4.5, 170, false), 0, AdvanceToNext, true, false},
		{"last waypoint approaching", turnRoute(1, 90, false)[:1], 0, ContinueToCurrent, false, false},
		{"last waypoint passed", turnRoute(0.3, 90, false)[:1], 0, AdvanceToNext, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := n.Evaluate(fs, tc.route, tc.leg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Action != tc.action {
				t.Errorf("action %s, expected %s (distance %.2f)", d.Action, tc.action, d.Distance)
			}
			if d.Anticipated != tc.anticipated {
				t.Errorf("anticipated %v, expected %v", d.Anticipated, tc.anticipated)
			}
			if d.RouteComplete != tc.complete {
				t.Errorf("route complete %v, expected %v", d.RouteComplete, tc.complete)
			}
		})
	}
}

func TestNavigatorDistanceLimits(t *testing.T) {
	perf := DefaultPerformance()
	n := NewNavigator(perf)

	for _, gs := range []float32{120, 250, 480} {
		for _, turn := range []float32{0, 30, 90, 135, 175} {
			for dist := float32(0.1); dist < 8; dist += 0.1 {
				for _, flyOver := range []bool{false, true} {
					name := fmt.Sprintf("gs %.0f turn %.0f dist %.1f flyover %v", gs, turn, dist, flyOver)
					fs := testFlightState(testOrigin, 0, 5000, gs)
					d, err := n.Evaluate(fs, turnRoute(dist, turn, flyOver), 0)
					if err != nil {
						t.Fatalf("%s: %v", name, err)
					}
					if d.Action == ContinueToCurrent {
						continue
					}
					if flyOver && (d.Anticipated || d.Distance > perf.MaxPassDistance) {
						t.Errorf("%s: fly-over waypoint sequenced at %.2fnm anticipated %v", name, d.Distance, d.Anticipated)
					}
					if d.Anticipated && d.Distance > perf.MaxFlyByDistance {
						t.Errorf("%s: anticipated turn at %.2fnm", name, d.Distance)
					}
				}
			}
		}
	}
}

func TestTurnLead(t *testing.T) {
	perf := DefaultPerformance()
	n := NewNavigator(perf)
	fs := testFlightState(testOrigin, 0, 5000, 250)

	route := turnRoute(3, 90, false)
	r := perf.TurnRadius(250)
	if lead := n.TurnLead(fs, route[0], route[1]); math.Abs(lead-r) > 0.01 {
		t.Errorf("90 degree turn lead %.3f, expected turn radius %.3f", lead, r)
	}

	route = turnRoute(3, 0, false)
	if lead := n.TurnLead(fs, route[0], route[1]); lead > 0.01 {
		t.Errorf("straight ahead turn lead %.3f, expected 0", lead)
	}

	route = turnRoute(3, 180, false)
	if lead := n.TurnLead(fs, route[0], route[1]); lead != perf.MaxFlyByDistance {
		t.Errorf("reversal turn lead %.3f, expected %.3f", lead, perf.MaxFlyByDistance)
	}
}
