// nav/navigator.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"
)

type NavAction int

const (
	ContinueToCurrent NavAction = iota
	AdvanceToNext
)

func (a NavAction) String() string {
	switch a {
	case ContinueToCurrent:
		return "continue"
	case AdvanceToNext:
		return "advance"
	default:
		return fmt.Sprintf("NavAction(%d)", int(a))
	}
}

type NavDecision struct {
	Action   NavAction
	Distance float32 // nm to the current waypoint

	// Set when the waypoint was sequenced early so that the turn onto
	// the next leg doesn't overshoot it.
	Anticipated bool
	// Set when the last waypoint of the route was passed.
	RouteComplete bool
}

// Navigator decides when the aircraft has passed the waypoint it is
// flying to.
type Navigator struct {
	perf *Performance
}

func NewNavigator(perf *Performance) *Navigator {
	return &Navigator{perf: perf}
}

// Evaluate returns the navigation decision for an aircraft with the given
// flight state that is flying to route[leg].
func (n *Navigator) Evaluate(fs FlightState, route av.WaypointArray, leg int) (NavDecision, error) {
	if len(route) == 0 {
		return NavDecision{}, fmt.Errorf("%w: empty route", ErrInvalidRouteState)
	}
	if leg < 0 || leg >= len(route) {
		return NavDecision{}, fmt.Errorf("%w: leg %d of %d-waypoint route", ErrInvalidRouteState, leg, len(route))
	}

	wp := route[leg]
	d := NavDecision{Distance: math.NMDistance2LLFast(fs.Position, wp.Location, fs.NmPerLongitude)}

	if d.Distance <= n.perf.MaxPassDistance {
		d.Action = AdvanceToNext
	} else if !wp.FlyOver && leg+1 < len(route) && d.Distance <= n.perf.MaxFlyByDistance &&
		d.Distance <= n.TurnLead(fs, wp, route[leg+1]) {
		// Fly-over waypoints never get here: they must be passed directly.
		d.Action = AdvanceToNext
		d.Anticipated = true
	}

	d.RouteComplete = d.Action == AdvanceToNext && leg == len(route)-1
	return d, nil
}

// TurnLead returns the distance before the waypoint wp at which a turn
// at the standard rate must begin in order to roll out on the course to
// next without overshooting it.
func (n *Navigator) TurnLead(fs FlightState, wp, next av.Waypoint) float32 {
	inbound := math.Heading2LL(fs.Position, wp.Location, fs.NmPerLongitude, 0)
	outbound := math.Heading2LL(wp.Location, next.Location, fs.NmPerLongitude, 0)
	theta := math.Radians(math.HeadingDifference(inbound, outbound))

	if theta >= math.Pi()-1e-3 {
		// Reversing course; any amount of lead is insufficient.
		return n.perf.MaxFlyByDistance
	}
	lead := n.perf.TurnRadius(fs.GS) * math.Tan(theta/2)
	return math.Clamp(lead, 0, n.perf.MaxFlyByDistance)
}
