// sim/aircraft.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/nav"
)

type Aircraft struct {
	Callsign       string
	TypeOfAircraft string

	// The route is fixed when the aircraft is created; only the index of
	// the current waypoint in NavState changes as it's flown.
	Route av.WaypointArray

	Nav nav.NavState
}

func (ac *Aircraft) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("callsign", ac.Callsign),
		slog.String("type", ac.TypeOfAircraft),
		slog.String("route", ac.Route.Encode()),
		slog.Any("nav", ac.Nav))
}

// Check returns an error if the aircraft's state is inconsistent.
func (ac *Aircraft) Check() error {
	if ac.Callsign == "" {
		return fmt.Errorf("aircraft has no callsign")
	}
	if ac.Nav.Callsign != ac.Callsign {
		return fmt.Errorf("%s: nav state callsign %q mismatch", ac.Callsign, ac.Nav.Callsign)
	}
	return ac.Nav.Check()
}

// CurrentWaypoint returns the waypoint the aircraft is flying to, if
// it's following its route.
func (ac *Aircraft) CurrentWaypoint() (av.Waypoint, bool) {
	if ac.Nav.Mode != nav.NavModeFix || ac.Nav.LegIndex < 0 || ac.Nav.LegIndex >= len(ac.Route) {
		return av.Waypoint{}, false
	}
	return ac.Route[ac.Nav.LegIndex], true
}
