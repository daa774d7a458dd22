// nav/log.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

// Available logging categories
const (
	NavLogState    = "state"
	NavLogWaypoint = "waypoint"
	NavLogApproach = "approach"
	NavLogCommand  = "command"
	NavLogRoute    = "route"
)

var navLogCategories = []string{NavLogState, NavLogWaypoint, NavLogApproach, NavLogCommand, NavLogRoute}
