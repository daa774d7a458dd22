// sim/errors.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
)

var (
	ErrDuplicateCallsign     = errors.New("Duplicate callsign")
	ErrInvalidScenario       = errors.New("Invalid scenario")
	ErrInvalidTickLength     = errors.New("Tick length must be positive")
	ErrNoAircraftForCallsign = errors.New("No aircraft with that callsign")
	ErrTickInProgress        = errors.New("Tick already in progress")
	ErrUnknownAircraftType   = errors.New("Unknown aircraft type")
	ErrUnknownApproach       = errors.New("Unknown approach")
	ErrUnknownClearance      = errors.New("Unknown clearance")
)
