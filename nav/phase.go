// nav/phase.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// FlightPhase

// FlightPhase is the operational phase an aircraft is in. The values are
// ordered by typical progression, though aircraft don't necessarily visit
// them in order.
type FlightPhase int

const (
	PhaseApron FlightPhase = iota
	PhaseTaxi
	PhaseWaiting
	PhaseTakeoff
	PhaseClimb
	PhaseCruise
	PhaseHold
	PhaseDescent
	PhaseApproach
	PhaseLanding

	NumFlightPhases
)

func (p FlightPhase) String() string {
	switch p {
	case PhaseApron:
		return "apron"
	case PhaseTaxi:
		return "taxi"
	case PhaseWaiting:
		return "waiting"
	case PhaseTakeoff:
		return "takeoff"
	case PhaseClimb:
		return "climb"
	case PhaseCruise:
		return "cruise"
	case PhaseHold:
		return "hold"
	case PhaseDescent:
		return "descent"
	case PhaseApproach:
		return "approach"
	case PhaseLanding:
		return "landing"
	default:
		return fmt.Sprintf("FlightPhase(%d)", int(p))
	}
}

func (p FlightPhase) Valid() bool {
	return p >= PhaseApron && p < NumFlightPhases
}

func (p FlightPhase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%d: invalid flight phase", int(p))
	}
	return []byte(p.String()), nil
}

func (p *FlightPhase) UnmarshalText(b []byte) error {
	for fp := PhaseApron; fp < NumFlightPhases; fp++ {
		if strings.EqualFold(string(b), fp.String()) {
			*p = fp
			return nil
		}
	}
	return fmt.Errorf("%s: unknown flight phase", string(b))
}

// OnGround reports whether the phase is one in which the aircraft is on
// the ground before departure.
func (p FlightPhase) OnGround() bool {
	return p == PhaseApron || p == PhaseTaxi || p == PhaseWaiting
}

// Airborne reports whether the aircraft is (generally) flying in the
// given phase; takeoff and landing include the ground roll.
func (p FlightPhase) Airborne() bool {
	return p.Valid() && !p.OnGround()
}

///////////////////////////////////////////////////////////////////////////
// FlightCategory

type FlightCategory int

const (
	Arrival FlightCategory = iota
	Departure
)

func (c FlightCategory) String() string {
	switch c {
	case Arrival:
		return "arrival"
	case Departure:
		return "departure"
	default:
		return fmt.Sprintf("FlightCategory(%d)", int(c))
	}
}

// InitialPhase returns the phase that aircraft of the category are in when
// they are created: departures start out parked and arrivals are
// already airborne.
func (c FlightCategory) InitialPhase() FlightPhase {
	if c == Departure {
		return PhaseApron
	}
	return PhaseCruise
}

func (c FlightCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *FlightCategory) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "arrival":
		*c = Arrival
	case "departure":
		*c = Departure
	default:
		return fmt.Errorf("%s: unknown flight category", string(b))
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// NavMode

// NavMode describes what the aircraft is steering toward.
type NavMode int

const (
	NavModeFix     NavMode = iota // following the route
	NavModeHeading                // flying an assigned heading
	NavModeHold                   // holding
	NavModeRunway                 // aligned with the runway for takeoff or landing
)

func (m NavMode) String() string {
	switch m {
	case NavModeFix:
		return "fix"
	case NavModeHeading:
		return "heading"
	case NavModeHold:
		return "hold"
	case NavModeRunway:
		return "rwy"
	default:
		return fmt.Sprintf("NavMode(%d)", int(m))
	}
}

func (m NavMode) MarshalText() ([]byte, error) {
	if m < NavModeFix || m > NavModeRunway {
		return nil, fmt.Errorf("%d: invalid nav mode", int(m))
	}
	return []byte(m.String()), nil
}

func (m *NavMode) UnmarshalText(b []byte) error {
	for nm := NavModeFix; nm <= NavModeRunway; nm++ {
		if strings.EqualFold(string(b), nm.String()) {
			*m = nm
			return nil
		}
	}
	return fmt.Errorf("%s: unknown nav mode", string(b))
}
