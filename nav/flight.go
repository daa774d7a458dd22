// nav/flight.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"
)

// Fly integrates the aircraft's motion over dt seconds according to its
// phase, mode, and targets. It doesn't change the phase or mode; that's
// left to Advance.
func (m *Machine) Fly(s *NavState, route av.WaypointArray, dt float32) {
	if s.Removed || !s.Phase.Airborne() {
		return
	}

	m.updateSpeed(s, route, dt)
	m.updateHeading(s, route, dt)
	m.updateAltitude(s, route, dt)
	m.updatePositionAndGS(s, dt)
}

func onRunway(fs FlightState) bool {
	return fs.Altitude <= fs.FieldElevation
}

func (m *Machine) targetSpeed(s *NavState, route av.WaypointArray) float32 {
	perf, fs := s.Perf, s.FlightState

	switch s.Phase {
	case PhaseTakeoff:
		return perf.Speed.V2 + 10

	case PhaseApproach:
		return perf.Speed.Landing + 10

	case PhaseLanding:
		if onRunway(fs) {
			return 0
		}
		return perf.Speed.Landing

	default:
		spd := perf.Speed.Cruise
		if fs.Altitude < 10000 {
			spd = min(spd, 250)
		}
		if s.Phase == PhaseHold {
			spd = min(spd, 230)
		} else if s.Mode == NavModeFix && s.LegIndex < len(route) && route[s.LegIndex].Speed != 0 {
			spd = float32(route[s.LegIndex].Speed)
		}
		return spd
	}
}

func (m *Machine) updateSpeed(s *NavState, route av.WaypointArray, dt float32) {
	fs := &s.FlightState
	target := m.targetSpeed(s, route)

	if fs.IAS < target {
		fs.IAS = min(target, fs.IAS+s.Perf.Rate.Accelerate*dt)
	} else if fs.IAS > target {
		decel := s.Perf.Rate.Decelerate
		if s.Phase == PhaseLanding && onRunway(*fs) {
			// Braking
			decel *= 3
		}
		fs.IAS = max(target, fs.IAS-decel*dt)
	}
}

func (m *Machine) targetHeading(s *NavState, route av.WaypointArray, dt float32) float32 {
	fs := s.FlightState

	if c := s.Approach.Course; c != nil && (s.Phase == PhaseApproach || (s.Phase == PhaseLanding && !onRunway(fs))) {
		// Fly the localizer: intercept at up to 30 degrees, with the
		// intercept angle proportional to the cross-track error.
		xt, err := m.Evaluator.CrossTrack(fs.Position, *c, fs.NmPerLongitude)
		if err != nil {
			return fs.Heading
		}
		return math.NormalizeHeading(c.Bearing + math.Clamp(-60*xt, -30, 30))
	}

	switch s.Mode {
	case NavModeFix:
		if s.LegIndex >= 0 && s.LegIndex < len(route) {
			return math.Heading2LL(fs.Position, route[s.LegIndex].Location, fs.NmPerLongitude, 0)
		}
		return fs.Heading

	case NavModeHeading:
		return s.Targets.AssignedHeading

	case NavModeHold:
		if s.Hold == nil {
			s.Hold = NewFlyHold(fs)
		}
		return s.Hold.Heading(fs, m.Perf.TurnRateDegrees(), dt)

	default:
		return fs.Heading
	}
}

func (m *Machine) updateHeading(s *NavState, route av.WaypointArray, dt float32) {
	fs := &s.FlightState
	if s.Phase == PhaseTakeoff || onRunway(*fs) {
		return
	}

	target := m.targetHeading(s, route, dt)
	maxTurn := m.Perf.TurnRateDegrees() * dt
	turn := math.Clamp(math.HeadingSignedTurn(fs.Heading, target), -maxTurn, maxTurn)
	fs.Heading = math.NormalizeHeading(fs.Heading + turn)
}

// glideslopeAltitude returns the altitude of the glideslope at the
// aircraft's position.
func (m *Machine) glideslopeAltitude(s *NavState) float32 {
	c := s.Approach.Course
	d := c.DistanceToThreshold(s.FlightState.Position, s.FlightState.NmPerLongitude)
	return c.Elevation + d*math.NauticalMilesToFeet*math.Tan(math.Radians(m.Perf.GlideslopeAngle))
}

func (m *Machine) updateAltitude(s *NavState, route av.WaypointArray, dt float32) {
	fs := &s.FlightState

	var target, rate float32
	switch s.Phase {
	case PhaseTakeoff:
		if fs.IAS < s.Perf.Speed.V2 {
			fs.AltitudeRate = 0
			return
		}
		// Full power until reaching the turn altitude.
		target, rate = max(s.Targets.ClearedAltitude, fs.Altitude+1000), s.Perf.Rate.Climb

	case PhaseApproach:
		if s.Approach.Course == nil {
			target = fs.FieldElevation
		} else {
			// Never climb to meet the glideslope.
			target = max(fs.FieldElevation, min(fs.Altitude, m.glideslopeAltitude(s)))
		}
		rate = s.Perf.Rate.Descent

	case PhaseLanding:
		// Continue down the glidepath angle to touchdown.
		glide := fs.GS / 60 * math.NauticalMilesToFeet * math.Tan(math.Radians(m.Perf.GlideslopeAngle))
		target, rate = fs.FieldElevation, max(300, min(s.Perf.Rate.Descent, glide))

	default:
		target = s.TargetAltitude(route)
		rate = s.Targets.TargetVerticalRate
		if rate == 0 {
			if target > fs.Altitude {
				rate = m.Perf.TypicalClimbFactor * s.Perf.Rate.Climb
			} else {
				rate = m.Perf.TypicalDescentFactor * s.Perf.Rate.Descent
			}
		}
	}

	step := rate / 60 * dt
	if diff := target - fs.Altitude; math.Abs(diff) <= step {
		fs.Altitude = target
		fs.AltitudeRate = 0
	} else {
		fs.Altitude += math.Sign(diff) * step
		fs.AltitudeRate = math.Sign(diff) * rate
	}
}

func (m *Machine) updatePositionAndGS(s *NavState, dt float32) {
	fs := &s.FlightState
	if onRunway(*fs) {
		fs.GS = fs.IAS
	} else {
		// True airspeed increases by roughly 2% per thousand feet.
		fs.GS = fs.IAS * (1 + .02*fs.Altitude/1000)
	}
	fs.Position = math.Offset2LL(fs.Position, fs.Heading, fs.GS/3600*dt, fs.NmPerLongitude)
}
