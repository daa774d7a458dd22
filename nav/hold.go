// nav/hold.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	"github.com/mmp/flightcore/math"
)

// FlyHold describes a right-hand racetrack hold. The fix is where the
// aircraft was when the hold was assigned and the inbound course is the
// heading it was flying then.
type FlyHold struct {
	Fix           math.Point2LL
	InboundCourse float32 // degrees true
	LegLengthNM   float32
	State         HoldState
	LegStartPos   math.Point2LL
}

type HoldState int

const (
	HoldStateTurningOutbound HoldState = iota
	HoldStateFlyingOutbound
	HoldStateTurningInbound
	HoldStateFlyingInbound
)

func (s HoldState) String() string {
	switch s {
	case HoldStateTurningOutbound:
		return "TurningOutbound"
	case HoldStateFlyingOutbound:
		return "FlyingOutbound"
	case HoldStateTurningInbound:
		return "TurningInbound"
	case HoldStateFlyingInbound:
		return "FlyingInbound"
	default:
		return fmt.Sprintf("HoldState(%d)", int(s))
	}
}

// NewFlyHold returns a hold at the aircraft's current position. Legs are
// one minute long at the aircraft's current groundspeed.
func NewFlyHold(fs FlightState) *FlyHold {
	return &FlyHold{
		Fix:           fs.Position,
		InboundCourse: fs.Heading,
		LegLengthNM:   max(fs.GS, 150) / 60,
		State:         HoldStateTurningOutbound,
		LegStartPos:   fs.Position,
	}
}

// Each hold state is handled by a function that returns the heading to
// fly and the state to be in for the next step.
type holdStateFunc func(fh *FlyHold, fs FlightState, turn float32) (float32, HoldState)

var holdStateMachine map[HoldState]holdStateFunc

func init() {
	// turnRight returns the heading to fly when making a standard-rate
	// right turn toward hdg.
	turnRight := func(fs FlightState, hdg, turn float32) (float32, bool) {
		if math.HeadingDifference(fs.Heading, hdg) <= turn {
			return hdg, true
		}
		return math.NormalizeHeading(fs.Heading + turn), false
	}

	holdStateMachine = map[HoldState]holdStateFunc{
		HoldStateTurningOutbound: func(fh *FlyHold, fs FlightState, turn float32) (float32, HoldState) {
			hdg, done := turnRight(fs, math.OppositeHeading(fh.InboundCourse), turn)
			if done {
				return hdg, HoldStateFlyingOutbound
			}
			return hdg, HoldStateTurningOutbound
		},

		HoldStateFlyingOutbound: func(fh *FlyHold, fs FlightState, turn float32) (float32, HoldState) {
			outbound := math.OppositeHeading(fh.InboundCourse)
			if math.NMDistance2LL(fh.LegStartPos, fs.Position) >= fh.LegLengthNM {
				return outbound, HoldStateTurningInbound
			}
			return outbound, HoldStateFlyingOutbound
		},

		HoldStateTurningInbound: func(fh *FlyHold, fs FlightState, turn float32) (float32, HoldState) {
			hdg, done := turnRight(fs, fh.InboundCourse, turn)
			if done {
				return hdg, HoldStateFlyingInbound
			}
			return hdg, HoldStateTurningInbound
		},

		HoldStateFlyingInbound: func(fh *FlyHold, fs FlightState, turn float32) (float32, HoldState) {
			// Fly direct to the fix; this should be close to the inbound course.
			hdg := math.Heading2LL(fs.Position, fh.Fix, fs.NmPerLongitude, 0)
			if math.NMDistance2LL(fs.Position, fh.Fix) < 2*fs.GS/3600 {
				return hdg, HoldStateTurningOutbound
			}
			return hdg, HoldStateFlyingInbound
		},
	}
}

// Heading returns the heading to fly for the next dt seconds, advancing
// the hold's state as the aircraft goes around the racetrack.
func (fh *FlyHold) Heading(fs FlightState, turnRate, dt float32) float32 {
	hdg, next := holdStateMachine[fh.State](fh, fs, turnRate*dt)
	if next != fh.State {
		fh.State = next
		fh.LegStartPos = fs.Position
	}
	return hdg
}
