// nav/clearance.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	av "github.com/mmp/flightcore/aviation"
)

// Intent is a validated clearance issued to an aircraft. The set of
// intents is closed; each is handled by Machine.Advance.
type Intent interface {
	isIntent()
	String() string
}

type TaxiIntent struct{}

type TakeoffIntent struct{}

type AltitudeIntent struct {
	Altitude float32
}

type HeadingIntent struct {
	Heading  float32
	Magnetic bool
}

type DirectFixIntent struct {
	Fix string
}

type HoldIntent struct{}

type ExitHoldIntent struct{}

type ApproachIntent struct {
	Course av.ApproachCourse
}

// VectorFinalIntent reports that the controller has vectored the aircraft
// onto the final approach course.
type VectorFinalIntent struct{}

type LandIntent struct{}

type GoAroundIntent struct{}

func (TaxiIntent) isIntent()        {}
func (TakeoffIntent) isIntent()     {}
func (AltitudeIntent) isIntent()    {}
func (HeadingIntent) isIntent()     {}
func (DirectFixIntent) isIntent()   {}
func (HoldIntent) isIntent()        {}
func (ExitHoldIntent) isIntent()    {}
func (ApproachIntent) isIntent()    {}
func (VectorFinalIntent) isIntent() {}
func (LandIntent) isIntent()        {}
func (GoAroundIntent) isIntent()    {}

func (TaxiIntent) String() string    { return "taxi" }
func (TakeoffIntent) String() string { return "takeoff" }
func (a AltitudeIntent) String() string {
	return fmt.Sprintf("altitude %.0f", a.Altitude)
}
func (h HeadingIntent) String() string {
	if h.Magnetic {
		return fmt.Sprintf("heading %03.0f", h.Heading)
	}
	return fmt.Sprintf("heading %03.0f true", h.Heading)
}
func (d DirectFixIntent) String() string { return "direct " + d.Fix }
func (HoldIntent) String() string        { return "hold" }
func (ExitHoldIntent) String() string    { return "exit hold" }
func (a ApproachIntent) String() string  { return "cleared approach " + a.Course.Id }
func (VectorFinalIntent) String() string { return "vectored to final" }
func (LandIntent) String() string        { return "cleared to land" }
func (GoAroundIntent) String() string    { return "go around" }
