// aviation/performance.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"github.com/mmp/flightcore/util"
)

// AircraftPerformance describes the performance envelope of an aircraft
// type.
type AircraftPerformance struct {
	ICAO string `json:"icao"`
	Rate struct {
		Climb      float32 `json:"climb"` // ft / minute
		Descent    float32 `json:"descent"`
		Accelerate float32 `json:"accelerate"` // kts / second
		Decelerate float32 `json:"decelerate"`
	} `json:"rate"`
	Speed struct {
		Min     float32 `json:"min"`
		V2      float32 `json:"v2"`
		Landing float32 `json:"landing"`
		Cruise  float32 `json:"cruise"`
	} `json:"speed"`
}

func (ap AircraftPerformance) Check(e *util.ErrorLogger) {
	e.Push(ap.ICAO)
	defer e.Pop()

	if ap.Rate.Climb <= 0 {
		e.ErrorString("climb rate must be positive")
	}
	if ap.Rate.Descent <= 0 {
		e.ErrorString("descent rate must be positive")
	}
	if ap.Rate.Accelerate <= 0 || ap.Rate.Decelerate <= 0 {
		e.ErrorString("acceleration and deceleration rates must be positive")
	}
	if ap.Speed.V2 <= 0 || ap.Speed.Landing <= 0 || ap.Speed.Cruise <= 0 {
		e.ErrorString("v2, landing, and cruise speeds must be given")
	}
	if ap.Speed.Min > ap.Speed.Landing {
		e.ErrorString("minimum speed %.0f is above landing speed %.0f", ap.Speed.Min, ap.Speed.Landing)
	}
}
