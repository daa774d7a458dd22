// nav/perf.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmp/flightcore/math"
	"github.com/mmp/flightcore/util"

	"github.com/BurntSushi/toml"
)

var ErrInvalidPerformance = errors.New("Invalid performance profile")

// Performance holds the physical and operational constants that the
// navigation code uses. It is created once at startup and is not
// modified afterward; it's safe to share between goroutines.
type Performance struct {
	MaxFlyByDistance       float32 `toml:"max_fly_by_distance"`      // nm
	MaxPassDistance        float32 `toml:"max_pass_distance"`        // nm
	MaxEstablishedDistance float32 `toml:"max_established_distance"` // nm
	MaxEstablishedAngle    float32 `toml:"max_established_angle"`    // radians
	MinimumDescentAltitude float32 `toml:"minimum_descent_altitude"` // ft above the runway
	TakeoffTurnAltitude    float32 `toml:"takeoff_turn_altitude"`    // ft above the runway
	TurnRate               float32 `toml:"turn_rate"`                // radians / second
	TypicalClimbFactor     float32 `toml:"typical_climb_factor"`     // fraction of the max climb rate
	TypicalDescentFactor   float32 `toml:"typical_descent_factor"`   // fraction of the max descent rate
	AltitudeTolerance      float32 `toml:"altitude_tolerance"`       // ft
	TaxiSpeed              float32 `toml:"taxi_speed"`               // kts
	TaxiDelay              float32 `toml:"taxi_delay"`               // seconds
	GlideslopeAngle        float32 `toml:"glideslope_angle"`         // degrees
	MissedApproachAltitude float32 `toml:"missed_approach_altitude"` // ft above the runway
}

func DefaultPerformance() *Performance {
	return &Performance{
		MaxFlyByDistance:       5,
		MaxPassDistance:        0.5,
		MaxEstablishedDistance: 0.0246868, // 150 feet
		MaxEstablishedAngle:    0.0174533, // 1 degree
		MinimumDescentAltitude: 200,
		TakeoffTurnAltitude:    400,
		TurnRate:               0.0523598776, // 3 degrees/second
		TypicalClimbFactor:     0.7,
		TypicalDescentFactor:   0.7,
		AltitudeTolerance:      100,
		TaxiSpeed:              30,
		TaxiDelay:              60,
		GlideslopeAngle:        3,
		MissedApproachAltitude: 2000,
	}
}

// LoadPerformance returns the default performance profile with any values
// given in the TOML file at path substituted in.
func LoadPerformance(path string) (*Performance, error) {
	p := DefaultPerformance()
	md, err := toml.DecodeFile(path, p)
	if err != nil {
		return nil, err
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		var keys []string
		for _, k := range undec {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalidPerformance, strings.Join(keys, ", "))
	}
	if err := p.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Check returns an error wrapping ErrInvalidPerformance if any of the
// values is not positive and finite.
func (p *Performance) Check() error {
	var e util.ErrorLogger
	for _, v := range []struct {
		name  string
		value float32
	}{
		{"max_fly_by_distance", p.MaxFlyByDistance},
		{"max_pass_distance", p.MaxPassDistance},
		{"max_established_distance", p.MaxEstablishedDistance},
		{"max_established_angle", p.MaxEstablishedAngle},
		{"minimum_descent_altitude", p.MinimumDescentAltitude},
		{"takeoff_turn_altitude", p.TakeoffTurnAltitude},
		{"turn_rate", p.TurnRate},
		{"typical_climb_factor", p.TypicalClimbFactor},
		{"typical_descent_factor", p.TypicalDescentFactor},
		{"altitude_tolerance", p.AltitudeTolerance},
		{"taxi_speed", p.TaxiSpeed},
		{"taxi_delay", p.TaxiDelay},
		{"glideslope_angle", p.GlideslopeAngle},
		{"missed_approach_altitude", p.MissedApproachAltitude},
	} {
		if v.value <= 0 || !math.IsFinite(v.value) {
			e.ErrorString("%s: %v must be positive", v.name, v.value)
		}
	}
	if p.MaxPassDistance > p.MaxFlyByDistance {
		e.ErrorString("max_pass_distance must not exceed max_fly_by_distance")
	}

	if e.HaveErrors() {
		return fmt.Errorf("%w: %s", ErrInvalidPerformance, e.String())
	}
	return nil
}

// TurnRadius returns the radius in nm of a turn at the standard turn rate
// at the given groundspeed.
func (p *Performance) TurnRadius(gs float32) float32 {
	return (gs / 3600) / p.TurnRate
}

// TurnRateDegrees returns the turn rate in degrees per second.
func (p *Performance) TurnRateDegrees() float32 {
	return math.Degrees(p.TurnRate)
}

func (p *Performance) TaxiDelayDuration() time.Duration {
	return time.Duration(float64(p.TaxiDelay) * float64(time.Second))
}
