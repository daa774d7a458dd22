// sim/clearance.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/nav"
	"github.com/mmp/flightcore/util"
)

// ParseClearance converts a controller's shorthand for a clearance to the
// corresponding intent:
//
//	taxi, takeoff, hold, exithold, final, land, goaround
//	aNN     climb/descend and maintain NN hundred feet
//	hNNN    fly magnetic heading NNN
//	dFIX    proceed direct FIX
//	cAPP    cleared for approach APP
func ParseClearance(s string) (nav.Intent, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "taxi":
		return nav.TaxiIntent{}, nil
	case "takeoff", "cto":
		return nav.TakeoffIntent{}, nil
	case "hold":
		return nav.HoldIntent{}, nil
	case "exithold":
		return nav.ExitHoldIntent{}, nil
	case "final":
		return nav.VectorFinalIntent{}, nil
	case "land", "ctl":
		return nav.LandIntent{}, nil
	case "goaround", "ga":
		return nav.GoAroundIntent{}, nil
	}

	if len(s) < 2 {
		return nil, fmt.Errorf("%q: %w", s, ErrUnknownClearance)
	}
	arg := s[1:]

	switch s[0] {
	case 'a':
		alt, err := strconv.Atoi(arg)
		if err != nil || alt <= 0 {
			return nil, fmt.Errorf("%q: invalid altitude: %w", s, ErrUnknownClearance)
		}
		return nav.AltitudeIntent{Altitude: float32(100 * alt)}, nil

	case 'h':
		hdg, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%q: invalid heading: %w", s, ErrUnknownClearance)
		}
		return nav.HeadingIntent{Heading: float32(hdg), Magnetic: true}, nil

	case 'd':
		return nav.DirectFixIntent{Fix: strings.ToUpper(arg)}, nil

	case 'c':
		// The course itself is filled in from the sim's approach table.
		return nav.ApproachIntent{Course: av.ApproachCourse{Id: strings.ToUpper(arg)}}, nil

	default:
		return nil, fmt.Errorf("%q: %w", s, ErrUnknownClearance)
	}
}

// ScriptedClearance is a clearance to be issued to an aircraft at a
// given tick.
type ScriptedClearance struct {
	Tick     int
	Callsign string
	Intent   nav.Intent
}

// ParseClearanceScript reads clearances, one per line, of the form
// TICK:CALLSIGN:CLEARANCE. Blank lines and lines starting with # are
// ignored. The clearances are returned sorted by tick; clearances for the
// same tick keep their order in the script.
func ParseClearanceScript(r io.Reader) ([]ScriptedClearance, error) {
	var e util.ErrorLogger
	var script []ScriptedClearance

	scanner := bufio.NewScanner(r)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		e.Push(fmt.Sprintf("line %d", lineno))
		if sc, err := parseScriptLine(line); err != nil {
			e.Error(err)
		} else {
			script = append(script, sc)
		}
		e.Pop()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if e.HaveErrors() {
		return nil, e.Err()
	}

	slices.SortStableFunc(script, func(a, b ScriptedClearance) int { return a.Tick - b.Tick })
	return script, nil
}

func parseScriptLine(line string) (ScriptedClearance, error) {
	f := strings.SplitN(line, ":", 3)
	if len(f) != 3 {
		return ScriptedClearance{}, fmt.Errorf("%q: expected TICK:CALLSIGN:CLEARANCE", line)
	}

	tick, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil || tick < 0 {
		return ScriptedClearance{}, fmt.Errorf("%q: invalid tick", f[0])
	}
	callsign := strings.ToUpper(strings.TrimSpace(f[1]))
	if callsign == "" {
		return ScriptedClearance{}, fmt.Errorf("%q: no callsign given", line)
	}
	intent, err := ParseClearance(f[2])
	if err != nil {
		return ScriptedClearance{}, err
	}

	return ScriptedClearance{Tick: tick, Callsign: callsign, Intent: intent}, nil
}
