// nav/perf_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmp/flightcore/math"
)

func TestDefaultPerformance(t *testing.T) {
	p := DefaultPerformance()
	if err := p.Check(); err != nil {
		t.Fatalf("default performance: %v", err)
	}

	if r := p.TurnRadius(250); math.Abs(r-1.3263) > 0.001 {
		t.Errorf("turn radius at 250kts %.4f, expected 1.3263", r)
	}
	if d := p.TurnRateDegrees(); math.Abs(d-3) > 1e-4 {
		t.Errorf("turn rate %.4f degrees/s, expected 3", d)
	}
	if d := p.TaxiDelayDuration(); d != time.Minute {
		t.Errorf("taxi delay %s, expected 1m", d)
	}
}

func TestPerformanceCheck(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(*Performance)
	}{
		{"zero fly-by distance", func(p *Performance) { p.MaxFlyByDistance = 0 }},
		{"negative turn rate", func(p *Performance) { p.TurnRate = -1 }},
		{"pass beyond fly-by", func(p *Performance) { p.MaxPassDistance = 6 }},
		{"infinite tolerance", func(p *Performance) { p.AltitudeTolerance = float32(gomath.Inf(1)) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPerformance()
			tc.modify(p)
			if err := p.Check(); !errors.Is(err, ErrInvalidPerformance) {
				t.Errorf("expected ErrInvalidPerformance, got %v", err)
			}
		})
	}
}

func writePerf(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perf.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPerformance(t *testing.T) {
	path := writePerf(t, `
max_fly_by_distance = 3.0
taxi_delay = 90.0
glideslope_angle = 3.5
`)
	p, err := LoadPerformance(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := DefaultPerformance()
	if p.MaxFlyByDistance != 3 || p.TaxiDelay != 90 || p.GlideslopeAngle != 3.5 {
		t.Errorf("overrides not applied: %+v", *p)
	}
	if p.MaxPassDistance != def.MaxPassDistance || p.TurnRate != def.TurnRate {
		t.Errorf("defaults not retained: %+v", *p)
	}
}

func TestLoadPerformanceErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		contents string
		invalid  bool
	}{
		{"unknown key", "max_flyby_distance = 3.0\n", true},
		{"invalid value", "max_pass_distance = 10.0\n", true},
		{"malformed", "max_fly_by_distance = \n", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadPerformance(writePerf(t, tc.contents))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.invalid && !errors.Is(err, ErrInvalidPerformance) {
				t.Errorf("expected ErrInvalidPerformance, got %v", err)
			}
		})
	}

	if _, err := LoadPerformance(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
