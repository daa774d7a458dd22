// math/math_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"encoding/json"
	"testing"
)

func TestParseLatLong(t *testing.T) {
	type LL struct {
		str string
		pos Point2LL
	}
	latlongs := []LL{
		{str: "N40.37.58.400, W073.46.17.000", pos: Point2LL{-73.771385, 40.6328888}}, // JFK VOR
		{str: "N40.37.58.4,W073.46.17.000", pos: Point2LL{-73.771385, 40.6328888}},
		{str: "40.6328888, -73.771385", pos: Point2LL{-73.771385, 40.6328888}},
	}

	for _, ll := range latlongs {
		p, err := ParseLatLong([]byte(ll.str))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", ll.str, err)
		}
		if Abs(p[0]-ll.pos[0]) > 1e-4 {
			t.Errorf("%s: got %.9g for longitude, expected %.9g", ll.str, p[0], ll.pos[0])
		}
		if Abs(p[1]-ll.pos[1]) > 1e-4 {
			t.Errorf("%s: got %.9g for latitude, expected %.9g", ll.str, p[1], ll.pos[1])
		}
	}

	for _, invalid := range []string{
		"E40.37.58.400, W073.46.17.000",
		"40.37.58.400, W073.46.17.000",
		"N40.37.58.400, -73.22",
		"N40.37.58.400, W073.46.17",
	} {
		if _, err := ParseLatLong([]byte(invalid)); err == nil {
			t.Errorf("%s: no error was returned for invalid latlong string!", invalid)
		}
	}
}

func TestPoint2LLJSON(t *testing.T) {
	for _, js := range []string{`[-73.5, 40.25]`, `"40.25, -73.5"`, `"N40.15.00.000,W073.30.00.000"`} {
		var p Point2LL
		if err := json.Unmarshal([]byte(js), &p); err != nil {
			t.Errorf("%s: %v", js, err)
			continue
		}
		if Abs(p[0]+73.5) > 1e-4 || Abs(p[1]-40.25) > 1e-4 {
			t.Errorf("%s: got %v", js, p)
		}
	}
}

func TestHeadingDifference(t *testing.T) {
	tests := []struct {
		a, b, expected float32
	}{
		{359, 1, 2},
		{1, 359, 2},
		{90, 270, 180},
		{10, 50, 40},
		{0, 0, 0},
	}
	for _, tc := range tests {
		if d := HeadingDifference(tc.a, tc.b); Abs(d-tc.expected) > 1e-4 {
			t.Errorf("HeadingDifference(%f, %f) = %f, expected %f", tc.a, tc.b, d, tc.expected)
		}
	}
}

func TestAngleDifference(t *testing.T) {
	tests := []struct {
		name     string
		a, b     float32
		expected float32
	}{
		{"wraparound", Radians(359), Radians(1), Radians(2)},
		{"wraparound reversed", Radians(1), Radians(359), Radians(2)},
		{"opposite", 0, Pi(), Pi()},
		{"multiple turns", Radians(725), Radians(3), Radians(2)},
		{"same", 1, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if d := AngleDifference(tc.a, tc.b); Abs(d-tc.expected) > 1e-4 {
				t.Errorf("AngleDifference(%f, %f) = %f, expected %f", tc.a, tc.b, d, tc.expected)
			}
		})
	}
}

func TestHeadingSignedTurn(t *testing.T) {
	tests := []struct {
		cur, target, expected float32
	}{
		{350, 10, 20},
		{10, 350, -20},
		{90, 180, 90},
		{180, 90, -90},
	}
	for _, tc := range tests {
		if d := HeadingSignedTurn(tc.cur, tc.target); Abs(d-tc.expected) > 1e-3 {
			t.Errorf("HeadingSignedTurn(%f, %f) = %f, expected %f", tc.cur, tc.target, d, tc.expected)
		}
	}
}

func TestOffset2LL(t *testing.T) {
	p := Point2LL{-73.5, 40}
	nmPerLong := NMPerLongitudeAt(p)
	for _, hdg := range []float32{0, 45, 90, 200, 315} {
		q := Offset2LL(p, hdg, 3, nmPerLong)
		if d := NMDistance2LLFast(p, q, nmPerLong); Abs(d-3) > 1e-3 {
			t.Errorf("heading %f: offset distance %f, expected 3", hdg, d)
		}
		if h := Heading2LL(p, q, nmPerLong, 0); HeadingDifference(h, hdg) > 0.01 {
			t.Errorf("heading %f: got %f back", hdg, h)
		}
	}
}

func TestSignedPointLineDistance(t *testing.T) {
	p0, p1 := [2]float32{0, 0}, [2]float32{0, 1}
	if d := SignedPointLineDistance([2]float32{1, 5}, p0, p1); Abs(d-1) > 1e-5 {
		t.Errorf("right of line: got %f, expected 1", d)
	}
	if d := SignedPointLineDistance([2]float32{-2, -3}, p0, p1); Abs(d+2) > 1e-5 {
		t.Errorf("left of line: got %f, expected -2", d)
	}
	if d := PointLineDistance([2]float32{1, 1}, p0, p0); IsFinite(d) {
		t.Errorf("degenerate line: got finite distance %f", d)
	}
}
