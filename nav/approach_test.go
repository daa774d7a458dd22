// nav/approach_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	gomath "math"
	"testing"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"
)

// Runway 09 at the test origin.
var testCourse = av.ApproachCourse{
	Id:        "I09",
	Runway:    "09",
	Threshold: testOrigin,
	Bearing:   90,
	Elevation: 13,
}

func TestCrossTrack(t *testing.T) {
	ce := NewCourseEvaluator(DefaultPerformance())
	nmPerLong := math.NMPerLongitudeAt(testOrigin)
	final := offset(testOrigin, 270, 5)

	tests := []struct {
		name string
		p    math.Point2LL
		xt   float32
	}{
		{"on centerline", final, 0},
		{"north is left", offset(final, 0, 0.5), -0.5},
		{"south is right", offset(final, 180, 0.5), 0.5},
		{"past threshold", offset(offset(testOrigin, 90, 2), 180, 1), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			xt, err := ce.CrossTrack(tc.p, testCourse, nmPerLong)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(xt-tc.xt) > 0.005 {
				t.Errorf("cross track %.4f, expected %.4f", xt, tc.xt)
			}
		})
	}
}

func TestEstablished(t *testing.T) {
	ce := NewCourseEvaluator(DefaultPerformance())
	nmPerLong := math.NMPerLongitudeAt(testOrigin)
	final := offset(testOrigin, 270, 5)

	tests := []struct {
		name        string
		p           math.Point2LL
		heading     float32
		established bool
	}{
		{"aligned", final, 90, true},
		{"within lateral limit left", offset(final, 0, 0.02), 90, true},
		{"within lateral limit right", offset(final, 180, 0.02), 90, true},
		{"within angular limit", final, 90.8, true},
		{"lateral only", offset(final, 0, 0.03), 90, false},
		{"angular only", final, 92, false},
		{"neither", offset(final, 180, 1), 120, false},
		{"reciprocal heading", final, 270, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			est, err := ce.Established(tc.p, tc.heading, testCourse, nmPerLong)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if est != tc.established {
				t.Errorf("established %v, expected %v", est, tc.established)
			}
		})
	}
}

func TestEstablishedHeadingWrap(t *testing.T) {
	course := testCourse
	course.Bearing = 1
	nmPerLong := math.NMPerLongitudeAt(testOrigin)
	final := offset(testOrigin, 181, 5)

	// Heading 359 is 2 degrees from the course, not 358.
	for _, tc := range []struct {
		limit       float32 // degrees
		established bool
	}{
		{2.5, true},
		{1.5, false},
	} {
		perf := DefaultPerformance()
		perf.MaxEstablishedAngle = math.Radians(tc.limit)
		ce := NewCourseEvaluator(perf)

		est, err := ce.Established(final, 359, course, nmPerLong)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if est != tc.established {
			t.Errorf("limit %.1f: established %v, expected %v", tc.limit, est, tc.established)
		}
	}
}

func TestEstablishedInvalidGeometry(t *testing.T) {
	ce := NewCourseEvaluator(DefaultPerformance())
	nmPerLong := math.NMPerLongitudeAt(testOrigin)

	noThreshold := testCourse
	noThreshold.Threshold = math.Point2LL{}
	nanBearing := testCourse
	nanBearing.Bearing = float32(gomath.NaN())

	for _, tc := range []struct {
		name      string
		course    av.ApproachCourse
		nmPerLong float32
	}{
		{"missing threshold", noThreshold, nmPerLong},
		{"undefined bearing", nanBearing, nmPerLong},
		{"bad projection", testCourse, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ce.Established(testOrigin, 90, tc.course, tc.nmPerLong); !errors.Is(err, av.ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}
