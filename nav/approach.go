// nav/approach.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/math"
)

// CourseEvaluator determines whether aircraft are established on an
// approach course.
type CourseEvaluator struct {
	perf *Performance
}

func NewCourseEvaluator(perf *Performance) *CourseEvaluator {
	return &CourseEvaluator{perf: perf}
}

// CrossTrack returns the signed lateral distance in nm from p to the
// course's extended centerline; positive values are right of course.
func (ce *CourseEvaluator) CrossTrack(p math.Point2LL, course av.ApproachCourse, nmPerLongitude float32) (float32, error) {
	if err := course.Check(); err != nil {
		return 0, err
	}
	if nmPerLongitude <= 0 {
		return 0, fmt.Errorf("%s: %w: nm per longitude %f", course.Id, av.ErrInvalidGeometry, nmPerLongitude)
	}

	cl := course.Centerline(nmPerLongitude)
	return math.SignedPointLineDistance(math.LL2NM(p, nmPerLongitude), cl[0], cl[1]), nil
}

// Established reports whether an aircraft at p flying the given (true)
// heading is both laterally and angularly aligned with the course.
func (ce *CourseEvaluator) Established(p math.Point2LL, heading float32, course av.ApproachCourse,
	nmPerLongitude float32) (bool, error) {
	xt, err := ce.CrossTrack(p, course, nmPerLongitude)
	if err != nil {
		return false, err
	}

	angle := math.AngleDifference(math.Radians(heading), math.Radians(course.Bearing))
	return math.Abs(xt) <= ce.perf.MaxEstablishedDistance && angle <= ce.perf.MaxEstablishedAngle, nil
}
