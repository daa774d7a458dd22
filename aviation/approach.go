// aviation/approach.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmp/flightcore/math"
)

var ErrInvalidGeometry = errors.New("Invalid approach course geometry")

// ApproachCourse is the final approach course to a runway: the course
// passes through the threshold with the given (true) inbound bearing.
type ApproachCourse struct {
	Id        string        `json:"id"`
	Runway    string        `json:"runway"`
	Threshold math.Point2LL `json:"threshold"`
	Bearing   float32       `json:"bearing"`   // degrees, inbound
	Elevation float32       `json:"elevation"` // feet MSL
}

// Check returns ErrInvalidGeometry if the course can't be used to define
// a centerline.
func (ac ApproachCourse) Check() error {
	if ac.Threshold.IsZero() || !math.IsFinite(ac.Threshold[0]) || !math.IsFinite(ac.Threshold[1]) {
		return fmt.Errorf("%s: %w: missing threshold", ac.Id, ErrInvalidGeometry)
	}
	if !math.IsFinite(ac.Bearing) {
		return fmt.Errorf("%s: %w: undefined bearing", ac.Id, ErrInvalidGeometry)
	}
	return nil
}

// Centerline returns two points along the extended centerline in
// nautical-mile coordinates: the threshold and a point one mile back
// along the final approach course.
func (ac ApproachCourse) Centerline(nmPerLongitude float32) [2][2]float32 {
	p0 := math.LL2NM(ac.Threshold, nmPerLongitude)
	h := math.Radians(ac.Bearing)
	// Offset opposite to the inbound direction so that the line's
	// direction from p1 to p0 is the inbound course.
	p1 := math.Sub2f(p0, [2]float32{math.Sin(h), math.Cos(h)})
	return [2][2]float32{p1, p0}
}

// DistanceToThreshold returns the distance in nautical miles from p to the
// runway threshold.
func (ac ApproachCourse) DistanceToThreshold(p math.Point2LL, nmPerLongitude float32) float32 {
	return math.NMDistance2LLFast(p, ac.Threshold, nmPerLongitude)
}

func (ac ApproachCourse) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", ac.Id),
		slog.String("runway", ac.Runway),
		slog.String("threshold", ac.Threshold.DDString()),
		slog.Float64("bearing", float64(ac.Bearing)),
		slog.Float64("elevation", float64(ac.Elevation)))
}
