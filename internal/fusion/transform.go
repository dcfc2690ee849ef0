// Package fusion implements the Fusion-SLAM operator: it ingests tracked
// objects and poses, transforms local point clouds into the world frame,
// and merges repeated sightings of the same landmark.
package fusion

import (
	"math"

	"github.com/slamkit/fusion/internal/model"
)

// worldPoint rotates p by pose.YawDeg (degrees) about the origin, then
// translates by (pose.X, pose.Y).
func worldPoint(p model.CloudPoint, pose model.Pose) model.CloudPoint {
	rad := pose.YawDeg * math.Pi / 180
	cosYaw, sinYaw := math.Cos(rad), math.Sin(rad)
	return model.CloudPoint{
		X: cosYaw*p.X - sinYaw*p.Y + pose.X,
		Y: sinYaw*p.X + cosYaw*p.Y + pose.Y,
	}
}

// worldPoints applies worldPoint to every point in local.
func worldPoints(local []model.CloudPoint, pose model.Pose) []model.CloudPoint {
	out := make([]model.CloudPoint, len(local))
	for i, p := range local {
		out[i] = worldPoint(p, pose)
	}
	return out
}
