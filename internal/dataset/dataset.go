// Package dataset loads the camera, LiDAR, and pose datasets the pipeline
// replays. Loading and decoding these files is explicitly out of the
// fusion pipeline's scope (spec.md §1) — this package is the external
// collaborator the operators are handed pre-parsed model values by.
package dataset

import (
	"fmt"
	"os"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/slamkit/fusion/internal/model"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// cameraFrameDoc is the on-disk shape of one camera frame.
type cameraFrameDoc struct {
	Time            model.Tick             `json:"time"`
	DetectedObjects []model.DetectedObject `json:"detectedObjects"`
}

// LoadCameras reads a camera dataset file: a JSON object mapping each
// camera_key to its time-ordered sequence of frames.
func LoadCameras(path string) (map[string][]model.StampedDetection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read camera dataset %s: %w", path, err)
	}

	var raw map[string][]cameraFrameDoc
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse camera dataset %s: %w", path, err)
	}

	out := make(map[string][]model.StampedDetection, len(raw))
	for key, frames := range raw {
		converted := make([]model.StampedDetection, len(frames))
		for i, f := range frames {
			converted[i] = model.StampedDetection{Time: f.Time, Objects: f.DetectedObjects}
		}
		sort.SliceStable(converted, func(i, j int) bool { return converted[i].Time < converted[j].Time })
		out[key] = converted
	}
	return out, nil
}

// lidarRecordDoc is the on-disk shape of one LiDAR database record; cloud
// points are [x, y] tuples rather than {x, y} objects.
type lidarRecordDoc struct {
	ID          string       `json:"id"`
	Time        model.Tick   `json:"time"`
	CloudPoints [][2]float64 `json:"cloudPoints"`
}

// LoadLidarDatabase reads the shared, read-only LiDAR database: a
// time-ordered sequence of point-cloud returns.
func LoadLidarDatabase(path string) ([]model.StampedCloudPoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lidar dataset %s: %w", path, err)
	}

	var raw []lidarRecordDoc
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lidar dataset %s: %w", path, err)
	}

	out := make([]model.StampedCloudPoints, len(raw))
	for i, r := range raw {
		points := make([]model.CloudPoint, len(r.CloudPoints))
		for j, xy := range r.CloudPoints {
			points[j] = model.CloudPoint{X: xy[0], Y: xy[1]}
		}
		out[i] = model.StampedCloudPoints{ID: r.ID, Time: r.Time, Points: points}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// LoadPoses reads the pose dataset: a time-ordered sequence of robot
// poses.
func LoadPoses(path string) ([]model.Pose, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose dataset %s: %w", path, err)
	}

	var poses []model.Pose
	if err := jsonAPI.Unmarshal(data, &poses); err != nil {
		return nil, fmt.Errorf("parse pose dataset %s: %w", path, err)
	}
	sort.SliceStable(poses, func(i, j int) bool { return poses[i].Time < poses[j].Time })
	return poses, nil
}
