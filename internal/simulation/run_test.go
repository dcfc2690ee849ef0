package simulation

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slamkit/fusion/internal/config"
	"github.com/slamkit/fusion/internal/fusion"
)

// recordingWriter captures whatever Fusion hands it, so the test can
// assert on the in-memory struct rather than re-parsing a JSON file.
type recordingWriter struct {
	summary *fusion.Summary
	crash   *fusion.CrashSnapshot
}

func (w *recordingWriter) WriteSummary(s fusion.Summary) error {
	w.summary = &s
	return nil
}

func (w *recordingWriter) WriteCrashSnapshot(c fusion.CrashSnapshot) error {
	w.crash = &c
	return nil
}

func writeJSONFile(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunProducesLandmarksFromOneCameraOneLidarOnePose(t *testing.T) {
	dir := t.TempDir()

	cameraPath := writeJSONFile(t, dir, "cameras.json", map[string]any{
		"front": []map[string]any{
			{"time": 1, "detectedObjects": []map[string]any{{"id": "cone-1", "description": "traffic cone"}}},
		},
	})
	lidarPath := writeJSONFile(t, dir, "lidar.json", []map[string]any{
		{"id": "cone-1", "time": 1, "cloudPoints": [][2]float64{{2, 0}}},
	})
	posePath := writeJSONFile(t, dir, "poses.json", []map[string]any{
		{"time": 1, "x": 0, "y": 0, "yaw": 0},
	})

	// Duration is a generous upper bound: every sensor naturally exhausts
	// its data by tick 2, so the run ends there rather than at tick 6. The
	// one-second tick period gives each tick's cross-operator chain
	// (camera -> lidar -> fusion) ample wall-clock slack to finish before
	// the next tick, even though Clock's own shutdown isn't gated on it.
	cfg := &config.Config{
		TickTime:     1,
		Duration:     6,
		PoseJSONFile: posePath,
		Cameras: config.CamerasConfig{
			DatasPath: cameraPath,
			Configurations: []config.CameraConfig{
				{ID: "cam1", Frequency: 0, CameraKey: "front"},
			},
		},
		LiDarWorkers: config.LidarWorkersConfig{
			DataPath: lidarPath,
			Configurations: []config.LidarConfig{
				{ID: "lidar1", Frequency: 0},
			},
		},
	}

	writer := &recordingWriter{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := Run(ctx, cfg, logger, writer)
	require.NoError(t, err)

	require.NotNil(t, writer.summary)
	require.Len(t, writer.summary.Landmarks, 1)
	lm := writer.summary.Landmarks[0]
	assert.Equal(t, "cone-1", lm.ID)
	assert.Equal(t, "traffic cone", lm.Description)
	assert.Equal(t, uint64(1), writer.summary.Stats.Landmarks)
	assert.Equal(t, uint64(1), writer.summary.Stats.Detected)
	assert.Equal(t, uint64(1), writer.summary.Stats.Tracked)
}

func TestRunProducesCrashSnapshotOnErrorSentinel(t *testing.T) {
	dir := t.TempDir()

	cameraPath := writeJSONFile(t, dir, "cameras.json", map[string]any{
		"front": []map[string]any{
			{"time": 1, "detectedObjects": []map[string]any{{"id": "ERROR", "description": "camera went dark"}}},
		},
	})
	lidarPath := writeJSONFile(t, dir, "lidar.json", []map[string]any{})
	posePath := writeJSONFile(t, dir, "poses.json", []map[string]any{})

	cfg := &config.Config{
		TickTime:     1,
		Duration:     6,
		PoseJSONFile: posePath,
		Cameras: config.CamerasConfig{
			DatasPath: cameraPath,
			Configurations: []config.CameraConfig{
				{ID: "cam1", Frequency: 0, CameraKey: "front"},
			},
		},
		LiDarWorkers: config.LidarWorkersConfig{
			DataPath: lidarPath,
			Configurations: []config.LidarConfig{
				{ID: "lidar1", Frequency: 0},
			},
		},
	}

	writer := &recordingWriter{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := Run(ctx, cfg, logger, writer)
	require.NoError(t, err)

	require.NotNil(t, writer.crash)
	assert.Equal(t, "camera:cam1", writer.crash.FaultySensor)
	assert.Equal(t, "camera went dark", writer.crash.Error)
}
