package output

import (
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slamkit/fusion/internal/fusion"
	"github.com/slamkit/fusion/internal/model"
	"github.com/slamkit/fusion/internal/stats"
)

func TestWriteSummaryProducesExpectedShape(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir)

	err := w.WriteSummary(fusion.Summary{
		Stats: stats.Snapshot{Ticks: 10, Detected: 4, Tracked: 3, Landmarks: 2},
		Landmarks: []model.Landmark{
			{ID: "obj-1", Description: "cone", Coords: []model.CloudPoint{{X: 1, Y: 2}}},
		},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, DefaultSummaryFile))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &doc))
	assert.Equal(t, float64(10), doc["systemRuntime"])
	assert.Equal(t, float64(4), doc["numDetectedObjects"])
	assert.Equal(t, float64(3), doc["numTrackedObjects"])
	assert.Equal(t, float64(2), doc["numLandmarks"])
	assert.Contains(t, doc, "landMarks")
}

func TestWriteCrashSnapshotProducesExpectedShape(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir)

	err := w.WriteCrashSnapshot(fusion.CrashSnapshot{
		Error:        "LiDar Error",
		FaultySensor: "lidar:1",
		Stats:        stats.Snapshot{Ticks: 5},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, DefaultCrashFile))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &doc))
	assert.Equal(t, "LiDar Error", doc["error"])
	assert.Equal(t, "lidar:1", doc["faultySensor"])
	assert.Contains(t, doc, "lastCamerasFrame")
	assert.Contains(t, doc, "lastLiDarWorkerTrackersFrame")
}

func TestFileWriterDefaultsToWorkingDirectoryWhenDirEmpty(t *testing.T) {
	w := NewFileWriter("")
	assert.Equal(t, DefaultSummaryFile, w.path(DefaultSummaryFile))
}
