// Package output serializes Fusion's results to the two JSON files the
// pipeline writes to its working directory: output_file.json on normal
// termination, error_output.json on a crash.
package output

import (
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/slamkit/fusion/internal/fusion"
	"github.com/slamkit/fusion/internal/model"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultSummaryFile is the file name written on normal termination.
	DefaultSummaryFile = "output_file.json"
	// DefaultCrashFile is the file name written on a crash.
	DefaultCrashFile = "error_output.json"
)

// summaryDoc is the on-disk shape of a normal-termination report.
type summaryDoc struct {
	SystemRuntime      uint64           `json:"systemRuntime"`
	NumDetectedObjects uint64           `json:"numDetectedObjects"`
	NumTrackedObjects  uint64           `json:"numTrackedObjects"`
	NumLandmarks       uint64           `json:"numLandmarks"`
	Landmarks          []model.Landmark `json:"landMarks"`
}

// crashDoc is the on-disk shape of a crash report.
type crashDoc struct {
	Error                        string                             `json:"error"`
	FaultySensor                 string                             `json:"faultySensor"`
	LastCamerasFrame             map[string]model.StampedDetection   `json:"lastCamerasFrame"`
	LastLiDarWorkerTrackersFrame map[string][]model.TrackedObject    `json:"lastLiDarWorkerTrackersFrame"`
	Poses                        []model.Pose                       `json:"poses"`
	SystemRuntime                uint64                              `json:"systemRuntime"`
	NumDetectedObjects           uint64                              `json:"numDetectedObjects"`
	NumTrackedObjects            uint64                              `json:"numTrackedObjects"`
	NumLandmarks                 uint64                              `json:"numLandmarks"`
	Landmarks                    []model.Landmark                   `json:"landMarks"`
}

// FileWriter writes Fusion's Summary/CrashSnapshot to JSON files in Dir
// (the current working directory if empty), implementing
// fusion.ResultWriter.
type FileWriter struct {
	Dir string
}

// NewFileWriter returns a FileWriter rooted at dir.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{Dir: dir}
}

func (w *FileWriter) path(name string) string {
	if w.Dir == "" {
		return name
	}
	return w.Dir + string(os.PathSeparator) + name
}

// WriteSummary implements fusion.ResultWriter.
func (w *FileWriter) WriteSummary(s fusion.Summary) error {
	doc := summaryDoc{
		SystemRuntime:      s.Stats.Ticks,
		NumDetectedObjects: s.Stats.Detected,
		NumTrackedObjects:  s.Stats.Tracked,
		NumLandmarks:       s.Stats.Landmarks,
		Landmarks:          s.Landmarks,
	}
	return writeJSON(w.path(DefaultSummaryFile), doc)
}

// WriteCrashSnapshot implements fusion.ResultWriter.
func (w *FileWriter) WriteCrashSnapshot(c fusion.CrashSnapshot) error {
	doc := crashDoc{
		Error:                        c.Error,
		FaultySensor:                 c.FaultySensor,
		LastCamerasFrame:             c.LastCameraFrames,
		LastLiDarWorkerTrackersFrame: c.LastLidarFrames,
		Poses:                        c.Poses,
		SystemRuntime:                c.Stats.Ticks,
		NumDetectedObjects:           c.Stats.Detected,
		NumTrackedObjects:            c.Stats.Tracked,
		NumLandmarks:                 c.Stats.Landmarks,
		Landmarks:                    c.Landmarks,
	}
	return writeJSON(w.path(DefaultCrashFile), doc)
}

func writeJSON(path string, v any) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
