// Package stats holds the process-wide running counters the pipeline
// reports in its summary and crash snapshot. Every operator may increment
// them concurrently; only the terminator (Fusion, on shutdown) reads them.
package stats

import "sync/atomic"

// Statistics is safe for concurrent use. It has no constructor because its
// zero value (all counters at zero) is ready to use.
type Statistics struct {
	ticks     atomic.Uint64
	detected  atomic.Uint64
	tracked   atomic.Uint64
	landmarks atomic.Uint64
}

// IncTicks records that one more tick has been broadcast.
func (s *Statistics) IncTicks() { s.ticks.Add(1) }

// AddDetected records n more camera detections.
func (s *Statistics) AddDetected(n uint64) { s.detected.Add(n) }

// AddTracked records n more LiDAR-tracked objects.
func (s *Statistics) AddTracked(n uint64) { s.tracked.Add(n) }

// IncLandmarks records a first sighting becoming a new landmark. Merges
// into an existing landmark do not increment this counter — the source
// this pipeline is modeled on only counts first insertions, and this
// implementation preserves that rather than silently redefining what the
// counter means (see DESIGN.md, Open Question: landmark count on merge).
func (s *Statistics) IncLandmarks() { s.landmarks.Add(1) }

// Ticks returns the current tick counter.
func (s *Statistics) Ticks() uint64 { return s.ticks.Load() }

// Detected returns the current detected-objects counter.
func (s *Statistics) Detected() uint64 { return s.detected.Load() }

// Tracked returns the current tracked-objects counter.
func (s *Statistics) Tracked() uint64 { return s.tracked.Load() }

// Landmarks returns the current landmark counter.
func (s *Statistics) Landmarks() uint64 { return s.landmarks.Load() }

// Snapshot is a point-in-time, non-atomic copy of all four counters,
// suitable for JSON encoding into output files.
type Snapshot struct {
	Ticks     uint64 `json:"systemRuntime"`
	Detected  uint64 `json:"numDetectedObjects"`
	Tracked   uint64 `json:"numTrackedObjects"`
	Landmarks uint64 `json:"numLandmarks"`
}

// Snapshot captures the four counters at once. Because each counter is
// read independently, a concurrent writer could make this a few
// nanoseconds out of sync internally; that's acceptable for a
// human-readable report and matches the "read only by the terminator,
// after the system has stopped producing" usage pattern.
func (s *Statistics) Snapshot() Snapshot {
	return Snapshot{
		Ticks:     s.Ticks(),
		Detected:  s.Detected(),
		Tracked:   s.Tracked(),
		Landmarks: s.Landmarks(),
	}
}
