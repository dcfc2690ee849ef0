// Package events defines the finite alphabet of message payloads carried
// over the bus between operators. Each type pairs with a bus.Topic
// constant below; an operator installs one handler per topic with
// runtime.Service.On, and each handler type-asserts bus.Message.Payload to
// the concrete payload type for its topic. Nothing checks at compile time
// that every topic has a handler.
package events

import (
	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/model"
)

// Broadcast topics.
const (
	TickTopic       bus.Topic = "TickBroadcast"
	TerminatedTopic bus.Topic = "TerminatedBroadcast"
	CrashedTopic    bus.Topic = "CrashedBroadcast"
)

// Event topics (one-of-N delivery, each carries a Promise).
const (
	DetectObjectsTopic          bus.Topic = "DetectObjectsEvent"
	DetectObjectsForFusionTopic bus.Topic = "DetectObjectsForFusionEvent"
	TrackedObjectsTopic         bus.Topic = "TrackedObjectsEvent"
	PoseTopic                   bus.Topic = "PoseEvent"
)

// TickBroadcast announces that simulation time has advanced to Tick.
type TickBroadcast struct {
	Tick model.Tick
}

// TerminatedBroadcast announces that Sender has exhausted its data (a
// sensor) or ended its run normally (the Clock).
type TerminatedBroadcast struct {
	Sender bus.Participant
}

// CrashedBroadcast announces a fault. ErrorMaker is the operator that
// first observed the ERROR sentinel; Sender is whoever is broadcasting
// this particular message (the faulting operator the first time, the
// Clock when it relays the system-wide shutdown).
type CrashedBroadcast struct {
	Sender     bus.Participant
	ErrorMaker bus.Participant
	Message    string
}

// DetectObjectsEvent carries one camera's stamped detections to whichever
// LiDAR worker is next in the round-robin rotation.
type DetectObjectsEvent struct {
	Detection model.StampedDetection
}

// DetectObjectsForFusionEvent carries the same detection to Fusion, purely
// so Fusion can keep a last-seen snapshot for crash reporting. Nothing
// resolves its promise; the sending camera never receives a completion
// signal for it (an intentional, spec-preserved asymmetry — see
// DESIGN.md).
type DetectObjectsForFusionEvent struct {
	Detection model.StampedDetection
}

// TrackedObjectsEvent carries a batch of newly tracked objects from a
// LiDAR worker to Fusion.
type TrackedObjectsEvent struct {
	Batch []model.TrackedObject
}

// PoseEvent carries a single pose reading from the Pose operator to
// Fusion.
type PoseEvent struct {
	Pose model.Pose
}
