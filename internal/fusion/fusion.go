package fusion

import (
	"context"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/events"
	"github.com/slamkit/fusion/internal/model"
	"github.com/slamkit/fusion/internal/runtime"
	"github.com/slamkit/fusion/internal/sensors"
	"github.com/slamkit/fusion/internal/stats"
)

// Name is the bus identity Fusion registers under.
const Name bus.Participant = "fusion"

// Summary is the normal-termination report: runtime ticks plus the final
// landmark map.
type Summary struct {
	Stats     stats.Snapshot
	Landmarks []model.Landmark
}

// CrashSnapshot is the crash-termination report: everything Summary has,
// plus the fault description and the last frame each sensor produced,
// for postmortem inspection.
type CrashSnapshot struct {
	Error            string
	FaultySensor     string
	LastCameraFrames map[string]model.StampedDetection
	LastLidarFrames  map[string][]model.TrackedObject
	Poses            []model.Pose
	Stats            stats.Snapshot
	Landmarks        []model.Landmark
}

// ResultWriter is the external collaborator that serializes Fusion's
// output. Fusion only depends on this interface, not on any particular
// encoding — see internal/output for the JSON implementation used in
// production.
type ResultWriter interface {
	WriteSummary(Summary) error
	WriteCrashSnapshot(CrashSnapshot) error
}

// Fusion is the stateful map-builder: the sole owner of the landmark map
// and pose history, both confined to its own participant goroutine so
// neither needs external synchronization.
type Fusion struct {
	stats  *stats.Statistics
	writer ResultWriter

	svc *runtime.Service

	landmarks     map[string]model.Landmark
	landmarkOrder []string

	poseHistory []model.Pose
	poseByTick  map[model.Tick]model.Pose
	currentTick model.Tick

	lastCameraFrame map[bus.Participant]model.StampedDetection
	lastLidarFrame  map[bus.Participant][]model.TrackedObject
}

// New builds a Fusion operator backed by the given Statistics and
// ResultWriter.
func New(st *stats.Statistics, writer ResultWriter) *Fusion {
	return &Fusion{
		stats:           st,
		writer:          writer,
		landmarks:       make(map[string]model.Landmark),
		poseByTick:      make(map[model.Tick]model.Pose),
		lastCameraFrame: make(map[bus.Participant]model.StampedDetection),
		lastLidarFrame:  make(map[bus.Participant][]model.TrackedObject),
	}
}

// OperatorName implements runtime.Operator.
func (f *Fusion) OperatorName() bus.Participant { return Name }

// Initialize implements runtime.Operator.
func (f *Fusion) Initialize(_ context.Context, svc *runtime.Service) error {
	f.svc = svc

	svc.SubscribeBroadcast(events.TickTopic)
	svc.SubscribeBroadcast(events.TerminatedTopic)
	svc.SubscribeBroadcast(events.CrashedTopic)
	svc.SubscribeEvent(events.PoseTopic)
	svc.SubscribeEvent(events.TrackedObjectsTopic)
	svc.SubscribeEvent(events.DetectObjectsForFusionTopic)

	svc.On(events.TickTopic, f.onTick)
	svc.On(events.PoseTopic, f.onPose)
	svc.On(events.TrackedObjectsTopic, f.onTrackedObjects)
	svc.On(events.DetectObjectsForFusionTopic, f.onDetectObjectsForFusion)
	svc.On(events.TerminatedTopic, f.onTerminated)
	svc.On(events.CrashedTopic, f.onCrashed)

	svc.SignalReady()
	return nil
}

func (f *Fusion) onTick(_ context.Context, msg bus.Message) error {
	f.currentTick = msg.Payload.(events.TickBroadcast).Tick
	return nil
}

func (f *Fusion) onPose(_ context.Context, msg bus.Message) error {
	pose := msg.Payload.(events.PoseEvent).Pose
	f.poseHistory = append(f.poseHistory, pose)
	f.poseByTick[pose.Time] = pose
	f.svc.Complete(msg.EventID, true)
	return nil
}

// onDetectObjectsForFusion only keeps a last-seen snapshot for crash
// reporting; it never transforms data and, per spec.md's open question,
// never resolves the event's promise.
func (f *Fusion) onDetectObjectsForFusion(_ context.Context, msg bus.Message) error {
	f.lastCameraFrame[msg.Sender] = msg.Payload.(events.DetectObjectsForFusionEvent).Detection
	return nil
}

func (f *Fusion) onTrackedObjects(_ context.Context, msg bus.Message) error {
	batch := msg.Payload.(events.TrackedObjectsEvent).Batch
	f.lastLidarFrame[msg.Sender] = batch

	for _, obj := range batch {
		pose, ok := f.poseByTick[obj.Time]
		if !ok {
			continue // no matching pose yet; skip, don't count as a landmark
		}
		world := worldPoints(obj.Coords, pose)
		f.upsertLandmark(obj.ID, obj.Description, world)
	}
	f.svc.Complete(msg.EventID, true)
	return nil
}

func (f *Fusion) upsertLandmark(id, description string, world []model.CloudPoint) {
	existing, ok := f.landmarks[id]
	if !ok {
		f.landmarks[id] = model.Landmark{ID: id, Description: description, Coords: world}
		f.landmarkOrder = append(f.landmarkOrder, id)
		f.stats.IncLandmarks()
		return
	}
	existing.Coords = averageCoords(existing.Coords, world)
	f.landmarks[id] = existing
}

func (f *Fusion) onTerminated(_ context.Context, msg bus.Message) error {
	if msg.Sender != sensors.ClockName {
		return nil // an intermediate sensor going DOWN, not the system shutdown
	}
	err := f.writer.WriteSummary(Summary{
		Stats:     f.stats.Snapshot(),
		Landmarks: f.landmarksSnapshot(),
	})
	f.svc.Terminate()
	return err
}

func (f *Fusion) onCrashed(_ context.Context, msg bus.Message) error {
	if msg.Sender != sensors.ClockName {
		return nil // the originating sensor's own broadcast, not the relay
	}
	payload := msg.Payload.(events.CrashedBroadcast)
	err := f.writer.WriteCrashSnapshot(CrashSnapshot{
		Error:            payload.Message,
		FaultySensor:     string(payload.ErrorMaker),
		LastCameraFrames: stringKeyed(f.lastCameraFrame),
		LastLidarFrames:  stringKeyedBatch(f.lastLidarFrame),
		Poses:            append([]model.Pose(nil), f.poseHistory...),
		Stats:            f.stats.Snapshot(),
		Landmarks:        f.landmarksSnapshot(),
	})
	f.svc.Terminate()
	return err
}

func (f *Fusion) landmarksSnapshot() []model.Landmark {
	out := make([]model.Landmark, 0, len(f.landmarkOrder))
	for _, id := range f.landmarkOrder {
		out = append(out, f.landmarks[id].Clone())
	}
	return out
}

func stringKeyed(m map[bus.Participant]model.StampedDetection) map[string]model.StampedDetection {
	out := make(map[string]model.StampedDetection, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func stringKeyedBatch(m map[bus.Participant][]model.TrackedObject) map[string][]model.TrackedObject {
	out := make(map[string][]model.TrackedObject, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
