package sensors

import (
	"context"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/events"
	"github.com/slamkit/fusion/internal/model"
	"github.com/slamkit/fusion/internal/runtime"
	"github.com/slamkit/fusion/internal/stats"
)

// pendingDetection is a StampedDetection whose availability tick has not
// yet been reached, together with the event id LiDAR should eventually
// resolve once it is processed.
type pendingDetection struct {
	detection model.StampedDetection
	eventID   string
}

// LiDAR matches camera detections to point-cloud returns from a shared,
// read-only database, producing TrackedObjects. Multiple LiDAR workers
// with the same frequency act as equivalent round-robin peers for
// DetectObjectsEvent.
type LiDAR struct {
	name      bus.Participant
	frequency model.Tick // f
	database  []model.StampedCloudPoints
	stats     *stats.Statistics

	svc         *runtime.Service
	status      model.Status
	currentTick model.Tick
	pending     []pendingDetection
	lastBatch   []model.TrackedObject
}

// NewLiDAR builds a LiDAR operator over a shared, time-ordered database.
func NewLiDAR(name bus.Participant, frequency model.Tick, database []model.StampedCloudPoints, st *stats.Statistics) *LiDAR {
	return &LiDAR{name: name, frequency: frequency, database: database, stats: st, status: model.StatusUp}
}

// OperatorName implements runtime.Operator.
func (l *LiDAR) OperatorName() bus.Participant { return l.name }

// Initialize implements runtime.Operator.
func (l *LiDAR) Initialize(_ context.Context, svc *runtime.Service) error {
	l.svc = svc

	svc.SubscribeBroadcast(events.TickTopic)
	svc.SubscribeBroadcast(events.TerminatedTopic)
	svc.SubscribeBroadcast(events.CrashedTopic)
	svc.SubscribeEvent(events.DetectObjectsTopic)

	svc.On(events.TickTopic, l.onTick)
	svc.On(events.DetectObjectsTopic, l.onDetectObjects)
	svc.On(events.TerminatedTopic, finalShutdownHandler(svc))
	svc.On(events.CrashedTopic, finalShutdownHandler(svc))

	svc.SignalReady()
	return nil
}

func (l *LiDAR) lastDatabaseTick() model.Tick {
	if len(l.database) == 0 {
		return 0
	}
	return l.database[len(l.database)-1].Time
}

func (l *LiDAR) onTick(_ context.Context, msg bus.Message) error {
	tick := msg.Payload.(events.TickBroadcast).Tick
	l.currentTick = tick
	if l.status != model.StatusUp {
		return nil
	}

	if tick > l.lastDatabaseTick() {
		l.status = model.StatusDown
		l.svc.Logger.Info("lidar exhausted its database", "operator", l.name, "tick", tick)
		l.svc.SendBroadcast(events.TerminatedTopic, events.TerminatedBroadcast{Sender: l.name})
		return nil
	}

	ready := l.pending[:0:0]
	remaining := l.pending[:0:0]
	for _, pd := range l.pending {
		if pd.detection.Time+l.frequency <= tick {
			ready = append(ready, pd)
		} else {
			remaining = append(remaining, pd)
		}
	}
	l.pending = remaining
	for _, pd := range ready {
		l.process(pd.detection, pd.eventID)
	}
	return nil
}

func (l *LiDAR) onDetectObjects(_ context.Context, msg bus.Message) error {
	detection := msg.Payload.(events.DetectObjectsEvent).Detection
	if l.status != model.StatusUp {
		l.svc.Complete(msg.EventID, false)
		return nil
	}
	if detection.Time+l.frequency <= l.currentTick {
		l.process(detection, msg.EventID)
	} else {
		l.pending = append(l.pending, pendingDetection{detection: detection, eventID: msg.EventID})
	}
	return nil
}

// process matches every object in s against the shared database and
// emits one TrackedObjectsEvent for the resulting batch.
func (l *LiDAR) process(s model.StampedDetection, eventID string) {
	batch := make([]model.TrackedObject, 0, len(s.Objects))
	for _, o := range s.Objects {
		best, found, crashDescription, crashed := l.matchDatabase(o.ID, s.Time)
		if crashed {
			l.status = model.StatusError
			l.svc.Logger.Error("lidar encountered the ERROR sentinel", "operator", l.name, "tick", s.Time, "message", crashDescription)
			l.svc.SendBroadcast(events.CrashedTopic, events.CrashedBroadcast{
				Sender:     l.name,
				ErrorMaker: l.name,
				Message:    crashDescription,
			})
			l.svc.Complete(eventID, false)
			return
		}
		if !found {
			continue
		}
		batch = append(batch, model.TrackedObject{
			ID:          o.ID,
			Description: o.Description,
			Time:        s.Time,
			Coords:      best.Points,
		})
	}

	l.lastBatch = batch
	if len(batch) > 0 {
		l.svc.SendEvent(events.TrackedObjectsTopic, events.TrackedObjectsEvent{Batch: batch})
		l.stats.AddTracked(uint64(len(batch)))
	}
	l.svc.Complete(eventID, true)
}

// matchDatabase scans the shared database in time order for the record
// with the given id and the largest time <= asOf, tie-breaking toward the
// record encountered last. An ERROR-tagged record with time <= asOf
// encountered anywhere during the scan aborts it with crashed=true.
func (l *LiDAR) matchDatabase(id string, asOf model.Tick) (best model.StampedCloudPoints, found bool, crashDescription string, crashed bool) {
	for _, rec := range l.database {
		if rec.Time > asOf {
			break // database is time-ordered; nothing further can qualify
		}
		if rec.ID == model.ErrorSentinel {
			return model.StampedCloudPoints{}, false, "LiDar Error", true
		}
		if rec.ID == id {
			best = rec
			found = true
		}
	}
	return best, found, "", false
}
