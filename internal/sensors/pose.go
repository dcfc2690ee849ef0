package sensors

import (
	"context"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/events"
	"github.com/slamkit/fusion/internal/model"
	"github.com/slamkit/fusion/internal/runtime"
)

// Pose replays a time-ordered sequence of poses, emitting one PoseEvent
// per tick that has a matching reading and leaving future poses for a
// later tick.
type Pose struct {
	name  bus.Participant
	poses []model.Pose

	svc    *runtime.Service
	cursor int
	status model.Status
}

// NewPose builds a Pose operator. poses must be sorted ascending by Time.
func NewPose(name bus.Participant, poses []model.Pose) *Pose {
	return &Pose{name: name, poses: poses, status: model.StatusUp}
}

// OperatorName implements runtime.Operator.
func (p *Pose) OperatorName() bus.Participant { return p.name }

// Initialize implements runtime.Operator.
func (p *Pose) Initialize(_ context.Context, svc *runtime.Service) error {
	p.svc = svc

	svc.SubscribeBroadcast(events.TickTopic)
	svc.SubscribeBroadcast(events.TerminatedTopic)
	svc.SubscribeBroadcast(events.CrashedTopic)

	svc.On(events.TickTopic, p.onTick)
	svc.On(events.TerminatedTopic, finalShutdownHandler(svc))
	svc.On(events.CrashedTopic, finalShutdownHandler(svc))

	svc.SignalReady()
	return nil
}

func (p *Pose) onTick(_ context.Context, msg bus.Message) error {
	if p.status != model.StatusUp {
		return nil
	}
	tick := msg.Payload.(events.TickBroadcast).Tick

	for p.cursor < len(p.poses) && p.poses[p.cursor].Time < tick {
		p.cursor++
	}
	if p.cursor < len(p.poses) && p.poses[p.cursor].Time == tick {
		p.svc.SendEvent(events.PoseTopic, events.PoseEvent{Pose: p.poses[p.cursor]})
		p.cursor++
	}
	if p.cursor >= len(p.poses) {
		p.status = model.StatusDown
		p.svc.Logger.Info("pose exhausted its dataset", "operator", p.name, "tick", tick)
		p.svc.SendBroadcast(events.TerminatedTopic, events.TerminatedBroadcast{Sender: p.name})
	}
	return nil
}
