package sensors

import (
	"context"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/events"
	"github.com/slamkit/fusion/internal/model"
	"github.com/slamkit/fusion/internal/runtime"
	"github.com/slamkit/fusion/internal/stats"
)

// ClockName is the bus identity the Clock operator registers under.
// Sensor operators compare a broadcast's sender against it to recognize
// the system-wide shutdown broadcast, as opposed to an intermediate
// sensor-exhaustion or fault broadcast they should otherwise ignore.
const ClockName bus.Participant = "clock"

// Camera emits the DetectObjectsEvent/DetectObjectsForFusionEvent pair for
// each frame once its detection-to-availability latency has elapsed,
// decoupling when an object was detected from when LiDAR could first have
// matched it to a scan.
type Camera struct {
	name   bus.Participant
	period model.Tick // f: ticks between detection and availability
	frames []model.StampedDetection
	stats  *stats.Statistics

	svc    *runtime.Service
	cursor int
	status model.Status
}

// NewCamera builds a Camera operator. frames must be sorted ascending by
// Time; period is the camera's configured availability latency.
func NewCamera(name bus.Participant, period model.Tick, frames []model.StampedDetection, st *stats.Statistics) *Camera {
	return &Camera{name: name, period: period, frames: frames, stats: st, status: model.StatusUp}
}

// OperatorName implements runtime.Operator.
func (c *Camera) OperatorName() bus.Participant { return c.name }

// Initialize implements runtime.Operator.
func (c *Camera) Initialize(_ context.Context, svc *runtime.Service) error {
	c.svc = svc

	svc.SubscribeBroadcast(events.TickTopic)
	svc.SubscribeBroadcast(events.TerminatedTopic)
	svc.SubscribeBroadcast(events.CrashedTopic)

	svc.On(events.TickTopic, c.onTick)
	svc.On(events.TerminatedTopic, finalShutdownHandler(svc))
	svc.On(events.CrashedTopic, finalShutdownHandler(svc))

	svc.SignalReady()
	return nil
}

func (c *Camera) onTick(_ context.Context, msg bus.Message) error {
	tick := msg.Payload.(events.TickBroadcast).Tick
	if c.status != model.StatusUp {
		return nil
	}
	if c.cursor >= len(c.frames) {
		c.status = model.StatusDown
		c.svc.Logger.Info("camera exhausted its dataset", "operator", c.name, "tick", tick)
		c.svc.SendBroadcast(events.TerminatedTopic, events.TerminatedBroadcast{Sender: c.name})
		return nil
	}

	// Step 3: scanning from the cursor while frames were detected exactly
	// at this tick, a frame that contains the ERROR sentinel crashes the
	// camera immediately. The scan stops at the first frame whose time is
	// not this tick, so it finds nothing while an earlier frame is still
	// waiting at the cursor for its availability tick.
	for i := c.cursor; i < len(c.frames) && c.frames[i].Time == tick; i++ {
		for _, o := range c.frames[i].Objects {
			if o.ID == model.ErrorSentinel {
				c.status = model.StatusError
				c.svc.Logger.Error("camera encountered the ERROR sentinel", "operator", c.name, "tick", tick, "message", o.Description)
				c.svc.SendBroadcast(events.CrashedTopic, events.CrashedBroadcast{
					Sender:     c.name,
					ErrorMaker: c.name,
					Message:    o.Description,
				})
				return nil
			}
		}
	}

	// Step 4/5: emit every frame whose availability has just arrived;
	// drop frames that went stale without being emitted.
	var detected uint64
	for c.cursor < len(c.frames) {
		frame := c.frames[c.cursor]
		availability := frame.Time + c.period
		if availability < tick {
			c.cursor++ // stale, drop
			continue
		}
		if availability > tick {
			break
		}

		c.svc.SendEvent(events.DetectObjectsTopic, events.DetectObjectsEvent{Detection: frame})
		c.svc.SendEvent(events.DetectObjectsForFusionTopic, events.DetectObjectsForFusionEvent{Detection: frame})
		detected += uint64(len(frame.Objects))
		c.cursor++
	}
	if detected > 0 {
		c.stats.AddDetected(detected)
	}
	return nil
}
