package sensors

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/events"
	"github.com/slamkit/fusion/internal/model"
	"github.com/slamkit/fusion/internal/runtime"
	"github.com/slamkit/fusion/internal/stats"
)

// Clock drives the simulation's timer, broadcasting TickBroadcast until
// either Duration ticks have elapsed, every sensor has gone DOWN, or a
// fault has been latched. Its timer runs as a dedicated task separate
// from its own participant loop, so that it can keep dispatching incoming
// TerminatedBroadcast/CrashedBroadcast messages while it sleeps between
// ticks.
type Clock struct {
	tickPeriod time.Duration
	duration   model.Tick
	stats      *stats.Statistics
	sensors    map[bus.Participant]bool

	svc               *runtime.Service
	activeSensorCount atomic.Int64
	crashed           atomic.Bool
	crashMu           sync.Mutex
	crashInfo         events.CrashedBroadcast
}

// NewClock builds the Clock operator. sensors lists every camera, LiDAR,
// and pose participant name; its size seeds activeSensorCount.
func NewClock(tickPeriod time.Duration, duration model.Tick, sensors []bus.Participant, st *stats.Statistics) *Clock {
	c := &Clock{
		tickPeriod: tickPeriod,
		duration:   duration,
		stats:      st,
		sensors:    make(map[bus.Participant]bool, len(sensors)),
	}
	for _, s := range sensors {
		c.sensors[s] = true
	}
	c.activeSensorCount.Store(int64(len(sensors)))
	return c
}

// OperatorName implements runtime.Operator. The Clock always registers
// under ClockName so sensor operators can recognize its broadcasts.
func (c *Clock) OperatorName() bus.Participant { return ClockName }

// Initialize implements runtime.Operator. The Clock does not arrive at
// the readiness barrier itself — it is the one waiting on it, in its
// dedicated timer task below.
func (c *Clock) Initialize(ctx context.Context, svc *runtime.Service) error {
	c.svc = svc

	svc.SubscribeBroadcast(events.TerminatedTopic)
	svc.SubscribeBroadcast(events.CrashedTopic)

	svc.On(events.TerminatedTopic, c.onTerminated)
	svc.On(events.CrashedTopic, c.onCrashed)

	go c.runTimer(ctx, svc)
	return nil
}

func (c *Clock) onTerminated(_ context.Context, msg bus.Message) error {
	if msg.Sender == ClockName {
		c.svc.Terminate()
		return nil
	}
	if c.sensors[msg.Sender] {
		c.activeSensorCount.Add(-1)
	}
	return nil
}

func (c *Clock) onCrashed(_ context.Context, msg bus.Message) error {
	if msg.Sender == ClockName {
		c.svc.Terminate()
		return nil
	}
	payload := msg.Payload.(events.CrashedBroadcast)
	if c.crashed.CompareAndSwap(false, true) {
		c.crashMu.Lock()
		c.crashInfo = payload
		c.crashMu.Unlock()
		c.svc.Logger.Error("clock latched a crash", "errorMaker", payload.ErrorMaker, "message", payload.Message)
	}
	return nil
}

func (c *Clock) runTimer(ctx context.Context, svc *runtime.Service) {
	select {
	case <-svc.Barrier.Wait():
		svc.Logger.Info("all sensors and fusion ready, starting clock", "duration", c.duration)
	case <-ctx.Done():
		return
	}

	var current model.Tick
	for current < c.duration && c.activeSensorCount.Load() > 0 && !c.crashed.Load() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.tickPeriod):
		}
		current++
		svc.SendBroadcast(events.TickTopic, events.TickBroadcast{Tick: current})
		c.stats.IncTicks()
	}

	if c.crashed.Load() {
		c.crashMu.Lock()
		info := c.crashInfo
		c.crashMu.Unlock()
		svc.Logger.Error("clock stopping on crash", "tick", current, "errorMaker", info.ErrorMaker)
		svc.SendBroadcast(events.CrashedTopic, events.CrashedBroadcast{
			Sender:     ClockName,
			ErrorMaker: info.ErrorMaker,
			Message:    info.Message,
		})
		return
	}
	svc.Logger.Info("clock stopping normally", "tick", current)
	svc.SendBroadcast(events.TerminatedTopic, events.TerminatedBroadcast{Sender: ClockName})
}
