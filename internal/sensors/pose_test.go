package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/events"
	"github.com/slamkit/fusion/internal/model"
)

func TestPoseEmitsOnExactTickMatch(t *testing.T) {
	b := bus.New()
	b.Register("fusion-peer")
	b.SubscribeEvent(events.PoseTopic, "fusion-peer")

	poses := []model.Pose{
		{Time: 1, X: 1, Y: 1},
		{Time: 3, X: 3, Y: 3},
	}
	p := NewPose("pose", poses)
	runOperator(t, b, p)

	b.SendBroadcast(events.TickTopic, ClockName, events.TickBroadcast{Tick: 2})
	assertNoEventWithin(t, b, "fusion-peer", 30*time.Millisecond)

	b.SendBroadcast(events.TickTopic, ClockName, events.TickBroadcast{Tick: 3})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := b.AwaitMessage(ctx, "fusion-peer")
	require.NoError(t, err)
	assert.Equal(t, model.Tick(3), msg.Payload.(events.PoseEvent).Pose.Time)
}

func TestPoseGoesDownAfterLastPoseEmitted(t *testing.T) {
	b := bus.New()
	b.Register("observer")
	b.SubscribeBroadcast(events.TerminatedTopic, "observer")
	b.Register("fusion-peer")
	b.SubscribeEvent(events.PoseTopic, "fusion-peer")

	poses := []model.Pose{{Time: 1, X: 1, Y: 1}}
	p := NewPose("pose", poses)
	runOperator(t, b, p)

	b.SendBroadcast(events.TickTopic, ClockName, events.TickBroadcast{Tick: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := b.AwaitMessage(ctx, "fusion-peer")
	require.NoError(t, err)

	msg, err := b.AwaitMessage(ctx, "observer")
	require.NoError(t, err)
	assert.Equal(t, bus.Participant("pose"), msg.Payload.(events.TerminatedBroadcast).Sender)
}
