package sensors

import (
	"context"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/runtime"
)

// finalShutdownHandler returns a Handler that ends svc's participant loop
// once the Clock's own final broadcast (as opposed to an intermediate
// sensor's TerminatedBroadcast or a non-Clock CrashedBroadcast) is
// observed. Every sensor operator and Fusion subscribes both
// TerminatedTopic and CrashedTopic to this same handler so that, per the
// state machine in spec.md §4.9, an operator that has already gone DOWN
// or ERROR still drains broadcasts until it sees the Clock's own
// shutdown signal and can unregister cleanly.
func finalShutdownHandler(svc *runtime.Service) runtime.Handler {
	return func(_ context.Context, msg bus.Message) error {
		if msg.Sender == ClockName {
			svc.Terminate()
		}
		return nil
	}
}
