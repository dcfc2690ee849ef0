// Package runtime implements the participant loop every operator runs:
// register with the bus, initialize (declare subscriptions and install
// handlers), then loop awaiting and dispatching messages until a handler
// asks to terminate.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/promise"
)

// Handler processes one message delivered to a Service's mailbox. Handlers
// run synchronously to completion before the next message is taken —
// there is no concurrent handler execution within a single operator.
type Handler func(ctx context.Context, msg bus.Message) error

// Service is the per-operator handle into the bus: subscription helpers,
// a handler table keyed by topic, and the termination flag a handler sets
// to end the participant loop.
type Service struct {
	Name    bus.Participant
	Bus     *bus.Bus
	Logger  *slog.Logger
	Barrier *Barrier

	handlers   map[bus.Topic]Handler
	terminated bool
}

func newService(name bus.Participant, b *bus.Bus, logger *slog.Logger, barrier *Barrier) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		Name:     name,
		Bus:      b,
		Logger:   logger,
		Barrier:  barrier,
		handlers: make(map[bus.Topic]Handler),
	}
}

// On installs h as the handler for topic, overwriting any previous
// handler for the same topic.
func (s *Service) On(topic bus.Topic, h Handler) { s.handlers[topic] = h }

// SubscribeEvent joins the round-robin rotation for topic.
func (s *Service) SubscribeEvent(topic bus.Topic) { s.Bus.SubscribeEvent(topic, s.Name) }

// SubscribeBroadcast joins the fan-out list for topic.
func (s *Service) SubscribeBroadcast(topic bus.Topic) { s.Bus.SubscribeBroadcast(topic, s.Name) }

// SendEvent posts payload as an event under this service's identity.
func (s *Service) SendEvent(topic bus.Topic, payload any) *promise.Promise[any] {
	return s.Bus.SendEvent(topic, s.Name, payload)
}

// SendBroadcast posts payload as a broadcast under this service's
// identity.
func (s *Service) SendBroadcast(topic bus.Topic, payload any) {
	s.Bus.SendBroadcast(topic, s.Name, payload)
}

// Complete resolves the promise for event id, if one exists.
func (s *Service) Complete(id string, v any) { s.Bus.Complete(id, v) }

// SignalReady fires this operator's one-shot readiness signal. Operators
// call it at the end of Initialize; it is a no-op if no Barrier was
// supplied. The Clock never calls it — it is the one waiting on the
// Barrier, not one of the things being waited for.
func (s *Service) SignalReady() {
	if s.Barrier != nil {
		s.Barrier.Arrive()
	}
}

// Terminate asks the participant loop to exit after the current handler
// returns, and to unregister from the bus.
func (s *Service) Terminate() { s.terminated = true }

// Operator is the contract every sensor/fusion/clock operator implements.
type Operator interface {
	// OperatorName returns this operator's bus identity.
	OperatorName() bus.Participant

	// Initialize declares subscriptions, installs handlers, and fires the
	// readiness signal. It runs once, before the participant loop starts
	// taking messages.
	Initialize(ctx context.Context, svc *Service) error
}

// Run registers op with b, initializes it, then loops delivering messages
// to the handler registered for each message's topic until a handler
// calls Service.Terminate, at which point op is unregistered and Run
// returns nil. A cancelled ctx is treated as a termination request: the
// cancellation is preserved (returned to the caller) rather than
// swallowed, and the participant still unregisters cleanly.
func Run(ctx context.Context, b *bus.Bus, logger *slog.Logger, barrier *Barrier, op Operator) error {
	name := op.OperatorName()
	svc := newService(name, b, logger, barrier)

	b.Register(name)
	defer b.Unregister(name)

	if err := op.Initialize(ctx, svc); err != nil {
		return fmt.Errorf("initialize %s: %w", name, err)
	}

	for {
		msg, err := b.AwaitMessage(ctx, name)
		if err != nil {
			return ctx.Err()
		}

		h, ok := svc.handlers[msg.Topic]
		if ok {
			if err := h(ctx, msg); err != nil {
				svc.Logger.Error("handler returned error", "operator", name, "topic", msg.Topic, "error", err)
			}
		}

		if svc.terminated {
			return nil
		}
	}
}
