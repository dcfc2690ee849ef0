// Package bus implements the process-wide message router the sensor-fusion
// pipeline is built on: a mailbox per registered participant, one-of-N
// "event" delivery with a Promise for the result, and fan-out
// "broadcast" delivery. It has no notion of sensors, ticks, or landmarks —
// those live in internal/sensors, internal/fusion, and internal/events,
// which are built on top of this package.
package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/slamkit/fusion/internal/promise"
)

// Topic identifies a message's runtime type, e.g. "TickBroadcast" or
// "TrackedObjectsEvent".
type Topic string

// Participant identifies a registered mailbox owner.
type Participant string

// Message is a single item of mailbox content: either an Event (EventID
// non-empty) or a Broadcast (EventID empty).
type Message struct {
	Topic   Topic
	Sender  Participant
	Payload any

	// EventID is set for events; a handler that wants to resolve the
	// event's promise calls Bus.Complete(msg.EventID, value).
	EventID string
}

// IsEvent reports whether the message was delivered via SendEvent rather
// than SendBroadcast.
func (m Message) IsEvent() bool { return m.EventID != "" }

// Bus is an explicitly constructed router — never a package-level
// singleton — so that tests and multiple simulation runs can each own an
// independent instance with no hidden lifetime coupling.
type Bus struct {
	mu            sync.Mutex
	mailboxes     map[Participant]*mailbox
	eventSubs     map[Topic][]Participant
	broadcastSubs map[Topic][]Participant
	promises      map[string]*promise.Promise[any]
	targets       map[string]Participant
}

// New returns an empty Bus with no registered participants.
func New() *Bus {
	return &Bus{
		mailboxes:     make(map[Participant]*mailbox),
		eventSubs:     make(map[Topic][]Participant),
		broadcastSubs: make(map[Topic][]Participant),
		promises:      make(map[string]*promise.Promise[any]),
		targets:       make(map[string]Participant),
	}
}

// Register creates p's mailbox. Registering an already-registered
// participant is a no-op; its mailbox is left untouched.
func (b *Bus) Register(p Participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.mailboxes[p]; ok {
		return
	}
	b.mailboxes[p] = newMailbox()
}

// Unregister removes p's mailbox, drops p from every subscriber list, and
// discards any pending promises whose target was p.
func (b *Bus) Unregister(p Participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.mailboxes, p)
	for topic, subs := range b.eventSubs {
		b.eventSubs[topic] = removeParticipant(subs, p)
	}
	for topic, subs := range b.broadcastSubs {
		b.broadcastSubs[topic] = removeParticipant(subs, p)
	}
	for id, target := range b.targets {
		if target == p {
			delete(b.targets, id)
			delete(b.promises, id)
		}
	}
}

func removeParticipant(subs []Participant, p Participant) []Participant {
	out := subs[:0:0]
	for _, s := range subs {
		if s != p {
			out = append(out, s)
		}
	}
	return out
}

// SubscribeEvent adds p to the round-robin rotation for topic. Idempotent;
// a participant already subscribed keeps its place in line.
func (b *Bus) SubscribeEvent(topic Topic, p Participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if containsParticipant(b.eventSubs[topic], p) {
		return
	}
	b.eventSubs[topic] = append(b.eventSubs[topic], p)
}

// SubscribeBroadcast adds p to the fan-out list for topic. Idempotent.
func (b *Bus) SubscribeBroadcast(topic Topic, p Participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if containsParticipant(b.broadcastSubs[topic], p) {
		return
	}
	b.broadcastSubs[topic] = append(b.broadcastSubs[topic], p)
}

func containsParticipant(subs []Participant, p Participant) bool {
	for _, s := range subs {
		if s == p {
			return true
		}
	}
	return false
}

// SendEvent posts payload as an event of the given topic to exactly one
// current subscriber, chosen by strict round-robin: the head of the
// subscriber list is picked and rotated to the tail. It returns the Promise
// that will carry the eventual result, or nil if topic has no subscribers.
func (b *Bus) SendEvent(topic Topic, sender Participant, payload any) *promise.Promise[any] {
	b.mu.Lock()
	subs := b.eventSubs[topic]
	if len(subs) == 0 {
		b.mu.Unlock()
		return nil
	}
	target := subs[0]
	b.eventSubs[topic] = append(subs[1:], target)

	id := uuid.NewString()
	p := promise.New[any]()
	b.promises[id] = p
	b.targets[id] = target
	mb := b.mailboxes[target]
	b.mu.Unlock()

	if mb == nil {
		// Target was unregistered between subscription and dispatch; the
		// promise is simply left unresolved and dropped, same as a
		// terminated participant never completing it.
		return p
	}
	mb.push(Message{Topic: topic, Sender: sender, Payload: payload, EventID: id})
	return p
}

// SendBroadcast fans payload out as a broadcast of the given topic to every
// current subscriber. Two broadcasts sent one after another on the same
// topic are delivered in that order to every recipient, because each
// recipient's mailbox preserves FIFO insertion order.
func (b *Bus) SendBroadcast(topic Topic, sender Participant, payload any) {
	b.mu.Lock()
	subs := append([]Participant(nil), b.broadcastSubs[topic]...)
	mailboxesByParticipant := make(map[Participant]*mailbox, len(subs))
	for _, p := range subs {
		mailboxesByParticipant[p] = b.mailboxes[p]
	}
	b.mu.Unlock()

	for _, p := range subs {
		if mb := mailboxesByParticipant[p]; mb != nil {
			mb.push(Message{Topic: topic, Sender: sender, Payload: payload})
		}
	}
}

// Complete resolves the promise created for event id with v. It is a
// silent no-op if id is unknown (the event's target may since have been
// unregistered) or already resolved.
func (b *Bus) Complete(id string, v any) {
	b.mu.Lock()
	p := b.promises[id]
	b.mu.Unlock()
	if p == nil {
		return
	}
	p.Resolve(v)
}

// AwaitMessage blocks until a message is available in p's mailbox, then
// removes and returns it. It returns ctx.Err() if ctx is cancelled first.
func (b *Bus) AwaitMessage(ctx context.Context, p Participant) (Message, error) {
	b.mu.Lock()
	mb := b.mailboxes[p]
	b.mu.Unlock()
	if mb == nil {
		return Message{}, ErrNotRegistered
	}
	return mb.pop(ctx)
}

// MailboxCount returns the number of currently registered mailboxes; tests
// use it to assert shutdown cleanliness (every operator unregistered, no
// mailboxes left).
func (b *Bus) MailboxCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.mailboxes)
}
