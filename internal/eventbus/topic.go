// Package eventbus provides a bounded, multi-subscriber, drop-oldest
// broadcast used to fan Satori events out to concurrent WebSocket
// sessions in internal/netapp. No library in the reference pack covers
// Tokio's broadcast::channel drop-oldest-on-overflow semantics (see
// DESIGN.md), so this is a small hand-rolled mutex+channel broadcaster,
// grounded on the subscriber bookkeeping style of
// DataPilot-R-D-ChainKVM's internal/session.Manager.
package eventbus

import (
	"sync"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

// DefaultCapacity is the per-subscriber buffer size. A subscriber slower
// than this many undelivered events has its oldest event dropped rather
// than stalling the publisher, matching original_source's use of Tokio's
// broadcast channel.
const DefaultCapacity = 128

// Topic is a bounded fan-out broadcaster of satori.Event.
type Topic struct {
	capacity int

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewTopic constructs a Topic with DefaultCapacity per-subscriber buffers.
func NewTopic() *Topic {
	return &Topic{capacity: DefaultCapacity, subs: make(map[*Subscription]struct{})}
}

// Subscription is one subscriber's channel handle. The zero value is not
// usable; obtain one via Topic.Subscribe.
type Subscription struct {
	topic *Topic
	ch    chan satori.Event
}

// C returns the channel to receive events on.
func (s *Subscription) C() <-chan satori.Event { return s.ch }

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.topic.mu.Lock()
	defer s.topic.mu.Unlock()
	if _, ok := s.topic.subs[s]; ok {
		delete(s.topic.subs, s)
		close(s.ch)
	}
}

// Subscribe registers a new subscriber and returns its handle.
func (t *Topic) Subscribe() *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub := &Subscription{topic: t, ch: make(chan satori.Event, t.capacity)}
	t.subs[sub] = struct{}{}
	return sub
}

// Publish delivers event to every current subscriber. A subscriber whose
// buffer is full has its oldest buffered event dropped to make room,
// rather than blocking the publisher or the other subscribers.
func (t *Topic) Publish(event satori.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for sub := range t.subs {
		select {
		case sub.ch <- event:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// Subscribers reports the current subscriber count, for diagnostics.
func (t *Topic) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
