package events

import (
	"log/slog"
	"sync"

	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
	"github.com/LongshotAI/ride-my-wheels-home/internal/observability"
)

const subscriberBuffer = 64

// Subscription is a cancellable handle over a ride's live event stream.
// Delivery is at-least-once; consumers discard duplicates by event id.
type Subscription struct {
	C <-chan models.RideEvent

	once   sync.Once
	cancel func()
}

// Cancel closes the channel and detaches the subscriber. Safe to call twice;
// no event is delivered after it returns.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Broker fans appended events out to per-ride subscribers. Ordering is
// preserved within a single ride's stream because Publish is called in append
// order and each subscriber has its own FIFO channel.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan models.RideEvent // ride id -> subscriber set
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{subs: make(map[string]map[int]chan models.RideEvent), logger: logger}
}

func (b *Broker) Subscribe(rideID string) *Subscription {
	ch := make(chan models.RideEvent, subscriberBuffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[rideID] == nil {
		b.subs[rideID] = make(map[int]chan models.RideEvent)
	}
	b.subs[rideID][id] = ch
	b.mu.Unlock()

	observability.RideSubscribers.Inc()

	return &Subscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			if set, ok := b.subs[rideID]; ok {
				if _, ok := set[id]; ok {
					delete(set, id)
					close(ch)
					if len(set) == 0 {
						delete(b.subs, rideID)
					}
				}
			}
			b.mu.Unlock()
			observability.RideSubscribers.Dec()
		},
	}
}

// Publish delivers ev to every subscriber of its ride. Sends never block the
// appender: a subscriber that has fallen a full buffer behind loses the event
// and must resync from History.
func (b *Broker) Publish(ev models.RideEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[ev.RideID] {
		select {
		case ch <- ev:
		default:
			observability.EventsDroppedTotal.Inc()
			b.logger.Warn("event dropped for slow subscriber", "ride_id", ev.RideID, "event_id", ev.ID)
		}
	}
}
