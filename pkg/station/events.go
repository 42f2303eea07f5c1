package station

import (
	"sync"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/imagestore"
)

// EventType names a station event.
type EventType string

const (
	EventCapture       EventType = "capture"
	EventCaptureFailed EventType = "capture_failed"
	EventEviction      EventType = "eviction"
	EventPeriodChange  EventType = "period_change"
	EventConfig        EventType = "config"
	EventScheduler     EventType = "scheduler"
)

// Event is published to subscribers such as the websocket feed.
type Event struct {
	Type   EventType          `json:"type"`
	Time   time.Time          `json:"time"`
	Record *imagestore.Record `json:"record,omitempty"`
	Period string             `json:"period,omitempty"`
	Error  *errpolicy.Error   `json:"error,omitempty"`
	Data   map[string]any     `json:"data,omitempty"`
}

// Broadcaster fans events out to subscribers. Slow subscribers lose events
// rather than blocking the publisher.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel receiving events and a function that
// unsubscribes and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber with room in its buffer.
func (b *Broadcaster) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
