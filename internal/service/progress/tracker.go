package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType classifies a progress notification.
type EventType string

const (
	EventStart    EventType = "start"
	EventSuccess  EventType = "success"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// Notification is one append-only progress record. It is never mutated after
// emission.
type Notification struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	SlotID    string    `json:"slot_id,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Counters exposes the running completion state of a generation run.
type Counters struct {
	Completed     int    `json:"completed"`
	Failed        int    `json:"failed"`
	Total         int    `json:"total"`
	CurrentAgent  string `json:"current_agent,omitempty"`
	CurrentSlotID string `json:"current_slot_id,omitempty"`
}

// Tracker records dispatch progress for one generation run. Appends are safe
// under concurrent use; the log order is emission order. Subscribers receive
// events over buffered channels without acknowledgment; a subscriber that
// falls behind misses events but the log itself never drops any.
type Tracker struct {
	mu       sync.Mutex
	events   []Notification
	counters Counters
	subs     []chan Notification
	closed   bool
	logger   *zap.Logger
}

func NewTracker(total int, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		counters: Counters{Total: total},
		logger:   logger,
	}
}

// Start records that a slot was handed to an agent.
func (t *Tracker) Start(slotID, agent, message string) {
	t.publish(Notification{Type: EventStart, Message: message, SlotID: slotID, Agent: agent})
}

// Success records a terminal success for a slot.
func (t *Tracker) Success(slotID, agent, message string) {
	t.publish(Notification{Type: EventSuccess, Message: message, SlotID: slotID, Agent: agent})
}

// Error records a terminal failure for a slot.
func (t *Tracker) Error(slotID, message string) {
	t.publish(Notification{Type: EventError, Message: message, SlotID: slotID})
}

// Complete records the end of the run.
func (t *Tracker) Complete(message string) {
	t.publish(Notification{Type: EventComplete, Message: message})
}

func (t *Tracker) publish(n Notification) {
	n.Timestamp = time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, n)

	switch n.Type {
	case EventStart:
		t.counters.CurrentAgent = n.Agent
		t.counters.CurrentSlotID = n.SlotID
	case EventSuccess:
		t.counters.Completed++
	case EventError:
		t.counters.Failed++
	case EventComplete:
		t.counters.CurrentAgent = ""
		t.counters.CurrentSlotID = ""
	}

	for _, sub := range t.subs {
		select {
		case sub <- n:
		default:
			// Slow consumer; the durable log keeps the event.
			t.logger.Debug("progress subscriber full, dropping fan-out event",
				zap.String("type", string(n.Type)),
				zap.String("slot_id", n.SlotID))
		}
	}
}

// Subscribe returns a channel receiving future notifications. The channel is
// closed when the tracker is closed.
func (t *Tracker) Subscribe(buffer int) <-chan Notification {
	if buffer <= 0 {
		buffer = 64
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Notification, buffer)
	if t.closed {
		close(ch)
		return ch
	}
	t.subs = append(t.subs, ch)
	return ch
}

// Snapshot returns a copy of all notifications emitted so far, in emission
// order.
func (t *Tracker) Snapshot() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Notification, len(t.events))
	copy(out, t.events)
	return out
}

// Latest returns the most recent n notifications, oldest first.
func (t *Tracker) Latest(n int) []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || n > len(t.events) {
		n = len(t.events)
	}
	out := make([]Notification, n)
	copy(out, t.events[len(t.events)-n:])
	return out
}

// Counters returns the current completion counters.
func (t *Tracker) Counters() Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}

// Close closes all subscriber channels. Publishing after Close only appends
// to the log.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for _, sub := range t.subs {
		close(sub)
	}
	t.subs = nil
}
