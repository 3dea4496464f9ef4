package events

import "sync"

// Type indicates the category of a kernel event.
type Type string

const (
	TurnStarted       Type = "TURN_STARTED"
	TurnEnded         Type = "TURN_ENDED"
	PhaseChanged      Type = "PHASE_CHANGED"
	LoopStarted       Type = "LOOP_STARTED"
	LoopEnded         Type = "LOOP_ENDED"
	ItemRemembered    Type = "ITEM_REMEMBERED"
	ItemForgotten     Type = "ITEM_FORGOTTEN"
	MemorySlotUpdated Type = "MEMORY_SLOT_UPDATED"
)

// Event carries the data of a single kernel notification. Only the
// fields relevant to the event type are populated.
type Event struct {
	Type     Type
	Turn     int
	Phase    string
	ItemName string
	SlotID   string
}

// Listener reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType Type
	callback  Listener
}

// Bus is a synchronous multi-subscriber observer registry. Dispatch
// iterates a snapshot of the subscriber list taken at fire time, so a
// listener that subscribes or unsubscribes during dispatch cannot
// corrupt the iteration. No ordering is guaranteed among subscribers of
// the same event.
type Bus struct {
	mu         sync.RWMutex
	listeners  map[int]Listener
	typed      map[Type][]typedListener
	nextHandle int
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[int]Listener),
		typed:     make(map[Type][]typedListener),
	}
}

// Subscribe registers a listener for every event and returns a handle.
func (b *Bus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle := b.nextHandle
	b.nextHandle++
	b.listeners[handle] = listener
	return handle
}

// SubscribeType registers a listener for one event type.
func (b *Bus) SubscribeType(eventType Type, callback Listener) int {
	if callback == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle := b.nextHandle
	b.nextHandle++
	b.typed[eventType] = append(b.typed[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the handle, whether it
// was registered for all events or for a single type.
func (b *Bus) Unsubscribe(handle int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, handle)
	for eventType, listeners := range b.typed {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				b.typed[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event synchronously to the listeners registered
// at the moment of the call.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	callbacks := make([]Listener, 0, len(b.listeners))
	for _, listener := range b.listeners {
		callbacks = append(callbacks, listener)
	}
	for _, listener := range b.typed[event.Type] {
		callbacks = append(callbacks, listener.callback)
	}
	b.mu.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}
