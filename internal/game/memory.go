package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronoweave/chrono-core-go/internal/game/events"
)

// SlotPayload is the typed per-kind payload of a memory slot.
type SlotPayload interface {
	payloadKind() ItemKind
}

// ParadoxPayload tracks whether a remembered paradox has been observed.
type ParadoxPayload struct {
	Observed bool
}

func (ParadoxPayload) payloadKind() ItemKind { return KindParadox }

// RulePayload carries the priority of a remembered rule item.
type RulePayload struct {
	Priority int
}

func (RulePayload) payloadKind() ItemKind { return KindRule }

// MemorySlot is one remembered item. Non-permanent slots decay
// probabilistically each turn and must pass the survival predicate to
// outlive a chrono loop.
type MemorySlot struct {
	ID           string
	Item         *Item
	TurnsHeld    int
	Permanent    bool
	CostModifier float64
	Payload      SlotPayload
}

// Per-turn decay constants. The kind multiplier doubles as the slot
// cost modifier used by the loop-start entropy rebate.
const (
	fadeRatePerTurn    = 0.1
	paradoxKindFactor  = 1.5
	ruleKindFactor     = 0.7
	standardKindFactor = 1.0
	minFamiliarity     = 0.5
)

func kindFactor(kind ItemKind) float64 {
	switch kind {
	case KindParadox:
		return paradoxKindFactor
	case KindRule:
		return ruleKindFactor
	default:
		return standardKindFactor
	}
}

// MemoryStore holds the bounded set of remembered items.
type MemoryStore struct {
	logger        *zap.Logger
	bus           *events.Bus
	capacity      int
	allowDupes    bool
	baseReduction float64

	slots      []*MemorySlot
	playCounts map[string]int
	rng        func() float64
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(logger *zap.Logger, bus *events.Bus, capacity int, allowDupes bool, baseReduction float64) *MemoryStore {
	return &MemoryStore{
		logger:        logger,
		bus:           bus,
		capacity:      capacity,
		allowDupes:    allowDupes,
		baseReduction: baseReduction,
		slots:         make([]*MemorySlot, 0, capacity),
		playCounts:    make(map[string]int),
	}
}

// SetRandSource replaces the uniform draw used for decay and loop
// survival, for deterministic tests.
func (ms *MemoryStore) SetRandSource(rng func() float64) {
	ms.rng = rng
}

func (ms *MemoryStore) draw() float64 {
	if ms.rng != nil {
		return ms.rng()
	}
	return rand.Float64()
}

// Remember stores the item. Duplicates are rejected unless explicitly
// allowed; a full store rejects with no mutation. Every successful
// remember increments the item's play-count histogram entry, which
// dampens later decay.
func (ms *MemoryStore) Remember(item *Item, permanent bool) (*MemorySlot, error) {
	if !ms.allowDupes {
		for _, slot := range ms.slots {
			if slot.Item.Name == item.Name {
				return nil, fmt.Errorf("%w: %s", ErrDuplicate, item.Name)
			}
		}
	}
	if len(ms.slots) >= ms.capacity {
		return nil, fmt.Errorf("%w: %d memory slots", ErrCapacityExceeded, len(ms.slots))
	}

	slot := &MemorySlot{
		ID:           uuid.NewString(),
		Item:         item,
		Permanent:    permanent,
		CostModifier: kindFactor(item.Kind),
	}
	switch item.Kind {
	case KindParadox:
		slot.Payload = ParadoxPayload{}
	case KindRule:
		slot.Payload = RulePayload{Priority: item.Priority}
	}

	ms.slots = append(ms.slots, slot)
	ms.playCounts[item.Name]++

	if ms.logger != nil {
		ms.logger.Debug("remembered item",
			zap.String("item", item.Name),
			zap.String("kind", item.Kind.String()),
			zap.Bool("permanent", permanent),
			zap.Int("play_count", ms.playCounts[item.Name]),
		)
	}
	if ms.bus != nil {
		ms.bus.Publish(events.Event{Type: events.ItemRemembered, ItemName: item.Name, SlotID: slot.ID})
	}
	return slot, nil
}

// Forget removes the first non-permanent slot holding the named item.
// Permanent slots are never removed by this call.
func (ms *MemoryStore) Forget(name string) bool {
	for i, slot := range ms.slots {
		if slot.Item.Name == name && !slot.Permanent {
			ms.removeAt(i)
			return true
		}
	}
	return false
}

func (ms *MemoryStore) removeAt(i int) {
	slot := ms.slots[i]
	ms.slots = append(ms.slots[:i], ms.slots[i+1:]...)

	if ms.logger != nil {
		ms.logger.Debug("forgot item",
			zap.String("item", slot.Item.Name),
			zap.Int("turns_held", slot.TurnsHeld),
		)
	}
	if ms.bus != nil {
		ms.bus.Publish(events.Event{Type: events.ItemForgotten, ItemName: slot.Item.Name, SlotID: slot.ID})
	}
}

// FadeProbability computes the chance a slot decays this turn:
// turnsHeld × 0.1 × kindFactor × max(0.5, 1 − playCount × 0.1).
// Frequently replayed items fade slower, floored at half rate.
func (ms *MemoryStore) FadeProbability(slot *MemorySlot) float64 {
	dampening := 1.0 - float64(ms.playCounts[slot.Item.Name])*0.1
	if dampening < minFamiliarity {
		dampening = minFamiliarity
	}
	return float64(slot.TurnsHeld) * fadeRatePerTurn * kindFactor(slot.Item.Kind) * dampening
}

// Tick ages every non-permanent slot and samples its decay. Called once
// per turn.
func (ms *MemoryStore) Tick() {
	for i := len(ms.slots) - 1; i >= 0; i-- {
		slot := ms.slots[i]
		if slot.Permanent {
			continue
		}
		slot.TurnsHeld++
		if ms.bus != nil {
			ms.bus.Publish(events.Event{Type: events.MemorySlotUpdated, ItemName: slot.Item.Name, SlotID: slot.ID})
		}
		if ms.draw() < ms.FadeProbability(slot) {
			ms.removeAt(i)
		}
	}
}

// LoopStartRebate discounts the entropy meter for items already held in
// memory when a chrono loop begins.
func (ms *MemoryStore) LoopStartRebate(state *GameState) {
	for _, slot := range ms.slots {
		if slot.Permanent {
			continue
		}
		state.EntropyMeter -= ms.baseReduction * slot.CostModifier
	}
}

// survives applies the loop-survival predicate: paradox items survive
// only when loop-persistent, rule items survive with probability
// 0.5 + 0.1 × priority when priority is positive, all other kinds
// always survive.
func (ms *MemoryStore) survives(slot *MemorySlot) bool {
	switch slot.Item.Kind {
	case KindParadox:
		return slot.Item.LoopPersistent
	case KindRule:
		if slot.Item.Priority <= 0 {
			return false
		}
		return ms.draw() < 0.5+0.1*float64(slot.Item.Priority)
	default:
		return true
	}
}

// SurvivingSlots returns the slots passing the survival predicate, for
// the rewind merge into the restored memory zone.
func (ms *MemoryStore) SurvivingSlots() []*MemorySlot {
	var surviving []*MemorySlot
	for _, slot := range ms.slots {
		if slot.Permanent || ms.survives(slot) {
			surviving = append(surviving, slot)
		}
	}
	return surviving
}

// LoopEndPurge drops every non-permanent slot failing the survival
// predicate when a chrono loop ends.
func (ms *MemoryStore) LoopEndPurge() {
	for i := len(ms.slots) - 1; i >= 0; i-- {
		slot := ms.slots[i]
		if slot.Permanent {
			continue
		}
		if !ms.survives(slot) {
			ms.removeAt(i)
		}
	}
}

// Slots returns a copy of the current slot list.
func (ms *MemoryStore) Slots() []*MemorySlot {
	cpy := make([]*MemorySlot, len(ms.slots))
	copy(cpy, ms.slots)
	return cpy
}

// PlayCount returns how many times the named item has been remembered.
func (ms *MemoryStore) PlayCount(name string) int {
	return ms.playCounts[name]
}

// Len returns the number of held slots.
func (ms *MemoryStore) Len() int {
	return len(ms.slots)
}
