package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chronoweave/chrono-core-go/internal/game/modifier"
)

// ItemKind is the closed set of item variants the kernel understands.
type ItemKind int

const (
	// KindStandard covers ordinary playable items.
	KindStandard ItemKind = iota
	// KindRule items register a global rule when played.
	KindRule
	// KindParadox items are inherently unstable: they decay faster in
	// memory and only survive a rewind when flagged loop-persistent.
	KindParadox
)

var itemKindNames = map[ItemKind]string{
	KindStandard: "STANDARD",
	KindRule:     "RULE",
	KindParadox:  "PARADOX",
}

func (k ItemKind) String() string {
	if name, ok := itemKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// paradoxEntropyLimit gates playing paradox items once the entropy
// meter runs too hot. This limit is independent of the configurable
// rule-cost threshold.
const paradoxEntropyLimit = 80.0

// Item is an opaque game piece. The kernel only relies on its identity,
// kind, cost and the two capability functions; concrete effect
// semantics live with the catalog that produced it.
type Item struct {
	ID             string
	Name           string
	Kind           ItemKind
	Cost           int
	Priority       int            // rule items: higher wins conflicting overrides
	LoopPersistent bool           // paradox items: survive a rewind
	Rule           *modifier.Rule // rule items: the rule registered on play

	effect  func(*GameState)
	canPlay func(*GameState) bool
}

// NewItem constructs an item with a fresh instance id.
func NewItem(name string, kind ItemKind, cost int) *Item {
	return &Item{
		ID:   uuid.NewString(),
		Name: name,
		Kind: kind,
		Cost: cost,
	}
}

// WithEffect installs the apply-effect capability.
func (i *Item) WithEffect(fn func(*GameState)) *Item {
	i.effect = fn
	return i
}

// WithPlayable installs a custom can-be-played capability.
func (i *Item) WithPlayable(fn func(*GameState) bool) *Item {
	i.canPlay = fn
	return i
}

// Apply invokes the item's effect against the state. Items without an
// effect are inert.
func (i *Item) Apply(state *GameState) {
	if i.effect != nil {
		i.effect(state)
	}
}

// Playable reports whether the item can currently be played. The
// default check requires affordable cost; paradox items are further
// gated by the entropy limit.
func (i *Item) Playable(state *GameState) bool {
	if i.Kind == KindParadox && state.EntropyMeter >= paradoxEntropyLimit {
		return false
	}
	if i.canPlay != nil {
		return i.canPlay(state)
	}
	return state.Mana >= i.Cost
}

// Clone returns an independent copy sharing the same identity and
// capabilities.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cpy := *i
	cpy.Rule = i.Rule.Clone()
	return &cpy
}

// Catalog is the read-only item index. Lookup returns a fresh
// independent instance, never a shared reference.
type Catalog interface {
	Lookup(name string) (*Item, bool)
}

// Opponent is the opposing-actor collaborator, invoked exactly once per
// enemy-turn phase.
type Opponent interface {
	TakeTurn()
}
