package game

import "github.com/chronoweave/chrono-core-go/internal/game/modifier"

// GameState is the single shared mutable state object. Every subsystem
// reads and writes it synchronously; there is one canonical writer at a
// time and no transactional boundary.
type GameState struct {
	Turn         int
	PlayerHealth int
	EnemyHealth  int
	Mana         int
	EntropyLevel int
	EntropyMeter float64

	ActiveRules []*modifier.Rule

	Hand       []*Item
	Deck       []*Item
	Discard    []*Item
	MemoryZone []*Item

	EnemyIntents  []string
	EnemyStatuses map[string]int
	ParadoxFlags  map[string]bool
}

// NewGameState constructs the initial state at turn 1.
func NewGameState() *GameState {
	return &GameState{
		Turn:          1,
		PlayerHealth:  30,
		EnemyHealth:   30,
		EnemyStatuses: make(map[string]int),
		ParadoxFlags:  make(map[string]bool),
	}
}

func cloneItems(items []*Item) []*Item {
	if items == nil {
		return nil
	}
	cpy := make([]*Item, len(items))
	for i, item := range items {
		cpy[i] = item.Clone()
	}
	return cpy
}

func cloneRules(rules []*modifier.Rule) []*modifier.Rule {
	if rules == nil {
		return nil
	}
	cpy := make([]*modifier.Rule, len(rules))
	for i, rule := range rules {
		cpy[i] = rule.Clone()
	}
	return cpy
}

// Clone produces a fully independent deep copy: no container of the
// copy aliases a container of the original.
func (s *GameState) Clone() *GameState {
	cpy := &GameState{
		Turn:         s.Turn,
		PlayerHealth: s.PlayerHealth,
		EnemyHealth:  s.EnemyHealth,
		Mana:         s.Mana,
		EntropyLevel: s.EntropyLevel,
		EntropyMeter: s.EntropyMeter,
		ActiveRules:  cloneRules(s.ActiveRules),
		Hand:         cloneItems(s.Hand),
		Deck:         cloneItems(s.Deck),
		Discard:      cloneItems(s.Discard),
		MemoryZone:   cloneItems(s.MemoryZone),
		EnemyIntents: append([]string(nil), s.EnemyIntents...),
	}
	cpy.EnemyStatuses = make(map[string]int, len(s.EnemyStatuses))
	for k, v := range s.EnemyStatuses {
		cpy.EnemyStatuses[k] = v
	}
	cpy.ParadoxFlags = make(map[string]bool, len(s.ParadoxFlags))
	for k, v := range s.ParadoxFlags {
		cpy.ParadoxFlags[k] = v
	}
	return cpy
}

// CopyFrom replaces every field of the receiver with deep copies of the
// other state's fields. The receiver's identity is preserved, so
// references held by other subsystems stay valid across a rewind.
func (s *GameState) CopyFrom(other *GameState) {
	restored := other.Clone()
	s.Turn = restored.Turn
	s.PlayerHealth = restored.PlayerHealth
	s.EnemyHealth = restored.EnemyHealth
	s.Mana = restored.Mana
	s.EntropyLevel = restored.EntropyLevel
	s.EntropyMeter = restored.EntropyMeter
	s.ActiveRules = restored.ActiveRules
	s.Hand = restored.Hand
	s.Deck = restored.Deck
	s.Discard = restored.Discard
	s.MemoryZone = restored.MemoryZone
	s.EnemyIntents = restored.EnemyIntents
	s.EnemyStatuses = restored.EnemyStatuses
	s.ParadoxFlags = restored.ParadoxFlags
}

// EquivalentTo reports whether both states serialize to the same
// canonical representation.
func (s *GameState) EquivalentTo(other *GameState) bool {
	if other == nil {
		return false
	}
	return s.buildDeterministicRepresentation() == other.buildDeterministicRepresentation()
}
