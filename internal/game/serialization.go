package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// buildDeterministicRepresentation creates a canonical string
// representation of the state that is independent of map iteration
// order. Capability functions are excluded; the representation covers
// everything the equivalence check in the rewind tests cares about.
func (s *GameState) buildDeterministicRepresentation() string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("STATE:%d|%d|%d|%d|%d|%.6f\n",
		s.Turn,
		s.PlayerHealth,
		s.EnemyHealth,
		s.Mana,
		s.EntropyLevel,
		s.EntropyMeter,
	))

	buf.WriteString("RULES:")
	ruleNames := make([]string, len(s.ActiveRules))
	for i, rule := range s.ActiveRules {
		ruleNames[i] = fmt.Sprintf("%s/%d/%.4f", rule.Name, rule.Priority, rule.Contribution)
	}
	// Registration order matters for stacked cost, so rules stay unsorted.
	buf.WriteString(strings.Join(ruleNames, ","))
	buf.WriteString("\n")

	writeZone := func(label string, items []*Item) {
		buf.WriteString(label)
		buf.WriteString(":")
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = fmt.Sprintf("%s/%s/%d", item.Name, item.Kind, item.Cost)
		}
		buf.WriteString(strings.Join(names, ","))
		buf.WriteString("\n")
	}
	writeZone("HAND", s.Hand)
	writeZone("DECK", s.Deck)
	writeZone("DISCARD", s.Discard)
	writeZone("MEMORY", s.MemoryZone)

	buf.WriteString("INTENTS:")
	buf.WriteString(strings.Join(s.EnemyIntents, ","))
	buf.WriteString("\n")

	statusKeys := make([]string, 0, len(s.EnemyStatuses))
	for k := range s.EnemyStatuses {
		statusKeys = append(statusKeys, k)
	}
	sort.Strings(statusKeys)
	for _, k := range statusKeys {
		buf.WriteString(fmt.Sprintf("STATUS:%s=%d\n", k, s.EnemyStatuses[k]))
	}

	flagKeys := make([]string, 0, len(s.ParadoxFlags))
	for k := range s.ParadoxFlags {
		flagKeys = append(flagKeys, k)
	}
	sort.Strings(flagKeys)
	for _, k := range flagKeys {
		buf.WriteString(fmt.Sprintf("PARADOX:%s=%t\n", k, s.ParadoxFlags[k]))
	}

	return buf.String()
}

// Checksum computes a sha256 checksum of the canonical representation.
func (s *GameState) Checksum() string {
	sum := sha256.Sum256([]byte(s.buildDeterministicRepresentation()))
	return hex.EncodeToString(sum[:])
}

// itemRecord is the serializable data portion of an item. Capability
// functions are rebound from the catalog after deserialization.
type itemRecord struct {
	ID             string
	Name           string
	Kind           int
	Cost           int
	Priority       int
	LoopPersistent bool
}

type stateRecord struct {
	Turn          int
	PlayerHealth  int
	EnemyHealth   int
	Mana          int
	EntropyLevel  int
	EntropyMeter  float64
	Hand          []itemRecord
	Deck          []itemRecord
	Discard       []itemRecord
	MemoryZone    []itemRecord
	EnemyIntents  []string
	EnemyStatuses map[string]int
	ParadoxFlags  map[string]bool
}

func itemsToRecords(items []*Item) []itemRecord {
	records := make([]itemRecord, len(items))
	for i, item := range items {
		records[i] = itemRecord{
			ID:             item.ID,
			Name:           item.Name,
			Kind:           int(item.Kind),
			Cost:           item.Cost,
			Priority:       item.Priority,
			LoopPersistent: item.LoopPersistent,
		}
	}
	return records
}

func recordsToItems(records []itemRecord) []*Item {
	items := make([]*Item, len(records))
	for i, rec := range records {
		items[i] = &Item{
			ID:             rec.ID,
			Name:           rec.Name,
			Kind:           ItemKind(rec.Kind),
			Cost:           rec.Cost,
			Priority:       rec.Priority,
			LoopPersistent: rec.LoopPersistent,
		}
	}
	return items
}

// SerializeToBytes encodes the data portion of the state with gob.
// Active rules and item capabilities are not encoded; callers rebind
// them from the registry configuration and the catalog.
func (s *GameState) SerializeToBytes() ([]byte, error) {
	record := stateRecord{
		Turn:          s.Turn,
		PlayerHealth:  s.PlayerHealth,
		EnemyHealth:   s.EnemyHealth,
		Mana:          s.Mana,
		EntropyLevel:  s.EntropyLevel,
		EntropyMeter:  s.EntropyMeter,
		Hand:          itemsToRecords(s.Hand),
		Deck:          itemsToRecords(s.Deck),
		Discard:       itemsToRecords(s.Discard),
		MemoryZone:    itemsToRecords(s.MemoryZone),
		EnemyIntents:  s.EnemyIntents,
		EnemyStatuses: s.EnemyStatuses,
		ParadoxFlags:  s.ParadoxFlags,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&record); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a state previously encoded with
// SerializeToBytes.
func DeserializeFromBytes(data []byte) (*GameState, error) {
	var record stateRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	state := &GameState{
		Turn:          record.Turn,
		PlayerHealth:  record.PlayerHealth,
		EnemyHealth:   record.EnemyHealth,
		Mana:          record.Mana,
		EntropyLevel:  record.EntropyLevel,
		EntropyMeter:  record.EntropyMeter,
		Hand:          recordsToItems(record.Hand),
		Deck:          recordsToItems(record.Deck),
		Discard:       recordsToItems(record.Discard),
		MemoryZone:    recordsToItems(record.MemoryZone),
		EnemyIntents:  record.EnemyIntents,
		EnemyStatuses: record.EnemyStatuses,
		ParadoxFlags:  record.ParadoxFlags,
	}
	if state.EnemyStatuses == nil {
		state.EnemyStatuses = make(map[string]int)
	}
	if state.ParadoxFlags == nil {
		state.ParadoxFlags = make(map[string]bool)
	}
	return state, nil
}
