package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chronoweave/chrono-core-go/internal/game/events"
)

// LoopController orchestrates the chrono loop: rewinding the live state
// to the snapshot of the current turn while selectively carrying
// forward configured fields and surviving memory entries.
type LoopController struct {
	logger *zap.Logger
	bus    *events.Bus

	state     *GameState
	snapshots *SnapshotStore
	memory    *MemoryStore
	phases    *PhaseMachine
	registry  *RuleRegistry

	entropyPenalty float64
	preserveHealth bool
	preserveMana   bool

	remaining   int
	active      bool
	targetTurn  int
	preSnapshot *GameState
}

// NewLoopController constructs an idle controller with the configured
// rewind budget.
func NewLoopController(logger *zap.Logger, bus *events.Bus, state *GameState,
	snapshots *SnapshotStore, memory *MemoryStore, phases *PhaseMachine, registry *RuleRegistry,
	maxRewinds int, entropyPenalty float64, preserveHealth, preserveMana bool) *LoopController {
	return &LoopController{
		logger:         logger,
		bus:            bus,
		state:          state,
		snapshots:      snapshots,
		memory:         memory,
		phases:         phases,
		registry:       registry,
		entropyPenalty: entropyPenalty,
		preserveHealth: preserveHealth,
		preserveMana:   preserveMana,
		remaining:      maxRewinds,
	}
}

// Remaining returns the rewinds left in the budget.
func (lc *LoopController) Remaining() int {
	return lc.remaining
}

// Active reports whether a loop is in progress.
func (lc *LoopController) Active() bool {
	return lc.active
}

// TargetTurn returns the turn the active loop rewound to.
func (lc *LoopController) TargetTurn() int {
	return lc.targetTurn
}

// PreRewindState returns the penalized copy of the state captured just
// before the active rewind, nil when idle.
func (lc *LoopController) PreRewindState() *GameState {
	return lc.preSnapshot
}

// CanInitiate reports whether a rewind may start: budget left, no loop
// already active, and past turn 1.
func (lc *LoopController) CanInitiate() bool {
	return lc.remaining > 0 && !lc.active && lc.state.Turn > 1
}

// Initiate performs the rewind. Preconditions and the snapshot lookup
// run before any mutation, so a rejected or failed initiation leaves
// every field of the live state untouched.
func (lc *LoopController) Initiate() error {
	if !lc.CanInitiate() {
		return fmt.Errorf("%w: remaining=%d active=%t turn=%d",
			ErrLoopUnavailable, lc.remaining, lc.active, lc.state.Turn)
	}

	target := lc.state.Turn
	snapshot, err := lc.snapshots.Lookup(target)
	if err != nil {
		return fmt.Errorf("rewind to turn %d failed: %w", target, err)
	}

	// Pre-rewind copy carries the loop's entropy penalty; entropy is
	// one-directional and always survives the rewind.
	pre := lc.state.Clone()
	pre.EntropyMeter += lc.entropyPenalty

	lc.remaining--
	lc.active = true
	lc.targetTurn = target
	lc.preSnapshot = pre

	restored := snapshot.State.Clone()
	if lc.preserveHealth {
		restored.PlayerHealth = pre.PlayerHealth
		restored.EnemyHealth = pre.EnemyHealth
	}
	if lc.preserveMana {
		restored.Mana = pre.Mana
	}
	restored.EntropyLevel = pre.EntropyLevel
	restored.EntropyMeter = pre.EntropyMeter

	lc.memory.LoopStartRebate(restored)
	for _, slot := range lc.memory.SurvivingSlots() {
		restored.MemoryZone = append(restored.MemoryZone, slot.Item.Clone())
	}

	// Replace fields in place: the live state object keeps its
	// identity so references held by other subsystems stay valid.
	lc.state.CopyFrom(restored)
	lc.registry.Rebuild(lc.state)
	lc.phases.Restart()

	if lc.logger != nil {
		lc.logger.Info("chrono loop initiated",
			zap.Int("target_turn", target),
			zap.Int("rewinds_left", lc.remaining),
			zap.Float64("entropy_meter", lc.state.EntropyMeter),
		)
	}
	lc.bus.Publish(events.Event{Type: events.LoopStarted, Turn: target})
	return nil
}

// End closes the active loop and purges memory slots that fail the
// survival predicate. A no-op when idle.
func (lc *LoopController) End() {
	if !lc.active {
		return
	}
	turn := lc.targetTurn
	lc.active = false
	lc.preSnapshot = nil

	lc.memory.LoopEndPurge()

	if lc.logger != nil {
		lc.logger.Info("chrono loop ended", zap.Int("turn", turn))
	}
	lc.bus.Publish(events.Event{Type: events.LoopEnded, Turn: turn})
}
