package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoweave/chrono-core-go/internal/game/events"
	"github.com/chronoweave/chrono-core-go/internal/game/modifier"
)

type loopFixture struct {
	state     *GameState
	bus       *events.Bus
	snapshots *SnapshotStore
	memory    *MemoryStore
	machine   *PhaseMachine
	registry  *RuleRegistry
	queue     *ActionQueue
}

func newLoopController(t *testing.T, rewinds int, penalty float64, preserveHealth, preserveMana bool) (*LoopController, *loopFixture) {
	t.Helper()
	f := &loopFixture{
		state:     NewGameState(),
		bus:       events.NewBus(),
		queue:     NewActionQueue(nil),
		snapshots: NewSnapshotStore(nil, 0),
	}
	f.memory = NewMemoryStore(nil, f.bus, 7, false, 2.0)
	f.registry = NewRuleRegistry(nil, 5, 1.2, 50.0)
	f.machine = NewPhaseMachine(nil, f.bus, f.state, f.queue, f.snapshots, &stubOpponent{}, 1, 3, 0)
	lc := NewLoopController(nil, f.bus, f.state, f.snapshots, f.memory, f.machine, f.registry,
		rewinds, penalty, preserveHealth, preserveMana)
	return lc, f
}

func TestCanInitiatePreconditions(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, false, false)

	assert.False(t, lc.CanInitiate(), "turn 1 cannot rewind")

	f.state.Turn = 2
	assert.True(t, lc.CanInitiate())

	exhausted, fx := newLoopController(t, 0, 5.0, false, false)
	fx.state.Turn = 2
	assert.False(t, exhausted.CanInitiate(), "no budget left")
}

func TestInitiateRejectedWithoutSideEffects(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, false, false)
	before := f.state.Clone()

	err := lc.Initiate()
	require.ErrorIs(t, err, ErrLoopUnavailable)
	assert.True(t, f.state.EquivalentTo(before))
	assert.Equal(t, 1, lc.Remaining())
	assert.False(t, lc.Active())
}

func TestInitiateMissingSnapshotLeavesStateUntouched(t *testing.T) {
	lc, f := newLoopController(t, 2, 5.0, false, false)
	f.state.Turn = 3
	f.state.EntropyMeter = 10.0
	before := f.state.Clone()

	err := lc.Initiate()
	require.ErrorIs(t, err, ErrNoSnapshot)
	assert.True(t, f.state.EquivalentTo(before), "a failed rewind never partially applies")
	assert.Equal(t, 2, lc.Remaining())
	assert.False(t, lc.Active())
}

func TestRewindIdempotence(t *testing.T) {
	lc, f := newLoopController(t, 2, 5.0, false, false)

	// Reach turn 3 and capture its turn-start snapshot.
	f.state.Turn = 3
	f.state.Mana = 3
	f.state.EntropyMeter = 12.0
	f.snapshots.Capture(f.state)

	require.NoError(t, lc.Initiate())

	// With no intervening mutation, the restored state equals the
	// snapshot except for the entropy meter's loop penalty.
	snapshot, err := f.snapshots.Lookup(3)
	require.NoError(t, err)
	expected := snapshot.State.Clone()
	expected.EntropyMeter += 5.0

	assert.True(t, f.state.EquivalentTo(expected))
	assert.Equal(t, 3, f.state.Turn, "a rewind never increments the turn counter")
	assert.Equal(t, 1, lc.Remaining())
	assert.True(t, lc.Active())
	assert.Equal(t, 3, lc.TargetTurn())
}

func TestRewindDiscardsProgressWithoutPreservation(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, false, false)

	f.state.Turn = 2
	f.state.PlayerHealth = 30
	f.state.Mana = 3
	f.snapshots.Capture(f.state)

	// Progress after the snapshot: damage taken, mana spent.
	f.state.PlayerHealth = 18
	f.state.Mana = 0
	f.state.Discard = []*Item{NewItem("spark", KindStandard, 1)}

	require.NoError(t, lc.Initiate())

	assert.Equal(t, 30, f.state.PlayerHealth)
	assert.Equal(t, 3, f.state.Mana)
	assert.Empty(t, f.state.Discard)
}

func TestRewindPreservesConfiguredFields(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, true, true)

	f.state.Turn = 2
	f.state.PlayerHealth = 30
	f.state.EnemyHealth = 30
	f.state.Mana = 3
	f.snapshots.Capture(f.state)

	f.state.PlayerHealth = 18
	f.state.EnemyHealth = 11
	f.state.Mana = 1

	require.NoError(t, lc.Initiate())

	assert.Equal(t, 18, f.state.PlayerHealth, "health carried across the rewind")
	assert.Equal(t, 11, f.state.EnemyHealth)
	assert.Equal(t, 1, f.state.Mana, "mana carried across the rewind")
}

func TestRewindMergesSurvivingMemoryAndRebates(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, false, false)

	f.state.Turn = 2
	f.state.EntropyMeter = 20.0
	f.snapshots.Capture(f.state)

	_, err := f.memory.Remember(NewItem("spark", KindStandard, 1), false)
	require.NoError(t, err)
	_, err = f.memory.Remember(NewItem("fracture", KindParadox, 3), false)
	require.NoError(t, err)

	require.NoError(t, lc.Initiate())

	// Standard items survive; the unflagged paradox does not.
	require.Len(t, f.state.MemoryZone, 1)
	assert.Equal(t, "spark", f.state.MemoryZone[0].Name)

	// Meter: 20 + 5 penalty − rebates (2.0×1.0 + 2.0×1.5) = 20.
	assert.InDelta(t, 20.0, f.state.EntropyMeter, 1e-9)
}

func TestRewindRebuildsRuleTables(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, false, false)

	f.state.Turn = 2
	f.snapshots.Capture(f.state)

	// A rule registered after the snapshot disappears with the rewind.
	require.NoError(t, f.registry.Register(f.state, &modifier.Rule{
		Name: "surge", Contribution: 10,
		Effects: []modifier.Effect{{Name: "damage", Target: "enemy", Op: modifier.OpMultiply, Magnitude: 2}},
	}))
	require.Equal(t, 2.0, f.registry.Modifier("damage", "enemy"))

	require.NoError(t, lc.Initiate())

	assert.Empty(t, f.state.ActiveRules)
	assert.Equal(t, 1.0, f.registry.Modifier("damage", "enemy"))
}

func TestLoopLifecycleEvents(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, false, false)
	f.state.Turn = 2
	f.snapshots.Capture(f.state)

	var fired []events.Type
	f.bus.Subscribe(func(e events.Event) {
		if e.Type == events.LoopStarted || e.Type == events.LoopEnded {
			fired = append(fired, e.Type)
		}
	})

	require.NoError(t, lc.Initiate())
	lc.End()
	lc.End() // idle: no-op

	assert.Equal(t, []events.Type{events.LoopStarted, events.LoopEnded}, fired)
	assert.False(t, lc.Active())
	assert.Nil(t, lc.PreRewindState())
}

func TestEndPurgesMemory(t *testing.T) {
	lc, f := newLoopController(t, 1, 5.0, false, false)
	f.state.Turn = 2
	f.snapshots.Capture(f.state)

	_, err := f.memory.Remember(NewItem("fracture", KindParadox, 3), false)
	require.NoError(t, err)
	_, err = f.memory.Remember(NewItem("spark", KindStandard, 1), false)
	require.NoError(t, err)

	require.NoError(t, lc.Initiate())
	require.Equal(t, 2, f.memory.Len())

	lc.End()
	assert.Equal(t, 1, f.memory.Len(), "unflagged paradox purged at loop end")
	assert.Equal(t, "spark", f.memory.Slots()[0].Item.Name)
}

func TestSecondRewindWhileActiveRejected(t *testing.T) {
	lc, f := newLoopController(t, 3, 5.0, false, false)
	f.state.Turn = 2
	f.snapshots.Capture(f.state)

	require.NoError(t, lc.Initiate())
	err := lc.Initiate()
	require.ErrorIs(t, err, ErrLoopUnavailable)
	assert.Equal(t, 2, lc.Remaining())
}
