package game

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/chronoweave/chrono-core-go/internal/config"
	"github.com/chronoweave/chrono-core-go/internal/game/events"
	"github.com/chronoweave/chrono-core-go/internal/game/modifier"
)

// Kernel is the context object owning the live game state and every
// subsystem. It is constructed once and driven by a single external
// caller invoking Tick once per discrete step; all mutation is
// synchronous and completes before Tick returns.
type Kernel struct {
	logger *zap.Logger
	cfg    *config.Config

	state     *GameState
	bus       *events.Bus
	snapshots *SnapshotStore
	memory    *MemoryStore
	rules     *RuleRegistry
	queue     *ActionQueue
	phases    *PhaseMachine
	loop      *LoopController

	catalog  Catalog
	opponent Opponent

	now      func() time.Time
	lastTick time.Time
}

// NewKernel wires the kernel. The opponent and catalog collaborators
// are required; their absence is a construction-time error rather than
// a runtime no-op.
func NewKernel(cfg *config.Config, logger *zap.Logger, opponent Opponent, catalog Catalog) (*Kernel, error) {
	if cfg == nil {
		return nil, errors.New("kernel requires a config")
	}
	if opponent == nil {
		return nil, errors.New("kernel requires an opponent collaborator")
	}
	if catalog == nil {
		return nil, errors.New("kernel requires a catalog collaborator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	state := NewGameState()
	bus := events.NewBus()
	snapshots := NewSnapshotStore(logger, cfg.Loop.SnapshotLookback)
	memory := NewMemoryStore(logger, bus, cfg.Memory.Capacity, cfg.Memory.AllowDuplicates, cfg.Memory.BaseEntropyReduction)
	rules := NewRuleRegistry(logger, cfg.Rules.MaxActive, cfg.Rules.StackPenalty, cfg.Rules.CostThreshold)
	queue := NewActionQueue(logger)
	phases := NewPhaseMachine(logger, bus, state, queue, snapshots, opponent,
		cfg.Turn.DrawPerTurn, cfg.Turn.StartingMana, cfg.Turn.PhaseTimeout)
	loop := NewLoopController(logger, bus, state, snapshots, memory, phases, rules,
		cfg.Loop.MaxRewinds, cfg.Loop.EntropyPenalty, cfg.Loop.PreserveHealth, cfg.Loop.PreserveMana)

	k := &Kernel{
		logger:    logger,
		cfg:       cfg,
		state:     state,
		bus:       bus,
		snapshots: snapshots,
		memory:    memory,
		rules:     rules,
		queue:     queue,
		phases:    phases,
		loop:      loop,
		catalog:   catalog,
		opponent:  opponent,
		now:       time.Now,
	}

	queue.SetHandler(ActionPlayItem, k.handlePlayItem)
	queue.SetHandler(ActionDrawItem, k.handleDrawItem)
	queue.SetHandler(ActionPhaseTransition, k.handlePhaseTransition)
	queue.SetHandler(ActionEndTurn, k.handleEndTurn)

	// Memory decay runs once per turn.
	bus.SubscribeType(events.TurnStarted, func(events.Event) {
		memory.Tick()
	})

	return k, nil
}

// SetClock replaces the wall clock, for deterministic timeout tests.
func (k *Kernel) SetClock(now func() time.Time) {
	k.now = now
	k.lastTick = time.Time{}
}

// Start begins the first turn.
func (k *Kernel) Start() {
	k.lastTick = k.now()
	k.phases.StartTurn()
	k.queue.DrainTick()
}

// Tick is the single external driver entry point: it feeds elapsed
// wall time to the phase timeout and drains the action queue.
func (k *Kernel) Tick() {
	now := k.now()
	if k.lastTick.IsZero() {
		k.lastTick = now
	}
	elapsed := now.Sub(k.lastTick)
	k.lastTick = now

	k.phases.Tick(elapsed)
	k.queue.DrainTick()
}

// SetBlocked installs the external gate halting the queue drain.
func (k *Kernel) SetBlocked(blocked BlockedFunc) {
	k.queue.SetBlocked(blocked)
}

// PlayItem enqueues a play action for the named hand item.
func (k *Kernel) PlayItem(name string) {
	k.queue.Enqueue(Action{Kind: ActionPlayItem, ItemName: name})
}

// RegisterRule registers a rule directly with the registry.
func (k *Kernel) RegisterRule(rule *modifier.Rule) error {
	return k.rules.Register(k.state, rule)
}

// RememberItem stores a catalog item in loop memory.
func (k *Kernel) RememberItem(name string, permanent bool) (*MemorySlot, error) {
	item, ok := k.catalog.Lookup(name)
	if !ok {
		return nil, errors.New("unknown item: " + name)
	}
	return k.memory.Remember(item, permanent)
}

// EndMainPhase advances out of the main phase on the player's behalf.
func (k *Kernel) EndMainPhase() {
	if k.phases.Current() == PhaseMain {
		k.phases.AdvancePhase()
	}
}

func (k *Kernel) handlePlayItem(action Action) {
	idx := -1
	for i, item := range k.state.Hand {
		if item.Name == action.ItemName {
			idx = i
			break
		}
	}
	if idx == -1 {
		if k.logger != nil {
			k.logger.Warn("play action for item not in hand", zap.String("item", action.ItemName))
		}
		return
	}

	item := k.state.Hand[idx]
	if !item.Playable(k.state) {
		if k.logger != nil {
			k.logger.Debug("item not playable", zap.String("item", item.Name))
		}
		return
	}

	k.state.Hand = append(k.state.Hand[:idx], k.state.Hand[idx+1:]...)
	k.state.Mana -= item.Cost

	switch item.Kind {
	case KindRule:
		if item.Rule != nil {
			if err := k.rules.Register(k.state, item.Rule); err != nil && k.logger != nil {
				k.logger.Info("rule registration rejected",
					zap.String("item", item.Name),
					zap.Error(err),
				)
			}
		}
	case KindParadox:
		k.state.ParadoxFlags[item.Name] = true
	}
	item.Apply(k.state)

	k.state.Discard = append(k.state.Discard, item)
}

func (k *Kernel) handleDrawItem(Action) {
	if len(k.state.Deck) == 0 {
		if k.logger != nil {
			k.logger.Debug("draw from empty deck")
		}
		return
	}
	item := k.state.Deck[0]
	k.state.Deck = k.state.Deck[1:]
	k.state.Hand = append(k.state.Hand, item)
}

func (k *Kernel) handlePhaseTransition(action Action) {
	k.phases.TransitionTo(action.TargetPhase)
}

func (k *Kernel) handleEndTurn(Action) {
	k.phases.EndTurn()
}

// Accessors for the driver and tests.

func (k *Kernel) State() *GameState         { return k.state }
func (k *Kernel) Events() *events.Bus       { return k.bus }
func (k *Kernel) Snapshots() *SnapshotStore { return k.snapshots }
func (k *Kernel) Memory() *MemoryStore      { return k.memory }
func (k *Kernel) Rules() *RuleRegistry      { return k.rules }
func (k *Kernel) Queue() *ActionQueue       { return k.queue }
func (k *Kernel) Phases() *PhaseMachine     { return k.phases }
func (k *Kernel) Loop() *LoopController     { return k.loop }
