package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chronoweave/chrono-core-go/internal/game/events"
)

// Phase represents one step of the turn cycle.
type Phase int

const (
	PhaseTurnStart Phase = iota
	PhaseDraw
	PhaseMain
	PhaseEnd
	PhaseEnemyTurn
	PhaseCleanup
)

var phaseNames = map[Phase]string{
	PhaseTurnStart: "TURN_START",
	PhaseDraw:      "DRAW_PHASE",
	PhaseMain:      "MAIN_PHASE",
	PhaseEnd:       "END_PHASE",
	PhaseEnemyTurn: "ENEMY_TURN",
	PhaseCleanup:   "CLEANUP",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// PhaseMachine drives the fixed turn cycle:
//
//	TurnStart → Draw → Main → End → (EnemyTurn when the player holds
//	the turn, else Cleanup) → Cleanup → end turn.
//
// TurnStart, End and EnemyTurn advance themselves after their entry
// effects; Draw hands control to the queued transition action, Main
// waits for the driver (or the phase timeout) and Cleanup waits for the
// queued end-turn action. The turn number increments exactly once per
// full player+enemy cycle, never mid-cycle and never on a rewind.
type PhaseMachine struct {
	logger    *zap.Logger
	bus       *events.Bus
	state     *GameState
	queue     *ActionQueue
	snapshots *SnapshotStore
	opponent  Opponent

	drawPerTurn  int
	startingMana int
	timeout      time.Duration // 0 = unlimited

	current      Phase
	playerTurn   bool
	active       bool
	phaseElapsed time.Duration
}

// NewPhaseMachine wires the machine to its collaborators. It starts
// inactive; the kernel calls StartTurn to begin turn 1.
func NewPhaseMachine(logger *zap.Logger, bus *events.Bus, state *GameState, queue *ActionQueue,
	snapshots *SnapshotStore, opponent Opponent, drawPerTurn, startingMana int, timeout time.Duration) *PhaseMachine {
	return &PhaseMachine{
		logger:       logger,
		bus:          bus,
		state:        state,
		queue:        queue,
		snapshots:    snapshots,
		opponent:     opponent,
		drawPerTurn:  drawPerTurn,
		startingMana: startingMana,
		timeout:      timeout,
		current:      PhaseTurnStart,
		playerTurn:   true,
	}
}

// Current returns the phase in progress.
func (pm *PhaseMachine) Current() Phase {
	return pm.current
}

// Active reports whether a turn is in progress.
func (pm *PhaseMachine) Active() bool {
	return pm.active
}

// PlayerTurn reports whether the primary actor holds the current turn.
func (pm *PhaseMachine) PlayerTurn() bool {
	return pm.playerTurn
}

// StartTurn begins a new turn cycle at TurnStart.
func (pm *PhaseMachine) StartTurn() {
	pm.active = true
	pm.enterPhase(PhaseTurnStart)
}

// AdvancePhase performs the fixed transition out of the current phase.
func (pm *PhaseMachine) AdvancePhase() {
	switch pm.current {
	case PhaseTurnStart:
		pm.enterPhase(PhaseDraw)
	case PhaseDraw:
		pm.enterPhase(PhaseMain)
	case PhaseMain:
		pm.enterPhase(PhaseEnd)
	case PhaseEnd:
		if pm.playerTurn {
			pm.enterPhase(PhaseEnemyTurn)
		} else {
			pm.enterPhase(PhaseCleanup)
		}
	case PhaseEnemyTurn:
		pm.enterPhase(PhaseCleanup)
	case PhaseCleanup:
		// Cleanup hands off through the queued end-turn action.
	}
}

// TransitionTo jumps to a specific phase, used by queued transition
// actions.
func (pm *PhaseMachine) TransitionTo(phase Phase) {
	pm.enterPhase(phase)
}

// enterPhase records the new phase and runs its entry side effect.
func (pm *PhaseMachine) enterPhase(phase Phase) {
	pm.current = phase
	pm.phaseElapsed = 0

	if pm.logger != nil {
		pm.logger.Debug("entered phase",
			zap.String("phase", phase.String()),
			zap.Int("turn", pm.state.Turn),
		)
	}
	pm.bus.Publish(events.Event{Type: events.PhaseChanged, Turn: pm.state.Turn, Phase: phase.String()})

	switch phase {
	case PhaseTurnStart:
		pm.bus.Publish(events.Event{Type: events.TurnStarted, Turn: pm.state.Turn})
		pm.snapshots.Capture(pm.state)
		pm.AdvancePhase()
	case PhaseDraw:
		for i := 0; i < pm.drawPerTurn; i++ {
			pm.queue.Enqueue(Action{Kind: ActionDrawItem})
		}
		pm.queue.Enqueue(Action{Kind: ActionPhaseTransition, TargetPhase: PhaseMain})
	case PhaseMain:
		pm.state.Mana = pm.startingMana
	case PhaseEnd:
		pm.snapshots.Capture(pm.state)
		pm.AdvancePhase()
	case PhaseEnemyTurn:
		pm.playerTurn = false
		pm.opponent.TakeTurn()
		pm.AdvancePhase()
	case PhaseCleanup:
		pm.queue.Enqueue(Action{Kind: ActionEndTurn})
	}
}

// EndTurn closes the current cycle: the active flag resets and a
// snapshot is captured. Only when the ending actor was the enemy does
// the turn counter increment and a fresh player turn begin.
func (pm *PhaseMachine) EndTurn() {
	pm.active = false
	pm.snapshots.Capture(pm.state)
	pm.bus.Publish(events.Event{Type: events.TurnEnded, Turn: pm.state.Turn})

	if !pm.playerTurn {
		pm.state.Turn++
		pm.playerTurn = true
		pm.StartTurn()
	}
}

// Restart resets the machine to TurnStart for the current turn without
// touching the turn counter, used after a rewind.
func (pm *PhaseMachine) Restart() {
	pm.playerTurn = true
	pm.StartTurn()
}

// Tick evaluates the phase timeout once per external tick, fed with the
// elapsed time since the previous tick. An expired timeout forces the
// phase forward rather than cancelling in-flight actions.
func (pm *PhaseMachine) Tick(elapsed time.Duration) {
	if pm.timeout <= 0 || !pm.active {
		return
	}
	pm.phaseElapsed += elapsed
	if pm.phaseElapsed < pm.timeout {
		return
	}
	if pm.logger != nil {
		pm.logger.Debug("phase timeout, forcing advance",
			zap.String("phase", pm.current.String()),
			zap.Duration("elapsed", pm.phaseElapsed),
		)
	}
	if pm.current == PhaseCleanup {
		// Cleanup normally ends through the queued action; a stuck
		// queue still ends the turn on timeout.
		pm.EndTurn()
		return
	}
	pm.AdvancePhase()
}
