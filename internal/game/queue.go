package game

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActionKind identifies the handler for a queued action.
type ActionKind int

const (
	ActionPlayItem ActionKind = iota
	ActionDrawItem
	ActionPhaseTransition
	ActionEndTurn
)

var actionKindNames = map[ActionKind]string{
	ActionPlayItem:        "PLAY_ITEM",
	ActionDrawItem:        "DRAW_ITEM",
	ActionPhaseTransition: "PHASE_TRANSITION",
	ActionEndTurn:         "END_TURN",
}

func (k ActionKind) String() string {
	if name, ok := actionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(k))
}

// Action is one opaque pending action record.
type Action struct {
	ID          string
	Kind        ActionKind
	ItemName    string // play actions
	TargetPhase Phase  // phase-transition actions
}

// ActionHandler executes one action kind.
type ActionHandler func(Action)

// BlockedFunc is the external gate halting the drain, e.g. a
// presentation layer waiting on an animation or player input.
type BlockedFunc func() bool

// ActionQueue is the FIFO of pending actions, drained once per tick.
type ActionQueue struct {
	logger   *zap.Logger
	actions  []Action
	handlers map[ActionKind]ActionHandler
	blocked  BlockedFunc
}

// NewActionQueue constructs an empty queue that is never blocked until
// a gate is installed.
func NewActionQueue(logger *zap.Logger) *ActionQueue {
	return &ActionQueue{
		logger:   logger,
		actions:  make([]Action, 0, 16),
		handlers: make(map[ActionKind]ActionHandler),
	}
}

// SetHandler binds the single handler for an action kind.
func (aq *ActionQueue) SetHandler(kind ActionKind, handler ActionHandler) {
	aq.handlers[kind] = handler
}

// SetBlocked installs the external blocked gate.
func (aq *ActionQueue) SetBlocked(blocked BlockedFunc) {
	aq.blocked = blocked
}

// Enqueue appends the action to the tail, assigning an id if absent.
func (aq *ActionQueue) Enqueue(action Action) {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	aq.actions = append(aq.actions, action)
}

// DrainTick pops and executes the head while the queue is non-empty and
// the gate is open, returning the number executed. Actions enqueued by
// a handler land on the tail and run within the same drain, so cascades
// resolve in a single tick. When the gate closes mid-queue, draining
// halts and resumes on a later tick.
func (aq *ActionQueue) DrainTick() int {
	executed := 0
	for len(aq.actions) > 0 {
		if aq.blocked != nil && aq.blocked() {
			if aq.logger != nil {
				aq.logger.Debug("drain halted by external gate",
					zap.Int("pending", len(aq.actions)),
				)
			}
			break
		}

		action := aq.actions[0]
		aq.actions = aq.actions[1:]

		handler, ok := aq.handlers[action.Kind]
		if !ok {
			if aq.logger != nil {
				aq.logger.Warn("no handler for action kind",
					zap.String("kind", action.Kind.String()),
				)
			}
			continue
		}
		handler(action)
		executed++
	}
	return executed
}

// Len returns the number of pending actions.
func (aq *ActionQueue) Len() int {
	return len(aq.actions)
}
