package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Snapshot is an immutable-after-creation deep copy of the game state,
// tagged with the turn number at capture time.
type Snapshot struct {
	Turn       int
	State      *GameState
	CapturedAt time.Time
}

// SnapshotStore keeps the append-only history of state snapshots. The
// history is bounded by a turn lookback derived from the rewind budget;
// lookback 0 keeps everything.
type SnapshotStore struct {
	logger   *zap.Logger
	lookback int
	history  []*Snapshot
}

// NewSnapshotStore creates a store retaining snapshots within lookback
// turns of the newest capture.
func NewSnapshotStore(logger *zap.Logger, lookback int) *SnapshotStore {
	return &SnapshotStore{
		logger:   logger,
		lookback: lookback,
		history:  make([]*Snapshot, 0, 16),
	}
}

// Capture deep-copies the state, appends it to the history and returns
// the new snapshot. The copy owns every container independently.
func (ss *SnapshotStore) Capture(state *GameState) *Snapshot {
	snapshot := &Snapshot{
		Turn:       state.Turn,
		State:      state.Clone(),
		CapturedAt: time.Now(),
	}
	ss.history = append(ss.history, snapshot)
	ss.prune()

	if ss.logger != nil {
		ss.logger.Debug("captured snapshot",
			zap.Int("turn", snapshot.Turn),
			zap.Int("history_len", len(ss.history)),
		)
	}
	return snapshot
}

// Lookup returns the first recorded snapshot for the turn. Multiple
// snapshots may exist per turn (turn start and end phase); the first
// one, captured at turn start, is the canonical rewind target.
func (ss *SnapshotStore) Lookup(turn int) (*Snapshot, error) {
	for _, snapshot := range ss.history {
		if snapshot.Turn == turn {
			return snapshot, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNoSnapshot, turn)
}

// Len returns the number of retained snapshots.
func (ss *SnapshotStore) Len() int {
	return len(ss.history)
}

// prune drops snapshots that can no longer serve as rewind targets.
func (ss *SnapshotStore) prune() {
	if ss.lookback <= 0 || len(ss.history) == 0 {
		return
	}
	newest := ss.history[len(ss.history)-1].Turn
	minTurn := newest - ss.lookback
	if minTurn <= 0 {
		return
	}

	cut := 0
	for cut < len(ss.history) && ss.history[cut].Turn <= minTurn {
		cut++
	}
	if cut == 0 {
		return
	}
	dropped := cut
	ss.history = append(ss.history[:0], ss.history[cut:]...)

	if ss.logger != nil {
		ss.logger.Debug("pruned snapshot history",
			zap.Int("dropped", dropped),
			zap.Int("min_turn", minTurn+1),
		)
	}
}
