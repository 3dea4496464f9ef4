package game

import "errors"

// Policy rejections are returned as values; the caller decides whether
// to retry or abandon. None of them leave partial mutations behind.
var (
	// ErrCapacityExceeded signals a bounded set (active rules, memory
	// slots) is already at its configured maximum.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrWouldDestabilize signals a rule registration that either
	// conflicts with an active rule or pushes the projected cost past
	// the configured threshold.
	ErrWouldDestabilize = errors.New("registration would destabilize the rule stack")

	// ErrDuplicate signals an item already held in memory.
	ErrDuplicate = errors.New("item already remembered")

	// ErrNoSnapshot signals a rewind target turn with no recorded
	// snapshot. The rewind aborts with state untouched.
	ErrNoSnapshot = errors.New("no snapshot recorded for turn")

	// ErrLoopUnavailable signals a rewind precondition failure: no
	// rewinds left, a loop already active, or turn 1.
	ErrLoopUnavailable = errors.New("chrono loop unavailable")
)
