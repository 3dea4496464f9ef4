package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainExecutesInEnqueueOrder(t *testing.T) {
	queue := NewActionQueue(nil)

	var order []string
	queue.SetHandler(ActionPlayItem, func(a Action) { order = append(order, "play:"+a.ItemName) })
	queue.SetHandler(ActionDrawItem, func(Action) { order = append(order, "draw") })

	queue.Enqueue(Action{Kind: ActionPlayItem, ItemName: "spark"})
	queue.Enqueue(Action{Kind: ActionDrawItem})
	queue.Enqueue(Action{Kind: ActionPlayItem, ItemName: "axiom"})

	executed := queue.DrainTick()
	assert.Equal(t, 3, executed)
	assert.Equal(t, []string{"play:spark", "draw", "play:axiom"}, order)
	assert.Equal(t, 0, queue.Len())
}

func TestBlockedGateHaltsAndResumes(t *testing.T) {
	queue := NewActionQueue(nil)

	executed := 0
	blocked := false
	queue.SetBlocked(func() bool { return blocked })
	queue.SetHandler(ActionDrawItem, func(Action) {
		executed++
		if executed == 1 {
			blocked = true // the gate closes mid-queue
		}
	})

	queue.Enqueue(Action{Kind: ActionDrawItem})
	queue.Enqueue(Action{Kind: ActionDrawItem})
	queue.Enqueue(Action{Kind: ActionDrawItem})

	assert.Equal(t, 1, queue.DrainTick())
	assert.Equal(t, 2, queue.Len(), "drain halts mid-queue while blocked")

	blocked = false
	assert.Equal(t, 2, queue.DrainTick())
	assert.Equal(t, 0, queue.Len())
}

func TestCascadesRunWithinSameDrain(t *testing.T) {
	queue := NewActionQueue(nil)

	var order []string
	queue.SetHandler(ActionPlayItem, func(a Action) {
		order = append(order, "play:"+a.ItemName)
		if a.ItemName == "cascade" {
			queue.Enqueue(Action{Kind: ActionDrawItem})
		}
	})
	queue.SetHandler(ActionDrawItem, func(Action) { order = append(order, "draw") })

	queue.Enqueue(Action{Kind: ActionPlayItem, ItemName: "cascade"})
	queue.Enqueue(Action{Kind: ActionPlayItem, ItemName: "spark"})

	executed := queue.DrainTick()
	assert.Equal(t, 3, executed)
	// The cascaded draw lands at the tail, after already-queued actions.
	assert.Equal(t, []string{"play:cascade", "play:spark", "draw"}, order)
}

func TestDrainSkipsUnhandledKinds(t *testing.T) {
	queue := NewActionQueue(nil)
	queue.Enqueue(Action{Kind: ActionEndTurn})

	assert.Equal(t, 0, queue.DrainTick())
	assert.Equal(t, 0, queue.Len())
}

func TestEnqueueAssignsID(t *testing.T) {
	queue := NewActionQueue(nil)
	var got Action
	queue.SetHandler(ActionDrawItem, func(a Action) { got = a })

	queue.Enqueue(Action{Kind: ActionDrawItem})
	queue.DrainTick()
	assert.NotEmpty(t, got.ID)
}
