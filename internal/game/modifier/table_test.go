package modifier

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRebuildDefaultsToIdentity(t *testing.T) {
	table := Rebuild(nil)
	if got := table.Value("damage", "player"); !almostEqual(got, 1.0) {
		t.Fatalf("expected identity 1.0 for untouched entry, got %f", got)
	}
}

func TestRebuildAccumulatesMultiplyAndAdd(t *testing.T) {
	rules := []*Rule{
		{Name: "surge", Priority: 1, Effects: []Effect{
			{Name: "damage", Target: "enemy", Op: OpMultiply, Magnitude: 2.0},
		}},
		{Name: "ember", Priority: 0, Effects: []Effect{
			{Name: "damage", Target: "enemy", Op: OpAdd, Magnitude: 0.5},
		}},
	}

	table := Rebuild(rules)
	// ember applies first (priority 0): 1.0 + 0.5 = 1.5, then surge: 3.0.
	if got := table.Value("damage", "enemy"); !almostEqual(got, 3.0) {
		t.Fatalf("expected 3.0, got %f", got)
	}
}

func TestRebuildHigherPrioritySetWins(t *testing.T) {
	rules := []*Rule{
		{Name: "low", Priority: 0, Effects: []Effect{
			{Name: "heal", Target: "player", Op: OpSet, Magnitude: 2.0},
		}},
		{Name: "high", Priority: 5, Effects: []Effect{
			{Name: "heal", Target: "player", Op: OpSet, Magnitude: 0.25},
		}},
	}

	table := Rebuild(rules)
	if got := table.Value("heal", "player"); !almostEqual(got, 0.25) {
		t.Fatalf("expected higher-priority set to win with 0.25, got %f", got)
	}
}

func TestRebuildInvertNegatesAccumulated(t *testing.T) {
	rules := []*Rule{
		{Name: "boost", Priority: 0, Effects: []Effect{
			{Name: "draw", Target: "player", Op: OpMultiply, Magnitude: 2.0},
		}},
		{Name: "mirror", Priority: 1, Effects: []Effect{
			{Name: "draw", Target: "player", Op: OpInvert},
		}},
	}

	table := Rebuild(rules)
	if got := table.Value("draw", "player"); !almostEqual(got, -2.0) {
		t.Fatalf("expected -2.0 after invert, got %f", got)
	}
}

func TestRebuildStableForEqualPriority(t *testing.T) {
	rules := []*Rule{
		{Name: "first", Priority: 1, Effects: []Effect{
			{Name: "cost", Target: "rules", Op: OpSet, Magnitude: 4.0},
		}},
		{Name: "second", Priority: 1, Effects: []Effect{
			{Name: "cost", Target: "rules", Op: OpSet, Magnitude: 7.0},
		}},
	}

	table := Rebuild(rules)
	// Equal priorities keep registration order, so the later Set wins.
	if got := table.Value("cost", "rules"); !almostEqual(got, 7.0) {
		t.Fatalf("expected later registration to win with 7.0, got %f", got)
	}
}

func TestStackedCost(t *testing.T) {
	rules := []*Rule{
		{Name: "a", Contribution: 10},
		{Name: "b", Contribution: 10},
		{Name: "c", Contribution: 10},
	}

	// 10*1.2^0 + 10*1.2^1 + 10*1.2^2 = 10 + 12 + 14.4 = 36.4
	if got := StackedCost(rules, 1.2); !almostEqual(got, 36.4) {
		t.Fatalf("expected steady-state cost 36.4, got %f", got)
	}
}

func TestProjectedCost(t *testing.T) {
	rules := []*Rule{
		{Name: "a", Contribution: 10},
		{Name: "b", Contribution: 10},
	}

	// (10+10) * 1.2^2 + 10 = 28.8 + 10 = 38.8
	if got := ProjectedCost(rules, 1.2, 10); !almostEqual(got, 38.8) {
		t.Fatalf("expected projected cost 38.8, got %f", got)
	}
}

func TestProjectedCostExceedsStackedCost(t *testing.T) {
	rules := []*Rule{
		{Name: "a", Contribution: 10},
		{Name: "b", Contribution: 10},
	}

	withNew := append(append([]*Rule(nil), rules...), &Rule{Name: "c", Contribution: 10})
	projected := ProjectedCost(rules, 1.2, 10)
	steady := StackedCost(withNew, 1.2)
	if projected <= steady {
		t.Fatalf("projection %f should over-penalize steady state %f", projected, steady)
	}
}

func TestConflictPairsDefaultPredicate(t *testing.T) {
	rules := []*Rule{
		{Name: "echo"},
		{Name: "other"},
		{Name: "echo"},
	}

	pairs := ConflictPairs(rules, nil)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 conflict pair, got %d", len(pairs))
	}
	if pairs[0].First != "echo" || pairs[0].Second != "echo" {
		t.Fatalf("unexpected pair %+v", pairs[0])
	}
}

func TestConflictPairsCustomPredicate(t *testing.T) {
	rules := []*Rule{
		{Name: "a", Priority: 3},
		{Name: "b", Priority: 3},
		{Name: "c", Priority: 1},
	}

	samePriority := func(x, y *Rule) bool { return x.Priority == y.Priority }
	pairs := ConflictPairs(rules, samePriority)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 conflict pair, got %d", len(pairs))
	}
}
