package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chronoweave/chrono-core-go/internal/game/modifier"
)

// RuleRegistry manages the bounded set of active global rules held in
// the game state: capacity limits, pairwise conflict detection and the
// stacking-penalized cost metric gating new registrations.
type RuleRegistry struct {
	logger    *zap.Logger
	maxActive int
	penalty   float64
	threshold float64
	predicate modifier.ConflictPredicate

	table     modifier.Table
	conflicts []modifier.ConflictPair
}

// NewRuleRegistry constructs a registry with the default identity-name
// conflict predicate.
func NewRuleRegistry(logger *zap.Logger, maxActive int, penalty, threshold float64) *RuleRegistry {
	return &RuleRegistry{
		logger:    logger,
		maxActive: maxActive,
		penalty:   penalty,
		threshold: threshold,
		predicate: modifier.DefaultConflict,
		table:     make(modifier.Table),
	}
}

// SetConflictPredicate replaces the pairwise conflict predicate.
func (rr *RuleRegistry) SetConflictPredicate(predicate modifier.ConflictPredicate) {
	if predicate != nil {
		rr.predicate = predicate
	}
}

// Register validates and appends the rule to the active set.
//
// Rejections are checked before any mutation: capacity first, then a
// direct conflict against each active rule, then the projected cost.
// The projection penalizes the whole existing sum by penalty^activeCount
// on purpose, making registration stricter than the steady-state total.
// On success the modifier table and conflict set are rebuilt and the
// rule's contribution is added to the entropy meter (never reversed).
func (rr *RuleRegistry) Register(state *GameState, rule *modifier.Rule) error {
	if len(state.ActiveRules) >= rr.maxActive {
		return fmt.Errorf("%w: %d active rules", ErrCapacityExceeded, len(state.ActiveRules))
	}

	for _, active := range state.ActiveRules {
		if rr.predicate(rule, active) {
			return fmt.Errorf("%w: conflicts with %q", ErrWouldDestabilize, active.Name)
		}
	}

	projected := modifier.ProjectedCost(state.ActiveRules, rr.penalty, rule.Contribution)
	if projected > rr.threshold {
		return fmt.Errorf("%w: projected cost %.2f exceeds threshold %.2f",
			ErrWouldDestabilize, projected, rr.threshold)
	}

	state.ActiveRules = append(state.ActiveRules, rule)
	rr.rebuild(state)
	state.EntropyMeter += rule.Contribution

	if rr.logger != nil {
		rr.logger.Info("registered rule",
			zap.String("rule", rule.Name),
			zap.Int("priority", rule.Priority),
			zap.Float64("projected_cost", projected),
			zap.Int("active", len(state.ActiveRules)),
		)
	}
	return nil
}

// Remove drops the named rule if present and rebuilds the derived
// tables. The entropy contribution stays on the meter; cost accounting
// is one-directional.
func (rr *RuleRegistry) Remove(state *GameState, name string) bool {
	for i, rule := range state.ActiveRules {
		if rule.Name == name {
			state.ActiveRules = append(state.ActiveRules[:i], state.ActiveRules[i+1:]...)
			rr.rebuild(state)
			if rr.logger != nil {
				rr.logger.Info("removed rule",
					zap.String("rule", name),
					zap.Int("active", len(state.ActiveRules)),
				)
			}
			return true
		}
	}
	return false
}

// rebuild recomputes the modifier table and the full pairwise conflict
// set. The conflict scan is O(active²) and runs after every change to
// the active set, never incrementally.
func (rr *RuleRegistry) rebuild(state *GameState) {
	rr.table = modifier.Rebuild(state.ActiveRules)
	rr.conflicts = modifier.ConflictPairs(state.ActiveRules, rr.predicate)
}

// Rebuild recomputes derived tables from the current active set, used
// after a rewind replaces the state wholesale.
func (rr *RuleRegistry) Rebuild(state *GameState) {
	rr.rebuild(state)
}

// Modifier returns the accumulated modifier for an (effect, target)
// pair, defaulting to the multiplicative identity.
func (rr *RuleRegistry) Modifier(effect, target string) float64 {
	return rr.table.Value(effect, target)
}

// Conflicts returns the detected pairwise conflicts.
func (rr *RuleRegistry) Conflicts() []modifier.ConflictPair {
	return rr.conflicts
}

// TotalCost computes the steady-state stacked cost of the active set.
// Distinct from the registration-time projection.
func (rr *RuleRegistry) TotalCost(state *GameState) float64 {
	return modifier.StackedCost(state.ActiveRules, rr.penalty)
}

// Stable reports whether the conflict set is empty and the steady-state
// total cost is within the threshold.
func (rr *RuleRegistry) Stable(state *GameState) bool {
	return len(rr.conflicts) == 0 && rr.TotalCost(state) <= rr.threshold
}
