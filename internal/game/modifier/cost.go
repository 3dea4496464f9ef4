package modifier

import "math"

// StackedCost computes the steady-state total cost of the active set:
// each rule's contribution is multiplied by penalty^position, where the
// earliest-registered rule sits at position 0.
func StackedCost(rules []*Rule, penalty float64) float64 {
	total := 0.0
	for i, rule := range rules {
		total += rule.Contribution * math.Pow(penalty, float64(i))
	}
	return total
}

// ProjectedCost computes the registration-time projection for adding a
// new contribution on top of the active set. The whole existing sum is
// penalized by penalty^activeCount, which deliberately over-penalizes
// compared to StackedCost so registration is stricter than steady state.
func ProjectedCost(rules []*Rule, penalty, contribution float64) float64 {
	sum := 0.0
	for _, rule := range rules {
		sum += rule.Contribution
	}
	return sum*math.Pow(penalty, float64(len(rules))) + contribution
}
