package modifier

import "sort"

// Key identifies one accumulated modifier entry.
type Key struct {
	Effect string
	Target string
}

// Table maps (effect, target) to the accumulated multiplier/offset.
// Entries start at the multiplicative identity 1.0.
type Table map[Key]float64

// Value returns the accumulated modifier, or 1.0 when no rule touches
// the entry.
func (t Table) Value(effect, target string) float64 {
	if v, ok := t[Key{Effect: effect, Target: target}]; ok {
		return v
	}
	return 1.0
}

// Rebuild computes the table from scratch for the given active set.
// Rules apply in ascending priority order (stable for equal priorities,
// preserving registration order), so a later Set or Invert wins while
// Multiply and Add accumulate across all rules.
func Rebuild(rules []*Rule) Table {
	ordered := make([]*Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	table := make(Table)
	for _, rule := range ordered {
		for _, eff := range rule.Effects {
			key := Key{Effect: eff.Name, Target: eff.Target}
			current, ok := table[key]
			if !ok {
				current = 1.0
			}
			switch eff.Op {
			case OpMultiply:
				current *= eff.Magnitude
			case OpAdd:
				current += eff.Magnitude
			case OpSet:
				current = eff.Magnitude
			case OpInvert:
				current = -current
			}
			table[key] = current
		}
	}
	return table
}
