package modifier

import "fmt"

// Op describes how an effect tuple combines into the modifier table.
type Op int

const (
	OpMultiply Op = iota
	OpAdd
	OpSet
	OpInvert
)

var opNames = map[Op]string{
	OpMultiply: "MULTIPLY",
	OpAdd:      "ADD",
	OpSet:      "SET",
	OpInvert:   "INVERT",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", int(o))
}

// Effect is a single (effect, target, operation, magnitude) tuple carried
// by a rule. Tuples apply in the order they are listed on the rule.
type Effect struct {
	Name      string
	Target    string
	Op        Op
	Magnitude float64
}

// Rule is a registered global modifier. Higher priority applies later,
// so a higher-priority Set or Invert wins over a lower-priority one.
type Rule struct {
	Name         string
	Priority     int
	Contribution float64
	Effects      []Effect
}

// Clone returns an independent copy of the rule.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	cpy := &Rule{
		Name:         r.Name,
		Priority:     r.Priority,
		Contribution: r.Contribution,
		Effects:      append([]Effect(nil), r.Effects...),
	}
	return cpy
}

// ConflictPredicate reports whether two rules cannot coexist.
type ConflictPredicate func(a, b *Rule) bool

// DefaultConflict treats rules with identical names as conflicting.
func DefaultConflict(a, b *Rule) bool {
	return a != nil && b != nil && a.Name == b.Name
}

// ConflictPair records one detected pairwise conflict.
type ConflictPair struct {
	First  string
	Second string
}

// ConflictPairs runs the predicate over every pair of active rules and
// returns the conflicting pairs in scan order.
func ConflictPairs(rules []*Rule, predicate ConflictPredicate) []ConflictPair {
	if predicate == nil {
		predicate = DefaultConflict
	}
	var pairs []ConflictPair
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if predicate(rules[i], rules[j]) {
				pairs = append(pairs, ConflictPair{First: rules[i].Name, Second: rules[j].Name})
			}
		}
	}
	return pairs
}
