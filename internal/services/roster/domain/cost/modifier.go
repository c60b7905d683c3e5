package cost

import "github.com/louisbranch/gangledger/internal/services/roster/domain/costexpr"

// Modifier adjusts a cost value. Component pricing composes modifiers as an
// ordered list, later modifiers seeing the output of earlier ones.
type Modifier interface {
	Apply(value int) int
}

// Override replaces the incoming value outright.
type Override int

// Apply implements Modifier.
func (o Override) Apply(int) int { return int(o) }

// Expression prices the incoming value through a cost expression, binding
// it as the expression's cost variable. Bad expressions leave the value
// unchanged.
type Expression string

// Apply implements Modifier.
func (e Expression) Apply(value int) int {
	return costexpr.Evaluate(string(e), value)
}

// Apply runs the modifiers over value in order.
func Apply(value int, modifiers ...Modifier) int {
	for _, m := range modifiers {
		value = m.Apply(value)
	}
	return value
}
