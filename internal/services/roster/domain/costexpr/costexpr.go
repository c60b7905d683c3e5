// Package costexpr evaluates catalog cost expressions in a Lua sandbox.
//
// Accessories can price themselves relative to their equipment's base cost
// with a small arithmetic expression, e.g. `ceil(cost*0.25/5)*5`. The
// evaluator binds exactly one variable and three rounding functions;
// anything else falls back to the base cost instead of failing the caller.
package costexpr

import (
	"math"
	"strings"

	lua "github.com/Shopify/go-lua"
)

// maxResult keeps results inside the range where float64 holds exact
// integers, so the int conversion below is well defined.
const maxResult = float64(1 << 53)

// Evaluate runs one arithmetic expression with the variable `cost` bound to
// baseCost and returns the integer result. The grammar allows numbers, the
// operators + - * /, parentheses, and the functions round (half to even),
// ceil, and floor. Any parse or evaluation failure, a non-numeric result,
// NaN or Inf, or an empty expression returns baseCost unchanged. Bare
// arithmetic truncates toward zero; the rounding functions are the only way
// to round.
func Evaluate(expression string, baseCost int) int {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return baseCost
	}
	if !wellFormed(expression) {
		return baseCost
	}

	state := lua.NewState()
	bind(state, baseCost)

	if err := lua.LoadString(state, "return ("+expression+")"); err != nil {
		return baseCost
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return baseCost
	}
	if state.TypeOf(-1) != lua.TypeNumber {
		return baseCost
	}
	value, ok := state.ToNumber(-1)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return baseCost
	}
	if value >= maxResult || value <= -maxResult {
		return baseCost
	}
	return int(value)
}

// bind registers the single variable and the three whitelisted functions.
// No standard libraries are opened, so nothing else resolves.
func bind(state *lua.State, baseCost int) {
	state.PushNumber(float64(baseCost))
	state.SetGlobal("cost")

	register(state, "round", math.RoundToEven)
	register(state, "ceil", math.Ceil)
	register(state, "floor", math.Floor)
}

func register(state *lua.State, name string, fn func(float64) float64) {
	state.PushGoFunction(func(s *lua.State) int {
		value := lua.CheckNumber(s, 1)
		s.PushNumber(fn(value))
		return 1
	})
	state.SetGlobal(name)
}

// wellFormed rejects any token outside the expression grammar before the
// source reaches the Lua compiler. Identifiers other than the bound
// variable and the rounding functions never compile, keywords included.
func wellFormed(expression string) bool {
	for i := 0; i < len(expression); {
		c := expression[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			for i < len(expression) && (expression[i] >= '0' && expression[i] <= '9' || expression[i] == '.') {
				i++
			}
		case isIdentByte(c):
			start := i
			for i < len(expression) && isIdentByte(expression[i]) {
				i++
			}
			switch expression[start:i] {
			case "cost", "round", "ceil", "floor":
			default:
				return false
			}
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')':
			i++
		default:
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
