package costexpr

import "testing"

func TestEvaluateSteppedPricing(t *testing.T) {
	// 25% of base, rounded up to the next multiple of 5.
	const expression = "ceil(cost*0.25/5)*5"

	tests := []struct {
		baseCost int
		want     int
	}{
		{baseCost: 100, want: 25},
		{baseCost: 110, want: 30},
		{baseCost: 120, want: 30},
		{baseCost: 130, want: 35},
	}

	for _, tc := range tests {
		if got := Evaluate(expression, tc.baseCost); got != tc.want {
			t.Errorf("Evaluate(%q, %d) = %d, want %d", expression, tc.baseCost, got, tc.want)
		}
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		baseCost   int
		want       int
	}{
		{name: "identity", expression: "cost", baseCost: 40, want: 40},
		{name: "addition", expression: "cost + 10", baseCost: 50, want: 60},
		{name: "nested parens", expression: "(cost + 10) * 2", baseCost: 5, want: 30},
		{name: "bare arithmetic truncates", expression: "cost * 0.999", baseCost: 100, want: 99},
		{name: "truncation is toward zero", expression: "0 - cost * 0.999", baseCost: 100, want: -99},
		{name: "floor", expression: "floor(cost * 1.9)", baseCost: 10, want: 19},
		{name: "round half to even down", expression: "round(cost / 2)", baseCost: 5, want: 2},
		{name: "round half to even up", expression: "round(cost / 2)", baseCost: 7, want: 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.expression, tc.baseCost); got != tc.want {
				t.Errorf("Evaluate(%q, %d) = %d, want %d", tc.expression, tc.baseCost, got, tc.want)
			}
		})
	}
}

func TestEvaluateFallsBackToBaseCost(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{name: "empty", expression: ""},
		{name: "whitespace only", expression: "   "},
		{name: "unknown identifier", expression: "price * 2"},
		{name: "library access", expression: "math.floor(cost)"},
		{name: "function call outside whitelist", expression: "print(cost)"},
		{name: "keyword", expression: "while cost do end"},
		{name: "comma", expression: "round(cost, 2)"},
		{name: "string literal", expression: "cost .. 'x'"},
		{name: "syntax error", expression: "cost +"},
		{name: "division by zero", expression: "cost / 0"},
		{name: "bare function reference", expression: "round"},
		{name: "comparison", expression: "cost > 10"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.expression, 75); got != 75 {
				t.Errorf("Evaluate(%q, 75) = %d, want fallback 75", tc.expression, got)
			}
		})
	}
}

func TestEvaluateRejectsHugeResults(t *testing.T) {
	if got := Evaluate("cost * 1000000 * 1000000 * 1000000", 10); got != 10 {
		t.Errorf("Evaluate = %d, want fallback 10", got)
	}
}
