package tool

import (
	"context"
	"testing"
)

func TestCalculate(t *testing.T) {
	m := NewCalcToolManager()

	tests := []struct {
		expression string
		want       string
	}{
		{"1 + 2", "3"},
		// Division is always floating-point, even between integers
		{"(1024 * 3) / 7", "438.85714285714283"},
		{"(1024 * 4) / 8", "512"},
		{"2 ** 10", "1024"},
		{"max(3, 9)", "9"},
		{"10 > 3", "true"},
	}
	for _, tt := range tests {
		result, err := m.CallTool(context.Background(), "Calculate", map[string]any{"expression": tt.expression})
		if err != nil {
			t.Fatalf("CallTool(%q) returned error: %v", tt.expression, err)
		}
		if result.IsError() {
			t.Errorf("Calculate(%q) failed: %s", tt.expression, result.Error)
			continue
		}
		if result.Text != tt.want {
			t.Errorf("Calculate(%q) = %q, want %q", tt.expression, result.Text, tt.want)
		}
	}
}

func TestCalculateInvalidExpression(t *testing.T) {
	m := NewCalcToolManager()

	result, err := m.CallTool(context.Background(), "Calculate", map[string]any{"expression": "1 +* 2"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected malformed expression to produce an error result")
	}
}

func TestCalculateMissingExpression(t *testing.T) {
	m := NewCalcToolManager()

	result, err := m.CallTool(context.Background(), "Calculate", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected missing expression to produce an error result")
	}
}
