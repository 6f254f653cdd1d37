package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plcscope/plcscope/internal/core/model"
)

func TestCompareValueEquality(t *testing.T) {
	assert.True(t, compareValue(model.BoolValue(true), "==", true))
	assert.False(t, compareValue(model.BoolValue(false), "==", true))
	assert.True(t, compareValue(model.IntValue(42), "==", 42))
	assert.True(t, compareValue(model.StringValue("SET"), "==", "SET"))
	assert.True(t, compareValue(model.StringValue("SET"), "!=", "CLEAR"))

	// Mismatched types compare false instead of erroring.
	assert.False(t, compareValue(model.BoolValue(true), "==", "true"))
	assert.False(t, compareValue(model.IntValue(1), "==", true))
}

func TestCompareValueOrdering(t *testing.T) {
	assert.True(t, compareValue(model.IntValue(5), ">", 3))
	assert.False(t, compareValue(model.IntValue(3), ">", 5))
	assert.True(t, compareValue(model.IntValue(5), ">=", 5))
	assert.True(t, compareValue(model.IntValue(2), "<", 3))
	assert.True(t, compareValue(model.IntValue(3), "<=", 3))
	assert.True(t, compareValue(model.IntValue(5), ">", 4.5), "float thresholds work against integer signals")

	assert.True(t, compareValue(model.StringValue("b"), ">", "a"))
	assert.False(t, compareValue(model.StringValue("a"), ">", "b"))

	// Booleans have no ordering.
	assert.False(t, compareValue(model.BoolValue(true), ">", false))
}

func TestCompareValueMembership(t *testing.T) {
	states := []any{"MOVING", "STOPPED"}
	assert.True(t, compareValue(model.StringValue("MOVING"), "in", states))
	assert.False(t, compareValue(model.StringValue("FAULT"), "in", states))
	assert.True(t, compareValue(model.StringValue("FAULT"), "not in", states))

	codes := []any{1, 2, 3}
	assert.True(t, compareValue(model.IntValue(2), "in", codes))
	assert.False(t, compareValue(model.IntValue(9), "in", codes))

	// A string expectation means substring membership.
	assert.True(t, compareValue(model.StringValue("OVE"), "in", "MOVE"))
	assert.False(t, compareValue(model.StringValue("XYZ"), "in", "MOVE"))
}

func TestCompareValueUnknownOperator(t *testing.T) {
	assert.False(t, compareValue(model.IntValue(1), "~=", 1))
}
