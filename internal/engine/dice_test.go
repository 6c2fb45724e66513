package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpr(t *testing.T) {
	tests := []struct {
		expr string
		want Expr
		err  bool
	}{
		{expr: "3d6+2", want: Expr{Count: 3, Sides: 6, Op: "+", Mod: 2}},
		{expr: "d8", want: Expr{Count: 1, Sides: 8}},
		{expr: "2d6x3", want: Expr{Count: 2, Sides: 6, Op: "x", Mod: 3}},
		{expr: "4d10-1", want: Expr{Count: 4, Sides: 10, Op: "-", Mod: 1}},
		{expr: "7", want: Expr{Mod: 7, Flat: true}},
		{expr: "", want: Expr{Flat: true}},
		{expr: " 2 d 8 + 4 ", want: Expr{Count: 2, Sides: 8, Op: "+", Mod: 4}},
		{expr: "abc", err: true},
		{expr: "0d6", err: true},
		{expr: "2d0", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseExpr(tt.expr)
			if tt.err {
				require.ErrorIs(t, err, ErrBadExpr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExprEval(t *testing.T) {
	r := &FixedRoller{Values: []int{4, 5, 6}}
	e, err := ParseExpr("3d6+2")
	require.NoError(t, err)
	assert.Equal(t, 17, e.Eval(r))

	r = &FixedRoller{Values: []int{3, 3}}
	e, err = ParseExpr("2d6x3")
	require.NoError(t, err)
	assert.Equal(t, 18, e.Eval(r))

	r = &FixedRoller{Values: []int{1}}
	e, err = ParseExpr("1d4-6")
	require.NoError(t, err)
	assert.Equal(t, 0, e.Eval(r), "results never go below zero")
}

func TestExprMax(t *testing.T) {
	e, err := ParseExpr("2d8+4")
	require.NoError(t, err)
	assert.Equal(t, 20, e.Max())

	e, err = ParseExpr("42")
	require.NoError(t, err)
	assert.Equal(t, 42, e.Max())
}

func TestRollExprJunk(t *testing.T) {
	r := &FixedRoller{Values: []int{6}}
	assert.Equal(t, 0, RollExpr(r, "not dice"))
}

func TestSeededDeterminism(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Roll(20), b.Roll(20))
	}
}

func TestFixedRollerClamps(t *testing.T) {
	r := &FixedRoller{Values: []int{25, 0}}
	assert.Equal(t, 20, r.Roll(20), "values above sides clamp down")
	assert.Equal(t, 1, r.Roll(20), "values below one clamp up")
}

func TestCheck(t *testing.T) {
	r := &FixedRoller{Values: []int{15}}
	got := Check(r, 5)
	assert.Equal(t, CheckResult{Die: 15, Modifier: 5, Total: 20}, got)
}
