package engine

import (
	"errors"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrBadExpr indicates a dice expression that does not parse.
var ErrBadExpr = errors.New("invalid dice expression")

// Roller is the single source of randomness for combat resolution.
// Implementations must return a value in [1, sides].
type Roller interface {
	Roll(sides int) int
}

// seededRoller wraps math/rand behind the Roller seam.
type seededRoller struct {
	rng *rand.Rand
}

func (s *seededRoller) Roll(sides int) int {
	return 1 + s.rng.Intn(sides)
}

// NewSeeded returns a deterministic Roller. Same seed, same rolls.
func NewSeeded(seed int64) Roller {
	return &seededRoller{rng: rand.New(rand.NewSource(seed))}
}

// NewRandom returns a time-seeded Roller for live play.
func NewRandom() Roller {
	return NewSeeded(time.Now().UnixNano())
}

// FixedRoller replays a scripted sequence of die results, cycling when
// exhausted. Tests use it to pin every roll in a resolution.
type FixedRoller struct {
	Values []int
	next   int
}

func (f *FixedRoller) Roll(sides int) int {
	if len(f.Values) == 0 {
		return 1
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	if v > sides {
		v = sides
	}
	if v < 1 {
		v = 1
	}
	return v
}

var diceRe = regexp.MustCompile(`(?i)^\s*(\d+)?\s*d\s*(\d+)(\s*([+\-x*])\s*(\d+))?\s*$`)

// Expr is a parsed dice expression: N, NdM, NdM+K, NdM-K, NdMxK.
type Expr struct {
	Count int
	Sides int
	Op    string
	Mod   int
	Flat  bool // expression was a plain integer
}

// ParseExpr parses a dice expression. Empty input parses as a flat zero.
func ParseExpr(expr string) (Expr, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Expr{Flat: true}, nil
	}
	if n, err := strconv.Atoi(expr); err == nil {
		return Expr{Mod: n, Flat: true}, nil
	}
	m := diceRe.FindStringSubmatch(expr)
	if m == nil {
		return Expr{}, ErrBadExpr
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, _ := strconv.Atoi(m[2])
	if sides < 1 || count < 1 {
		return Expr{}, ErrBadExpr
	}
	e := Expr{Count: count, Sides: sides}
	if m[3] != "" {
		e.Op = m[4]
		e.Mod, _ = strconv.Atoi(m[5])
	}
	return e, nil
}

// Max returns the best possible result of the expression.
func (e Expr) Max() int {
	if e.Flat {
		return e.Mod
	}
	total := e.Count * e.Sides
	switch e.Op {
	case "+":
		total += e.Mod
	case "-":
		total -= e.Mod
	case "x", "*":
		total *= e.Mod
	}
	if total < 0 {
		total = 0
	}
	return total
}

// Eval rolls the expression with r. Results never go below zero.
func (e Expr) Eval(r Roller) int {
	if e.Flat {
		return e.Mod
	}
	total := 0
	for i := 0; i < e.Count; i++ {
		total += r.Roll(e.Sides)
	}
	switch e.Op {
	case "+":
		total += e.Mod
	case "-":
		total -= e.Mod
	case "x", "*":
		total *= e.Mod
	}
	if total < 0 {
		total = 0
	}
	return total
}

// RollExpr parses and evaluates expr in one step. Malformed expressions
// evaluate to zero, matching how weapon data with junk fields behaves.
func RollExpr(r Roller, expr string) int {
	e, err := ParseExpr(expr)
	if err != nil {
		return 0
	}
	return e.Eval(r)
}

// CheckResult is the breakdown of a single d20 check.
type CheckResult struct {
	Die      int `json:"die"`
	Modifier int `json:"modifier"`
	Total    int `json:"total"`
}

// Check rolls d20 + modifier, the basic attack and skill roll.
func Check(r Roller, modifier int) CheckResult {
	die := r.Roll(20)
	return CheckResult{Die: die, Modifier: modifier, Total: die + modifier}
}
