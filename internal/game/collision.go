package game

import (
	"github.com/holotable/arena/internal/engine"
	"github.com/holotable/arena/internal/models"
)

// CollisionFormula computes the damage one participant deals to the other
// in a collision. The numeric model is pluggable so the constants can be
// tuned against the authoritative ruleset without touching the pipeline.
type CollisionFormula interface {
	Damage(r engine.Roller, striker, struck *models.Combatant, strikerSpeed int) int
}

// Ramming constants for the default formula.
const (
	collisionDieSides     = 6
	collisionSpeedDivisor = 4 // one damage multiplier step per 4 squares of speed
)

// rammingFormula is the default: the striker rolls one d6 per size class
// and the total scales with its closing speed. Always at least one die,
// so a collision is never free.
type rammingFormula struct{}

// DefaultCollisionFormula returns the built-in ramming model.
func DefaultCollisionFormula() CollisionFormula {
	return rammingFormula{}
}

func (rammingFormula) Damage(r engine.Roller, striker, _ *models.Combatant, strikerSpeed int) int {
	dice := striker.SizeClass
	if dice < 1 {
		dice = 1
	}
	total := 0
	for i := 0; i < dice; i++ {
		total += r.Roll(collisionDieSides)
	}
	factor := 1 + strikerSpeed/collisionSpeedDivisor
	return total * factor
}
