package game

import "github.com/holotable/arena/internal/models"

// evaluateThreshold checks one damage application against the combatant's
// damage threshold and, when met or exceeded, proposes exactly one step
// down the condition track. A combatant with no threshold never advances.
func evaluateThreshold(plan *models.MutationPlan, target *models.Combatant, applied int) bool {
	if target.Threshold <= 0 || applied < target.Threshold {
		return false
	}
	plan.SetCondition(target.Condition.Worsen())
	return true
}
