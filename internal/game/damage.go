package game

import "github.com/holotable/arena/internal/models"

// damageOutcome reports what a single application did.
type damageOutcome struct {
	fromBonus int
	fromTemp  int
	fromHP    int
	finalHP   int
	destroyed bool
}

// applyDamage is the sole path from a damage amount to proposed hit-point
// changes. Bonus hit points are spent first, then temporary ones, then real
// hit points, which clamp at the combatant's kind-appropriate floor.
// Droids and vehicles that take a threshold-meeting hit while already at
// zero are wrecked outright instead of sliding down the negative band.
func applyDamage(plan *models.MutationPlan, target *models.Combatant, amount int) damageOutcome {
	out := damageOutcome{finalHP: target.HP}
	if amount <= 0 {
		return out
	}
	remaining := amount

	if target.BonusHP > 0 {
		out.fromBonus = min(target.BonusHP, remaining)
		plan.SetBonusHP(target.BonusHP - out.fromBonus)
		remaining -= out.fromBonus
	}
	if remaining > 0 && target.TempHP > 0 {
		out.fromTemp = min(target.TempHP, remaining)
		plan.SetTempHP(target.TempHP - out.fromTemp)
		remaining -= out.fromTemp
	}
	if remaining == 0 {
		return out
	}

	floor := target.Floor()
	newHP := target.HP - remaining
	if newHP < floor {
		newHP = floor
	}

	if target.Kind.Destructible() {
		breached := target.HP <= 0 && amount >= target.Threshold && target.Threshold > 0
		if breached || newHP <= floor {
			plan.SetHP(floor)
			plan.SetDestroyed()
			out.fromHP = target.HP - floor
			out.finalHP = floor
			out.destroyed = true
			return out
		}
	}

	plan.SetHP(newHP)
	out.fromHP = target.HP - newHP
	out.finalHP = newHP
	return out
}
