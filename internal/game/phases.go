package game

import "fmt"

// outcome is a phase's control-flow verdict.
type outcome int

const (
	phaseContinue outcome = iota
	// phaseStop ends the sequence early with a normal result
	// (miss, blocked action). Accumulated plans are dropped unapplied.
	phaseStop
	// phaseSkip means the phase's gate condition did not hold; it is
	// not recorded in the executed-phase audit trail.
	phaseSkip
)

type phaseFunc func(*run) (outcome, error)

type phaseStep struct {
	name Phase
	fn   phaseFunc
}

// phaseTables holds the fixed per-mode sequences. Ordering is data, not
// convention: buildTables validates every structural rule once, at package
// init, and panics on violation so a bad table can never ship.
var phaseTables map[Mode][]phaseStep

func init() {
	phaseTables = buildTables()
	if err := validateTables(phaseTables); err != nil {
		panic(err)
	}
}

func buildTables() map[Mode][]phaseStep {
	return map[Mode][]phaseStep{
		ModeCharacterAttack: {
			{PhaseRoll, phaseRoll},
			{PhaseModifiers, phaseModifiers},
			{PhaseHitCheck, phaseHitCheck},
			{PhaseDamageRoll, phaseDamageRoll},
			{PhaseDamageApply, phaseDamageApply},
			{PhaseThresholdCheck, phaseThresholdCheck},
			{PhaseDisplay, phaseDisplay},
		},
		ModeVehicleAttack: {
			{PhaseSubsystemCheck, phaseSubsystemCheck},
			{PhaseRoll, phaseRoll},
			{PhaseModifiers, phaseModifiers},
			{PhaseHitCheck, phaseHitCheck},
			{PhaseDamageRoll, phaseDamageRoll},
			{PhaseShieldAbsorb, phaseShieldAbsorb},
			{PhaseDamageApply, phaseDamageApply},
			{PhaseThresholdCheck, phaseThresholdCheck},
			{PhaseEscalate, phaseEscalate},
			{PhaseDisplay, phaseDisplay},
		},
		ModeDogfight: {
			{PhaseRangeCheck, phaseRangeCheck},
			{PhaseOpposedRoll, phaseOpposedRoll},
			{PhaseManeuverEffect, phaseManeuverEffect},
			{PhaseDisplay, phaseDisplay},
		},
		ModeCollision: {
			{PhaseCollisionDamage, phaseCollisionDamage},
			{PhaseNotifyCollision, phaseNotifyCollision},
			{PhaseShieldAbsorb, phaseShieldAbsorb},
			{PhaseDamageApply, phaseDamageApply},
			{PhaseThresholdCheck, phaseThresholdCheck},
			{PhaseEscalate, phaseEscalate},
			{PhaseDisplay, phaseDisplay},
		},
	}
}

// validateTables enforces the structural ordering rules:
// shields before damage, damage before threshold, threshold before
// escalation, every table ends in display, and the dogfight table contains
// no damage or threshold phase at all.
func validateTables(tables map[Mode][]phaseStep) error {
	for mode, steps := range tables {
		if len(steps) == 0 {
			return fmt.Errorf("mode %s: empty phase table", mode)
		}
		if steps[len(steps)-1].name != PhaseDisplay {
			return fmt.Errorf("mode %s: final phase must be display", mode)
		}
		idx := make(map[Phase]int, len(steps))
		for i, s := range steps {
			if _, dup := idx[s.name]; dup {
				return fmt.Errorf("mode %s: duplicate phase %s", mode, s.name)
			}
			idx[s.name] = i
		}
		mustPrecede := [][2]Phase{
			{PhaseShieldAbsorb, PhaseDamageApply},
			{PhaseDamageApply, PhaseThresholdCheck},
			{PhaseThresholdCheck, PhaseEscalate},
			{PhaseHitCheck, PhaseDamageRoll},
			{PhaseRoll, PhaseHitCheck},
		}
		for _, pair := range mustPrecede {
			a, aok := idx[pair[0]]
			b, bok := idx[pair[1]]
			if aok && bok && a >= b {
				return fmt.Errorf("mode %s: %s must precede %s", mode, pair[0], pair[1])
			}
		}
		// Damage application needs a gate: a hit check, or for
		// collisions the damage computation itself.
		if _, ok := idx[PhaseDamageApply]; ok {
			_, hit := idx[PhaseHitCheck]
			_, col := idx[PhaseCollisionDamage]
			if !hit && !col {
				return fmt.Errorf("mode %s: damage apply without a gating phase", mode)
			}
		}
		if mode == ModeDogfight {
			for _, banned := range []Phase{PhaseDamageRoll, PhaseShieldAbsorb, PhaseDamageApply, PhaseThresholdCheck, PhaseEscalate} {
				if _, ok := idx[banned]; ok {
					return fmt.Errorf("dogfight table must not contain %s", banned)
				}
			}
		}
	}
	return nil
}
