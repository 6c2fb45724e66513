package game

import (
	"github.com/holotable/arena/internal/engine"
	"github.com/holotable/arena/internal/models"
)

// escalation reports which subsystem an escalation touched, if any.
type escalation struct {
	name string
	to   models.SubsystemStatus
	noop bool
}

// escalateSubsystem picks one not-yet-destroyed subsystem by weighted
// random selection and downgrades it a step. Weights come from the
// subsystem declaration (minimum 1); ties and the roll-to-bucket mapping
// resolve in declared order, so a pinned roller gives a deterministic
// pick. When every subsystem is already destroyed the result is a
// reported no-op, not an error.
func escalateSubsystem(r engine.Roller, plan *models.MutationPlan, vehicle *models.Combatant) escalation {
	total := 0
	for _, s := range vehicle.Subsystems {
		if s.Status == models.SubsystemDestroyed {
			continue
		}
		w := s.Weight
		if w < 1 {
			w = 1
		}
		total += w
	}
	if total == 0 {
		return escalation{noop: true}
	}

	pick := r.Roll(total)
	acc := 0
	for _, s := range vehicle.Subsystems {
		if s.Status == models.SubsystemDestroyed {
			continue
		}
		w := s.Weight
		if w < 1 {
			w = 1
		}
		acc += w
		if pick <= acc {
			next := s.Status.Downgrade()
			plan.SetSubsystem(s.Name, next)
			return escalation{name: s.Name, to: next}
		}
	}
	// Unreachable while total matches the accumulated weights.
	return escalation{noop: true}
}
