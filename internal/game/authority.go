package game

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/holotable/arena/internal/models"
)

// Persister receives the authority's field-level updates. The authority
// does not care how they are stored, only that the call returns before it
// touches in-memory state.
type Persister interface {
	UpdateFields(combatantID string, updates map[string]any) error
}

// Authority is the only component permitted to write combatant state.
// All phases propose changes through MutationPlans; Apply commits a plan
// as one logical unit and runs a single derived-state recalculation.
type Authority struct {
	persister Persister
	log       zerolog.Logger
}

// NewAuthority builds an authority. persister may be nil for in-memory play.
func NewAuthority(persister Persister, log zerolog.Logger) *Authority {
	return &Authority{persister: persister, log: log}
}

// Apply validates and commits a plan. Validation failures and persister
// rejections leave the combatant completely untouched.
func (a *Authority) Apply(plan *models.MutationPlan) error {
	return a.ApplyAll(plan)
}

// ApplyAll commits several plans as one logical unit. Every change in
// every plan is validated, then every plan is persisted, and only then
// does any in-memory write happen. A failure at any point leaves every
// combatant untouched, so a mutual collision can never land on one hull
// but not the other.
func (a *Authority) ApplyAll(plans ...*models.MutationPlan) error {
	live := make([]*models.MutationPlan, 0, len(plans))
	for _, p := range plans {
		if p == nil || p.Empty() {
			continue
		}
		live = append(live, p)
	}
	if len(live) == 0 {
		return nil
	}

	for _, p := range live {
		for _, ch := range p.Changes {
			if err := a.validate(p.Target, ch); err != nil {
				return err
			}
		}
	}

	if a.persister != nil {
		for _, p := range live {
			if err := a.persister.UpdateFields(p.Target.ID, p.DocumentUpdates()); err != nil {
				return fmt.Errorf("%w: %v", ErrPersist, err)
			}
		}
	}

	for _, p := range live {
		for _, ch := range p.Changes {
			a.write(p.Target, ch)
		}
		p.Target.Recalculate()

		a.log.Debug().
			Str("combatant", p.Target.ID).
			Int("changes", len(p.Changes)).
			Int("hp", p.Target.HP).
			Str("condition", p.Target.Condition.String()).
			Msg("mutation plan applied")
	}
	return nil
}

func (a *Authority) validate(target *models.Combatant, ch models.FieldChange) error {
	switch {
	case ch.Path == models.FieldDefense:
		return fmt.Errorf("%w: %s", ErrDerivedField, ch.Path)
	case ch.Path == models.FieldHP,
		ch.Path == models.FieldBonusHP,
		ch.Path == models.FieldTempHP,
		ch.Path == models.FieldCondition,
		ch.Path == models.FieldDestroyed:
		return nil
	case strings.HasPrefix(ch.Path, "zones."):
		if target.Zone(strings.TrimPrefix(ch.Path, "zones.")) == nil {
			return fmt.Errorf("%w: %s", ErrUnknownZone, ch.Path)
		}
		return nil
	case strings.HasPrefix(ch.Path, "subsystems."):
		if target.Subsystem(strings.TrimPrefix(ch.Path, "subsystems.")) == nil {
			return fmt.Errorf("%w: %s", ErrUnknownSubsystem, ch.Path)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, ch.Path)
	}
}

func (a *Authority) write(target *models.Combatant, ch models.FieldChange) {
	switch {
	case ch.Path == models.FieldHP:
		target.HP = ch.To.(int)
	case ch.Path == models.FieldBonusHP:
		target.BonusHP = ch.To.(int)
	case ch.Path == models.FieldTempHP:
		target.TempHP = ch.To.(int)
	case ch.Path == models.FieldCondition:
		target.Condition = ch.To.(models.ConditionStep)
	case ch.Path == models.FieldDestroyed:
		target.Destroyed = ch.To.(bool)
	case strings.HasPrefix(ch.Path, "zones."):
		if z := target.Zone(strings.TrimPrefix(ch.Path, "zones.")); z != nil {
			z.Current = ch.To.(int)
		}
	case strings.HasPrefix(ch.Path, "subsystems."):
		if s := target.Subsystem(strings.TrimPrefix(ch.Path, "subsystems.")); s != nil {
			s.Status = ch.To.(models.SubsystemStatus)
		}
	}
}
