package game

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/holotable/arena/internal/engine"
	"github.com/holotable/arena/internal/models"
)

// maxDogfightRange is the furthest range band at which fighters can
// engage each other in a piloting duel.
const maxDogfightRange = 1

// Resolver sequences attack, dogfight and collision resolution through
// the fixed phase tables and funnels every state change through its
// mutation authority.
type Resolver struct {
	roller    engine.Roller
	authority *Authority
	formula   CollisionFormula
	observers []Observer
	log       zerolog.Logger
}

// NewResolver builds a resolver. persister may be nil for purely
// in-memory play.
func NewResolver(roller engine.Roller, persister Persister) *Resolver {
	log := zerolog.Nop()
	return &Resolver{
		roller:    roller,
		authority: NewAuthority(persister, log),
		formula:   DefaultCollisionFormula(),
		log:       log,
	}
}

// WithLogger attaches a logger to the resolver and its authority.
func (rs *Resolver) WithLogger(log zerolog.Logger) *Resolver {
	rs.log = log
	rs.authority.log = log
	return rs
}

// WithObservers registers extension callbacks for the defined checkpoints.
func (rs *Resolver) WithObservers(obs ...Observer) *Resolver {
	rs.observers = append(rs.observers, obs...)
	return rs
}

// WithCollisionFormula swaps the collision damage model.
func (rs *Resolver) WithCollisionFormula(f CollisionFormula) *Resolver {
	rs.formula = f
	return rs
}

// run carries the working state of one resolve call between phases.
type run struct {
	res    *Resolver
	ctx    *models.AttackContext
	result *ResolutionResult

	targetPlan   *models.MutationPlan
	attackerPlan *models.MutationPlan

	packet         *models.DamagePacket
	attackerPacket *models.DamagePacket

	attackerExceeded bool
}

func (r *run) logf(format string, args ...any) {
	r.result.Logs = append(r.result.Logs, fmt.Sprintf(format, args...))
}

// Resolve runs one combat action through its mode's phase sequence.
// Configuration problems return an error with no result and no mutation.
// Misses and blocked actions are normal results. Mid-pipeline failures
// return a failed result with every accumulated change discarded.
func (rs *Resolver) Resolve(mode Mode, ctx *models.AttackContext) (*ResolutionResult, error) {
	steps, ok := phaseTables[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err := validateContext(mode, ctx); err != nil {
		return nil, err
	}

	r := &run{
		res:          rs,
		ctx:          ctx,
		result:       &ResolutionResult{Mode: mode},
		targetPlan:   models.NewPlan(ctx.Target),
		attackerPlan: models.NewPlan(ctx.Attacker),
	}
	r.notify(CheckpointPreResolution)

	stopped := false
	for _, step := range steps {
		out, err := step.fn(r)
		if err != nil {
			r.result.Phases = append(r.result.Phases, step.name)
			return rs.fail(r, err)
		}
		if out != phaseSkip {
			r.result.Phases = append(r.result.Phases, step.name)
		}
		if out == phaseStop {
			stopped = true
			break
		}
		rs.log.Debug().Str("mode", string(mode)).Str("phase", string(step.name)).Msg("phase complete")
	}

	// Commit point: both combatants' plans land as one unit, or not at
	// all. An early stop drops whatever was proposed.
	if !stopped {
		if err := rs.authority.ApplyAll(r.targetPlan, r.attackerPlan); err != nil {
			return rs.fail(r, err)
		}
	}

	r.result.Attacker = ctx.Attacker.Snap()
	r.result.Target = ctx.Target.Snap()
	return r.result, nil
}

func (rs *Resolver) fail(r *run, err error) (*ResolutionResult, error) {
	r.result.Failed = true
	r.result.Error = err.Error()
	r.result.Attacker = r.ctx.Attacker.Snap()
	r.result.Target = r.ctx.Target.Snap()
	rs.log.Error().Err(err).Str("mode", string(r.result.Mode)).Msg("resolution failed")
	return r.result, err
}

// validateContext fails fast on combatant/mode mismatches, before any
// phase runs.
func validateContext(mode Mode, ctx *models.AttackContext) error {
	if ctx == nil || ctx.Attacker == nil || ctx.Target == nil {
		return ErrNilCombatant
	}
	switch mode {
	case ModeCharacterAttack:
		if ctx.Weapon == nil {
			return ErrMissingWeapon
		}
		if ctx.Attacker.Kind == models.KindVehicle {
			return fmt.Errorf("%w: %s cannot make a character attack", ErrIncompatibleCombatants, ctx.Attacker.Kind)
		}
		if ctx.Weapon.Class == models.WeaponVehicle {
			return fmt.Errorf("%w: vehicle weapon in a character attack", ErrIncompatibleCombatants)
		}
	case ModeVehicleAttack:
		if ctx.Weapon == nil {
			return ErrMissingWeapon
		}
		if ctx.Attacker.Kind != models.KindVehicle {
			return fmt.Errorf("%w: vehicle attack by %s", ErrIncompatibleCombatants, ctx.Attacker.Kind)
		}
	case ModeDogfight:
		if ctx.Attacker.Kind != models.KindVehicle || ctx.Target.Kind != models.KindVehicle {
			return fmt.Errorf("%w: dogfight requires two vehicles", ErrIncompatibleCombatants)
		}
		if ctx.Attacker.Pilot == "" || ctx.Target.Pilot == "" {
			return fmt.Errorf("%w: dogfight requires assigned pilots", ErrIncompatibleCombatants)
		}
	case ModeCollision:
		if ctx.Attacker.Kind != models.KindVehicle || ctx.Target.Kind != models.KindVehicle {
			return fmt.Errorf("%w: collision requires two vehicles", ErrIncompatibleCombatants)
		}
		if ctx.Collision == nil {
			return fmt.Errorf("%w: collision context required", ErrIncompatibleCombatants)
		}
	}
	return nil
}

// ========================= Phase Implementations =========================

func phaseSubsystemCheck(r *run) (outcome, error) {
	att := r.ctx.Attacker
	mount := r.ctx.Weapon.Mount
	if mount == "" {
		mount = "weapons"
	}
	sub := att.Subsystem(mount)
	if sub == nil {
		if r.ctx.Weapon.Mount != "" {
			return phaseContinue, fmt.Errorf("%w: %q on %s", ErrUnknownSubsystem, mount, att.ID)
		}
		// Vehicle without modeled subsystems fires freely.
		r.logf("no %s subsystem declared; fire permitted", mount)
		return phaseContinue, nil
	}
	if sub.Status != models.SubsystemFunctional {
		r.result.Blocked = true
		r.result.Reason = fmt.Sprintf("%s subsystem %s", sub.Name, sub.Status)
		r.logf("attack blocked: %s subsystem is %s", sub.Name, sub.Status)
		return phaseStop, nil
	}
	r.logf("%s subsystem functional", sub.Name)
	return phaseContinue, nil
}

func phaseRoll(r *run) (outcome, error) {
	var die int
	if r.ctx.PreRolled != nil {
		die = *r.ctx.PreRolled
		r.logf("attack roll (pre-rolled): %d", die)
	} else {
		die = r.res.roller.Roll(20)
		r.logf("attack roll: d20 -> %d", die)
	}
	r.result.AttackRoll = &engine.CheckResult{Die: die, Total: die}
	return phaseContinue, nil
}

func phaseModifiers(r *run) (outcome, error) {
	bonus := engine.RollExpr(r.res.roller, r.ctx.Weapon.AttackBonus)
	penalty := r.ctx.Attacker.Condition.Penalty()
	roll := r.result.AttackRoll
	roll.Modifier = bonus + penalty
	roll.Total = roll.Die + roll.Modifier
	if penalty != 0 {
		r.logf("modifiers: +%d attack, %d condition -> total %d", bonus, penalty, roll.Total)
	} else {
		r.logf("modifiers: +%d attack -> total %d", bonus, roll.Total)
	}
	return phaseContinue, nil
}

func phaseHitCheck(r *run) (outcome, error) {
	roll := r.result.AttackRoll
	defense := r.ctx.Target.Defense
	hit := roll.Total >= defense
	switch roll.Die {
	case 20:
		hit = true
	case 1:
		hit = false
	}
	r.result.Hit = hit
	if hit {
		r.logf("hit: %d vs defense %d", roll.Total, defense)
	} else {
		r.logf("miss: %d vs defense %d", roll.Total, defense)
	}
	r.notify(CheckpointPostHit)
	if !hit {
		return phaseStop, nil
	}
	return phaseContinue, nil
}

func phaseDamageRoll(r *run) (outcome, error) {
	w := r.ctx.Weapon
	dmg := engine.RollExpr(r.res.roller, w.Damage)
	r.result.DamageRoll = dmg
	r.packet = &models.DamagePacket{
		Amount:         dmg,
		Class:          w.Class,
		ApplyShields:   !w.IgnoresShields,
		CheckThreshold: !w.NoThreshold,
	}
	r.logf("damage roll: %s -> %d", w.Damage, dmg)
	return phaseContinue, nil
}

func phaseShieldAbsorb(r *run) (outcome, error) {
	if r.packet == nil || !r.packet.ApplyShields {
		r.logf("shields bypassed")
		return phaseSkip, nil
	}
	zone, err := zoneFor(r.ctx.Target, r.ctx.Zone)
	if err != nil {
		return phaseContinue, err
	}
	if zone == nil {
		r.logf("%s has no shields", r.ctx.Target.Name)
		return phaseContinue, nil
	}
	absorbed, remaining := absorbIntoZone(r.targetPlan, zone, r.packet.Amount)
	r.result.Absorbed = absorbed
	r.packet.Amount = remaining
	r.logf("shield zone %s absorbs %d (%d -> %d), %d gets through",
		zone.Name, absorbed, zone.Current, zone.Current-absorbed, remaining)

	// Mutual collisions run the rammer's own shields here too.
	if r.attackerPacket != nil {
		azone, err := zoneFor(r.ctx.Attacker, "")
		if err != nil {
			return phaseContinue, err
		}
		if azone != nil {
			aAbsorbed, aRemaining := absorbIntoZone(r.attackerPlan, azone, r.attackerPacket.Amount)
			r.attackerPacket.Amount = aRemaining
			r.logf("%s shield zone %s absorbs %d, %d gets through",
				r.ctx.Attacker.Name, azone.Name, aAbsorbed, aRemaining)
		}
	}
	return phaseContinue, nil
}

func phaseDamageApply(r *run) (outcome, error) {
	out := applyDamage(r.targetPlan, r.ctx.Target, r.packet.Amount)
	r.result.Applied = r.packet.Amount
	r.result.Destroyed = out.destroyed
	r.logf("%s takes %d damage -> %d hp", r.ctx.Target.Name, r.packet.Amount, out.finalHP)
	if out.fromBonus > 0 || out.fromTemp > 0 {
		r.logf("pools soak first: %d bonus, %d temporary", out.fromBonus, out.fromTemp)
	}
	if out.destroyed {
		r.logf("%s is destroyed", r.ctx.Target.Name)
	}
	if r.attackerPacket != nil {
		aout := applyDamage(r.attackerPlan, r.ctx.Attacker, r.attackerPacket.Amount)
		r.result.AttackerApplied = r.attackerPacket.Amount
		r.logf("%s takes %d damage -> %d hp", r.ctx.Attacker.Name, r.attackerPacket.Amount, aout.finalHP)
	}
	return phaseContinue, nil
}

func phaseThresholdCheck(r *run) (outcome, error) {
	if r.packet == nil || !r.packet.CheckThreshold {
		return phaseSkip, nil
	}
	target := r.ctx.Target
	exceeded := evaluateThreshold(r.targetPlan, target, r.packet.Amount)
	r.result.ThresholdExceeded = exceeded
	if exceeded {
		r.logf("%d meets damage threshold %d: condition %s -> %s",
			r.packet.Amount, target.Threshold, target.Condition, target.Condition.Worsen())
	} else {
		r.logf("%d under damage threshold %d", r.packet.Amount, target.Threshold)
	}
	if r.attackerPacket != nil {
		att := r.ctx.Attacker
		r.attackerExceeded = evaluateThreshold(r.attackerPlan, att, r.attackerPacket.Amount)
		r.result.AttackerThresholdExceeded = r.attackerExceeded
		if r.attackerExceeded {
			r.logf("%d meets %s's damage threshold %d", r.attackerPacket.Amount, att.Name, att.Threshold)
		}
	}
	return phaseContinue, nil
}

func phaseEscalate(r *run) (outcome, error) {
	ran := false
	if r.result.ThresholdExceeded && r.ctx.Target.Kind == models.KindVehicle {
		ran = true
		esc := escalateSubsystem(r.res.roller, r.targetPlan, r.ctx.Target)
		if esc.noop {
			r.result.EscalationNoop = true
			r.logf("no subsystem left to escalate on %s", r.ctx.Target.Name)
		} else {
			r.result.Escalated = esc.name
			r.logf("%s subsystem %s -> %s", r.ctx.Target.Name, esc.name, esc.to)
		}
	}
	if r.attackerExceeded && r.ctx.Attacker.Kind == models.KindVehicle {
		ran = true
		esc := escalateSubsystem(r.res.roller, r.attackerPlan, r.ctx.Attacker)
		if esc.noop {
			r.logf("no subsystem left to escalate on %s", r.ctx.Attacker.Name)
		} else {
			r.result.AttackerEscalated = esc.name
			r.logf("%s subsystem %s -> %s", r.ctx.Attacker.Name, esc.name, esc.to)
		}
	}
	if !ran {
		return phaseSkip, nil
	}
	return phaseContinue, nil
}

func phaseRangeCheck(r *run) (outcome, error) {
	if r.ctx.RangeBand > maxDogfightRange {
		r.result.Blocked = true
		r.result.Reason = fmt.Sprintf("out of dogfight range (band %d)", r.ctx.RangeBand)
		r.logf("dogfight blocked: range band %d exceeds %d", r.ctx.RangeBand, maxDogfightRange)
		return phaseStop, nil
	}
	r.logf("dogfight range band %d: engaged", r.ctx.RangeBand)
	return phaseContinue, nil
}

func phaseOpposedRoll(r *run) (outcome, error) {
	att := r.ctx.Attacker
	def := r.ctx.Target
	attCheck := engine.Check(r.res.roller, att.PilotSkill+att.Condition.Penalty())
	defCheck := engine.Check(r.res.roller, def.PilotSkill+def.Condition.Penalty())
	r.result.Duel = &DuelOutcome{AttackerCheck: attCheck, DefenderCheck: defCheck}
	r.logf("pilot check %s (%s): d20 %d + %d = %d", att.Name, att.Pilot, attCheck.Die, attCheck.Modifier, attCheck.Total)
	r.logf("pilot check %s (%s): d20 %d + %d = %d", def.Name, def.Pilot, defCheck.Die, defCheck.Modifier, defCheck.Total)
	return phaseContinue, nil
}

func phaseManeuverEffect(r *run) (outcome, error) {
	d := r.result.Duel
	switch {
	case d.AttackerCheck.Total > d.DefenderCheck.Total:
		d.WinnerID = r.ctx.Attacker.ID
		d.Effect = "outmaneuvered"
		r.result.Hit = true
		r.logf("%s wins the duel; %s is outmaneuvered", r.ctx.Attacker.Name, r.ctx.Target.Name)
	case d.DefenderCheck.Total > d.AttackerCheck.Total:
		d.WinnerID = r.ctx.Target.ID
		d.Effect = "outmaneuvered"
		r.logf("%s wins the duel; %s is outmaneuvered", r.ctx.Target.Name, r.ctx.Attacker.Name)
	default:
		r.logf("duel is a draw; both fighters hold position")
	}
	return phaseContinue, nil
}

func phaseCollisionDamage(r *run) (outcome, error) {
	col := r.ctx.Collision
	dmg := r.res.formula.Damage(r.res.roller, r.ctx.Attacker, r.ctx.Target, col.AttackerSpeed)
	if dmg < 1 {
		dmg = 1
	}
	r.result.Hit = true
	r.result.DamageRoll = dmg
	r.packet = &models.DamagePacket{
		Amount:         dmg,
		Class:          models.WeaponVehicle,
		ApplyShields:   true,
		CheckThreshold: true,
	}
	r.logf("collision damage to %s: %d", r.ctx.Target.Name, dmg)
	if col.MutualDamage {
		adm := r.res.formula.Damage(r.res.roller, r.ctx.Target, r.ctx.Attacker, col.TargetSpeed)
		if adm < 1 {
			adm = 1
		}
		r.attackerPacket = &models.DamagePacket{
			Amount:         adm,
			Class:          models.WeaponVehicle,
			ApplyShields:   true,
			CheckThreshold: true,
		}
		r.logf("collision damage to %s: %d", r.ctx.Attacker.Name, adm)
	}
	return phaseContinue, nil
}

func phaseNotifyCollision(r *run) (outcome, error) {
	col := r.ctx.Collision
	r.res.log.Info().
		Str("attacker", r.ctx.Attacker.ID).
		Str("target", r.ctx.Target.ID).
		Int("attacker_speed", col.AttackerSpeed).
		Int("target_speed", col.TargetSpeed).
		Bool("mutual", col.MutualDamage).
		Msg("collision")
	r.logf("%s rams %s at speed %d", r.ctx.Attacker.Name, r.ctx.Target.Name, col.AttackerSpeed)
	return phaseContinue, nil
}

func phaseDisplay(r *run) (outcome, error) {
	r.logf("resolution complete; result handed off for display")
	return phaseContinue, nil
}
