package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holotable/arena/internal/engine"
	"github.com/holotable/arena/internal/models"
)

// capturePersister records authority updates, optionally failing them.
type capturePersister struct {
	calls []persistCall
	err   error
}

type persistCall struct {
	id      string
	updates map[string]any
}

func (c *capturePersister) UpdateFields(id string, updates map[string]any) error {
	if c.err != nil {
		return c.err
	}
	c.calls = append(c.calls, persistCall{id: id, updates: updates})
	return nil
}

// selectivePersister rejects updates for one combatant and records the rest.
type selectivePersister struct {
	capturePersister
	rejectID string
}

func (s *selectivePersister) UpdateFields(id string, updates map[string]any) error {
	if id == s.rejectID {
		return errors.New("replica offline")
	}
	return s.capturePersister.UpdateFields(id, updates)
}

func newCharacter(id string) *models.Combatant {
	c := &models.Combatant{
		ID: id, Name: id, Kind: models.KindCharacter,
		HP: 30, MaxHP: 30, Threshold: 15, BaseDefense: 20,
	}
	c.Recalculate()
	return c
}

func newVehicle(id string) *models.Combatant {
	v := &models.Combatant{
		ID: id, Name: id, Kind: models.KindVehicle,
		HP: 60, MaxHP: 60, Threshold: 20, BaseDefense: 18,
		Pilot: "ace-" + id, PilotSkill: 8, Speed: 12, SizeClass: 3,
		Zones: []*models.ShieldZone{
			{Name: "front", Current: 30, Max: 30},
			{Name: "aft", Current: 20, Max: 20},
		},
		Subsystems: []*models.Subsystem{
			{Name: "weapons", Status: models.SubsystemFunctional},
			{Name: "engines", Status: models.SubsystemFunctional},
			{Name: "sensors", Status: models.SubsystemFunctional},
		},
	}
	v.Recalculate()
	return v
}

func blaster() *models.Weapon {
	return &models.Weapon{Name: "blaster", Class: models.WeaponRanged, AttackBonus: "5", Damage: "3d6"}
}

func turbolaser(damage string) *models.Weapon {
	return &models.Weapon{Name: "turbolaser", Class: models.WeaponVehicle, AttackBonus: "10", Damage: damage, Mount: "weapons"}
}

func newResolver(values ...int) (*Resolver, *capturePersister) {
	p := &capturePersister{}
	return NewResolver(&engine.FixedRoller{Values: values}, p), p
}

func TestCharacterAttackMissShortCircuits(t *testing.T) {
	rs, p := newResolver(4) // d20 -> 4, +5 = 9 vs defense 20
	att, tgt := newCharacter("att"), newCharacter("tgt")

	res, err := rs.Resolve(ModeCharacterAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: blaster()})
	require.NoError(t, err)

	assert.False(t, res.Hit)
	assert.Equal(t, []Phase{PhaseRoll, PhaseModifiers, PhaseHitCheck}, res.Phases)
	assert.False(t, res.ExecutedPhase(PhaseDamageApply))
	assert.False(t, res.ExecutedPhase(PhaseThresholdCheck))
	assert.Equal(t, 30, tgt.HP, "miss must not mutate the target")
	assert.Empty(t, p.calls, "miss must not reach the persister")
}

func TestCharacterAttackHitAppliesDamageAndThreshold(t *testing.T) {
	rs, p := newResolver(18, 6, 6, 5) // hit 23 vs 20; damage 6+6+5 = 17
	att, tgt := newCharacter("att"), newCharacter("tgt")

	res, err := rs.Resolve(ModeCharacterAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: blaster()})
	require.NoError(t, err)

	assert.True(t, res.Hit)
	assert.Equal(t, 17, res.Applied)
	assert.Equal(t, 13, tgt.HP)
	assert.True(t, res.ThresholdExceeded)
	assert.Equal(t, models.ConditionMinusOne, tgt.Condition)
	assert.Equal(t, 19, tgt.Defense, "recalculation folds the condition penalty in")
	assert.Equal(t,
		[]Phase{PhaseRoll, PhaseModifiers, PhaseHitCheck, PhaseDamageRoll, PhaseDamageApply, PhaseThresholdCheck, PhaseDisplay},
		res.Phases)

	require.Len(t, p.calls, 1)
	assert.Equal(t, "tgt", p.calls[0].id)
	assert.Equal(t, 13, p.calls[0].updates["hp"])
	assert.Contains(t, p.calls[0].updates, "condition")
}

func TestThresholdAdvancesExactlyOneStep(t *testing.T) {
	rs, _ := newResolver(18)
	att, tgt := newCharacter("att"), newCharacter("tgt")
	w := &models.Weapon{Name: "cannon", Class: models.WeaponRanged, AttackBonus: "5", Damage: "100"}

	res, err := rs.Resolve(ModeCharacterAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: w})
	require.NoError(t, err)

	assert.True(t, res.ThresholdExceeded)
	assert.Equal(t, models.ConditionMinusOne, tgt.Condition, "one step, no matter the overkill")
	assert.Equal(t, 0, tgt.HP, "living characters clamp at zero")
	assert.False(t, res.Destroyed)
}

func TestBonusAndTempPoolsSoakFirst(t *testing.T) {
	rs, _ := newResolver(18)
	att, tgt := newCharacter("att"), newCharacter("tgt")
	tgt.BonusHP = 5
	tgt.TempHP = 3
	w := &models.Weapon{Name: "cannon", Class: models.WeaponRanged, AttackBonus: "5", Damage: "16"}

	res, err := rs.Resolve(ModeCharacterAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: w})
	require.NoError(t, err)

	assert.Equal(t, 16, res.Applied)
	assert.Equal(t, 0, tgt.BonusHP)
	assert.Equal(t, 0, tgt.TempHP)
	assert.Equal(t, 22, tgt.HP, "pools soak 8 before real hit points")
}

func TestVehicleAttackShieldsBeforeHitPoints(t *testing.T) {
	rs, _ := newResolver(15) // 15+10 = 25 vs 18
	att, tgt := newVehicle("att"), newVehicle("tgt")

	res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: turbolaser("42"), Zone: "front"})
	require.NoError(t, err)

	assert.True(t, res.Hit)
	assert.Equal(t, 30, res.Absorbed)
	assert.Equal(t, 12, res.Applied)
	assert.Equal(t, 0, tgt.Zone("front").Current, "zone drains to zero, never negative")
	assert.Equal(t, 48, tgt.HP, "hit points drop by exactly what got through")
	assert.False(t, res.ThresholdExceeded)
	assert.Equal(t, models.ConditionNormal, tgt.Condition)

	shieldIdx, applyIdx := -1, -1
	for i, ph := range res.Phases {
		switch ph {
		case PhaseShieldAbsorb:
			shieldIdx = i
		case PhaseDamageApply:
			applyIdx = i
		}
	}
	require.GreaterOrEqual(t, shieldIdx, 0)
	require.GreaterOrEqual(t, applyIdx, 0)
	assert.Less(t, shieldIdx, applyIdx, "absorption always precedes application")
}

func TestVehicleAttackEscalatesOnThreshold(t *testing.T) {
	rs, _ := newResolver(15, 2) // hit, then escalation pick 2 of 3
	att, tgt := newVehicle("att"), newVehicle("tgt")

	res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: turbolaser("60")})
	require.NoError(t, err)

	assert.Equal(t, 30, res.Applied)
	assert.True(t, res.ThresholdExceeded)
	assert.Equal(t, models.ConditionMinusOne, tgt.Condition)
	assert.Equal(t, "engines", res.Escalated)
	assert.Equal(t, models.SubsystemDisabled, tgt.Subsystem("engines").Status)
	assert.True(t, res.ExecutedPhase(PhaseEscalate))
}

func TestVehicleDestroyedAtFloor(t *testing.T) {
	rs, _ := newResolver(15)
	att, tgt := newVehicle("att"), newVehicle("tgt")
	tgt.HP = 5

	res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: turbolaser("60")})
	require.NoError(t, err)

	assert.True(t, res.Destroyed)
	assert.Equal(t, tgt.Floor(), tgt.HP)
	assert.True(t, tgt.Destroyed)
	assert.True(t, res.Target.Destroyed)
}

func TestDisabledWeaponsBlocksAttack(t *testing.T) {
	rs, p := newResolver(15)
	att, tgt := newVehicle("att"), newVehicle("tgt")
	att.Subsystem("weapons").Status = models.SubsystemDisabled

	res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: turbolaser("42")})
	require.NoError(t, err)

	assert.True(t, res.Blocked)
	assert.Contains(t, res.Reason, "disabled")
	assert.False(t, res.Hit)
	assert.Equal(t, []Phase{PhaseSubsystemCheck}, res.Phases)
	assert.Equal(t, 60, tgt.HP)
	assert.Empty(t, p.calls)
}

func TestUnknownMountIsConfigurationError(t *testing.T) {
	rs, _ := newResolver(15)
	att, tgt := newVehicle("att"), newVehicle("tgt")
	w := turbolaser("42")
	w.Mount = "turret"

	res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: w})
	require.ErrorIs(t, err, ErrUnknownSubsystem)
	assert.True(t, res.Failed)
	assert.Equal(t, 60, tgt.HP)
}

func TestUnknownZoneAbortsWithoutMutation(t *testing.T) {
	rs, p := newResolver(15)
	att, tgt := newVehicle("att"), newVehicle("tgt")

	res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: turbolaser("42"), Zone: "ventral"})
	require.ErrorIs(t, err, ErrUnknownZone)
	assert.True(t, res.Failed)
	assert.Equal(t, 60, tgt.HP)
	assert.Equal(t, 30, tgt.Zone("front").Current)
	assert.Empty(t, p.calls, "discarded plans never reach the persister")
}

func TestDogfightNeverTouchesDamagePaths(t *testing.T) {
	cases := []struct {
		name   string
		rolls  []int
		winner string
	}{
		{"attacker wins", []int{20, 5}, "att"},
		{"defender wins", []int{5, 20}, "tgt"},
		{"tie", []int{10, 10}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs, _ := newResolver(tc.rolls...)
			att, tgt := newVehicle("att"), newVehicle("tgt")

			res, err := rs.Resolve(ModeDogfight, &models.AttackContext{Attacker: att, Target: tgt})
			require.NoError(t, err)

			require.NotNil(t, res.Duel)
			assert.Equal(t, tc.winner, res.Duel.WinnerID)
			for _, banned := range []Phase{PhaseDamageRoll, PhaseShieldAbsorb, PhaseDamageApply, PhaseThresholdCheck, PhaseEscalate} {
				assert.False(t, res.ExecutedPhase(banned), "dogfight must not run %s", banned)
			}
			assert.Equal(t, 60, att.HP)
			assert.Equal(t, 60, tgt.HP)
			assert.Equal(t, models.ConditionNormal, tgt.Condition)
		})
	}
}

func TestDogfightOutOfRangeBlocks(t *testing.T) {
	rs, _ := newResolver(20, 5)
	att, tgt := newVehicle("att"), newVehicle("tgt")

	res, err := rs.Resolve(ModeDogfight, &models.AttackContext{Attacker: att, Target: tgt, RangeBand: 3})
	require.NoError(t, err)

	assert.True(t, res.Blocked)
	assert.Contains(t, res.Reason, "range")
	assert.Equal(t, []Phase{PhaseRangeCheck}, res.Phases)
	assert.Nil(t, res.Duel)
}

func TestDogfightValidation(t *testing.T) {
	rs, _ := newResolver(10)
	ch := newCharacter("ch")
	v := newVehicle("v")

	_, err := rs.Resolve(ModeDogfight, &models.AttackContext{Attacker: ch, Target: v})
	require.ErrorIs(t, err, ErrIncompatibleCombatants)

	v2 := newVehicle("v2")
	v2.Pilot = ""
	_, err = rs.Resolve(ModeDogfight, &models.AttackContext{Attacker: v, Target: v2})
	require.ErrorIs(t, err, ErrIncompatibleCombatants)
}

func TestCollisionMutualDamageUnequal(t *testing.T) {
	rs, _ := newResolver(4) // every die is a 4
	att, tgt := newVehicle("att"), newVehicle("tgt")
	tgt.SizeClass = 2
	for _, v := range []*models.Combatant{att, tgt} {
		for _, z := range v.Zones {
			z.Current = 0
		}
	}

	res, err := rs.Resolve(ModeCollision, &models.AttackContext{
		Attacker:  att,
		Target:    tgt,
		Collision: &models.CollisionContext{AttackerSpeed: 12, TargetSpeed: 4, MutualDamage: true},
	})
	require.NoError(t, err)

	// Striker att: 3d6 of 4s = 12, speed factor 1+12/4 = 4 -> 48.
	// Striker tgt: 2d6 of 4s = 8, speed factor 1+4/4 = 2 -> 16.
	assert.Equal(t, 48, res.Applied)
	assert.Equal(t, 16, res.AttackerApplied)
	assert.NotZero(t, res.Applied)
	assert.NotZero(t, res.AttackerApplied)
	assert.NotEqual(t, res.Applied, res.AttackerApplied)

	assert.Equal(t, 12, tgt.HP)
	assert.Equal(t, 44, att.HP)
	assert.True(t, res.ThresholdExceeded, "48 exceeds the target's threshold of 20")
	assert.False(t, res.AttackerThresholdExceeded, "16 stays under the rammer's threshold")
	assert.Equal(t, models.ConditionMinusOne, tgt.Condition)
	assert.Equal(t, models.ConditionNormal, att.Condition)
}

func TestCollisionShieldsStillAbsorb(t *testing.T) {
	rs, _ := newResolver(4)
	att, tgt := newVehicle("att"), newVehicle("tgt")

	res, err := rs.Resolve(ModeCollision, &models.AttackContext{
		Attacker:  att,
		Target:    tgt,
		Collision: &models.CollisionContext{AttackerSpeed: 12, TargetSpeed: 12},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, res.Absorbed)
	assert.Equal(t, 18, res.Applied)
	assert.Equal(t, 42, tgt.HP)
	assert.Equal(t, 60, att.HP, "no mutual damage unless asked for")
}

func TestEscalationNoopWhenAllDestroyed(t *testing.T) {
	rs, _ := newResolver(15)
	att, tgt := newVehicle("att"), newVehicle("tgt")
	for _, s := range tgt.Subsystems {
		s.Status = models.SubsystemDestroyed
	}

	res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: turbolaser("60")})
	require.NoError(t, err)

	assert.True(t, res.ThresholdExceeded)
	assert.True(t, res.EscalationNoop)
	assert.Empty(t, res.Escalated)
}

func TestPersisterFailureLeavesStateUntouched(t *testing.T) {
	rs, p := newResolver(18, 6, 6, 5)
	p.err = errors.New("document store offline")
	att, tgt := newCharacter("att"), newCharacter("tgt")

	res, err := rs.Resolve(ModeCharacterAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: blaster()})
	require.ErrorIs(t, err, ErrPersist)

	assert.True(t, res.Failed)
	assert.Equal(t, 30, tgt.HP, "rejected update must not half-apply")
	assert.Equal(t, models.ConditionNormal, tgt.Condition)
}

func TestMutualCollisionPartialRejectionTouchesNeither(t *testing.T) {
	p := &selectivePersister{rejectID: "att"}
	rs := NewResolver(&engine.FixedRoller{Values: []int{4}}, p)
	att, tgt := newVehicle("att"), newVehicle("tgt")
	for _, v := range []*models.Combatant{att, tgt} {
		for _, z := range v.Zones {
			z.Current = 0
		}
	}

	res, err := rs.Resolve(ModeCollision, &models.AttackContext{
		Attacker:  att,
		Target:    tgt,
		Collision: &models.CollisionContext{AttackerSpeed: 12, TargetSpeed: 4, MutualDamage: true},
	})
	require.ErrorIs(t, err, ErrPersist)

	assert.True(t, res.Failed)
	assert.Equal(t, 60, tgt.HP, "rejecting one side must not commit the other")
	assert.Equal(t, models.ConditionNormal, tgt.Condition)
	assert.False(t, tgt.Destroyed)
	assert.Equal(t, 60, att.HP)
	assert.Equal(t, models.ConditionNormal, att.Condition)
}

func TestStopOutcomeDropsProposedChanges(t *testing.T) {
	mode := Mode("abort_after_proposal")
	phaseTables[mode] = []phaseStep{
		{Phase("propose_then_stop"), func(r *run) (outcome, error) {
			r.targetPlan.SetHP(1)
			return phaseStop, nil
		}},
		{PhaseDisplay, phaseDisplay},
	}
	defer delete(phaseTables, mode)

	rs, p := newResolver(10)
	att, tgt := newCharacter("att"), newCharacter("tgt")

	res, err := rs.Resolve(mode, &models.AttackContext{Attacker: att, Target: tgt})
	require.NoError(t, err)

	assert.Equal(t, []Phase{Phase("propose_then_stop")}, res.Phases)
	assert.Equal(t, 30, tgt.HP, "a stop drops everything the phases proposed")
	assert.Empty(t, p.calls)
}

func TestUnknownMode(t *testing.T) {
	rs, _ := newResolver(10)
	_, err := rs.Resolve(Mode("bogus"), &models.AttackContext{Attacker: newCharacter("a"), Target: newCharacter("b"), Weapon: blaster()})
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestPreRolledAttackValue(t *testing.T) {
	rs, _ := newResolver(6, 6, 5) // only damage dice are rolled
	att, tgt := newCharacter("att"), newCharacter("tgt")
	pre := 18

	res, err := rs.Resolve(ModeCharacterAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: blaster(), PreRolled: &pre})
	require.NoError(t, err)

	assert.True(t, res.Hit)
	assert.Equal(t, 18, res.AttackRoll.Die)
	assert.Equal(t, 17, res.Applied)
}

func TestObserversQueueFollowUps(t *testing.T) {
	var seen []Checkpoint
	obs := func(cp Checkpoint, ctx *models.AttackContext, res *ResolutionResult) []Action {
		seen = append(seen, cp)
		if cp == CheckpointPostHit && res.Hit {
			return []Action{{Mode: ModeCharacterAttack, Note: "riposte"}}
		}
		return nil
	}
	rs, _ := newResolver(18, 6, 6, 5)
	rs.WithObservers(obs)
	att, tgt := newCharacter("att"), newCharacter("tgt")

	res, err := rs.Resolve(ModeCharacterAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: blaster()})
	require.NoError(t, err)

	assert.Equal(t, []Checkpoint{CheckpointPreResolution, CheckpointPostHit}, seen)
	require.Len(t, res.FollowUps, 1)
	assert.Equal(t, "riposte", res.FollowUps[0].Note)
}

func TestIdenticalInputsIdenticalResults(t *testing.T) {
	resolveOnce := func() *ResolutionResult {
		rs := NewResolver(engine.NewSeeded(7), nil)
		att, tgt := newVehicle("att"), newVehicle("tgt")
		res, err := rs.Resolve(ModeVehicleAttack, &models.AttackContext{Attacker: att, Target: tgt, Weapon: turbolaser("3d10+5")})
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, resolveOnce(), resolveOnce())
}
