package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionTrack(t *testing.T) {
	c := ConditionNormal
	steps := []struct {
		penalty int
		name    string
	}{
		{-1, "-1"}, {-2, "-2"}, {-5, "-5"}, {-10, "-10"}, {-10, "down"},
	}
	for _, want := range steps {
		c = c.Worsen()
		assert.Equal(t, want.penalty, c.Penalty())
		assert.Equal(t, want.name, c.String())
	}
	assert.True(t, c.Down())
	assert.Equal(t, ConditionDown, c.Worsen(), "track saturates at the bottom")
}

func TestFloor(t *testing.T) {
	ch := &Combatant{Kind: KindCharacter, Threshold: 15}
	assert.Equal(t, 0, ch.Floor())

	v := &Combatant{Kind: KindVehicle, Threshold: 20}
	assert.Equal(t, -20, v.Floor())

	d := &Combatant{Kind: KindDroid, Threshold: 12}
	assert.Equal(t, -12, d.Floor())
}

func TestRecalculate(t *testing.T) {
	c := &Combatant{Kind: KindCharacter, BaseDefense: 18, Condition: ConditionMinusTwo}
	c.Recalculate()
	assert.Equal(t, 16, c.Defense)
}

func TestZoneAndSubsystemLookup(t *testing.T) {
	v := &Combatant{
		Kind:       KindVehicle,
		Zones:      []*ShieldZone{{Name: "front", Current: 30, Max: 30}},
		Subsystems: []*Subsystem{{Name: "weapons", Status: SubsystemFunctional}},
	}
	require.NotNil(t, v.Zone("front"))
	assert.Nil(t, v.Zone("aft"))
	require.NotNil(t, v.Subsystem("weapons"))
	assert.Nil(t, v.Subsystem("engines"))
}

func TestSubsystemDowngrade(t *testing.T) {
	s := SubsystemFunctional
	s = s.Downgrade()
	assert.Equal(t, SubsystemDisabled, s)
	s = s.Downgrade()
	assert.Equal(t, SubsystemDestroyed, s)
	assert.Equal(t, SubsystemDestroyed, s.Downgrade())
}

func TestMutationPlan(t *testing.T) {
	v := &Combatant{
		ID: "v1", Kind: KindVehicle, HP: 60, Threshold: 20,
		Zones:      []*ShieldZone{{Name: "front", Current: 30, Max: 30}},
		Subsystems: []*Subsystem{{Name: "engines", Status: SubsystemFunctional}},
	}
	p := NewPlan(v)
	assert.True(t, p.Empty())

	p.SetHP(48)
	p.SetZone("front", 0)
	p.SetSubsystem("engines", SubsystemDisabled)
	p.SetCondition(ConditionMinusOne)

	require.Len(t, p.Changes, 4)
	assert.Equal(t, FieldChange{Path: "hp", From: 60, To: 48}, p.Changes[0])
	assert.Equal(t, FieldChange{Path: "zones.front", From: 30, To: 0}, p.Changes[1])

	updates := p.DocumentUpdates()
	assert.Equal(t, 48, updates["hp"])
	assert.Equal(t, 0, updates["zones.front"])
	assert.Equal(t, SubsystemDisabled, updates["subsystems.engines"])
	assert.Equal(t, ConditionMinusOne, updates["condition"])
}

func TestSnap(t *testing.T) {
	v := &Combatant{
		ID: "v1", Kind: KindVehicle, HP: 48, BaseDefense: 18,
		Condition:  ConditionMinusOne,
		Zones:      []*ShieldZone{{Name: "front", Current: 12, Max: 30}},
		Subsystems: []*Subsystem{{Name: "weapons", Status: SubsystemDisabled}},
	}
	v.Recalculate()
	s := v.Snap()
	assert.Equal(t, 48, s.HP)
	assert.Equal(t, "-1", s.Condition)
	assert.Equal(t, 17, s.Defense)
	assert.Equal(t, map[string]int{"front": 12}, s.Zones)
	assert.Equal(t, map[string]string{"weapons": "disabled"}, s.Subsystems)
}
