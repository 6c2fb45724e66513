package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holotable/arena/internal/models"
)

const fixture = `
combatants:
  - id: trooper
    name: Shock Trooper
    kind: character
    hp: 30
    threshold: 15
    defense: 20
    weapons: [blaster-rifle]
  - id: interceptor
    name: Interceptor
    kind: vehicle
    hp: 60
    threshold: 20
    defense: 18
    pilot: Red Two
    pilot_skill: 8
    speed: 12
    size_class: 3
    zones:
      - {name: front, capacity: 30}
      - {name: aft, capacity: 20}
    subsystems:
      - {name: weapons, weight: 2}
      - {name: engines}
      - {name: sensors}
    weapons: [laser-cannon]
weapons:
  - id: blaster-rifle
    name: Blaster Rifle
    class: ranged
    attack_bonus: "5"
    damage: 3d8
  - id: laser-cannon
    name: Laser Cannon
    class: vehicle
    attack_bonus: "10"
    damage: 4d10x2
    mount: weapons
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.yaml"), []byte(fixture), 0o644))
	return dir
}

func TestLoadAndInstantiate(t *testing.T) {
	cat, err := Load(writeFixture(t))
	require.NoError(t, err)

	v, err := cat.Instantiate("interceptor")
	require.NoError(t, err)
	assert.Equal(t, models.KindVehicle, v.Kind)
	assert.Equal(t, 60, v.HP)
	assert.Equal(t, 60, v.MaxHP)
	assert.Equal(t, 18, v.Defense, "instantiation runs the derived-state pass")
	require.NotNil(t, v.Zone("front"))
	assert.Equal(t, 30, v.Zone("front").Max)
	require.NotNil(t, v.Subsystem("weapons"))
	assert.Equal(t, models.SubsystemFunctional, v.Subsystem("weapons").Status)
	assert.Equal(t, 2, v.Subsystem("weapons").Weight)

	// Instances are independent.
	v2, err := cat.Instantiate("interceptor")
	require.NoError(t, err)
	v.Zone("front").Current = 0
	assert.Equal(t, 30, v2.Zone("front").Current)
}

func TestWeaponLookup(t *testing.T) {
	cat, err := Load(writeFixture(t))
	require.NoError(t, err)

	w, err := cat.Weapon("laser-cannon")
	require.NoError(t, err)
	assert.Equal(t, models.WeaponVehicle, w.Class)
	assert.Equal(t, "4d10x2", w.Damage)
	assert.Equal(t, "weapons", w.Mount)

	_, err = cat.Weapon("vibroblade")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListing(t *testing.T) {
	cat, err := Load(writeFixture(t))
	require.NoError(t, err)

	assert.Len(t, cat.Combatants(""), 2)
	assert.Len(t, cat.Combatants("vehicle"), 1)
	assert.Len(t, cat.Weapons(), 2)

	ids, err := cat.WeaponIDs("trooper")
	require.NoError(t, err)
	assert.Equal(t, []string{"blaster-rifle"}, ids)
}

func TestDuplicateIDRejected(t *testing.T) {
	dir := t.TempDir()
	dup := "combatants:\n  - {id: x, name: A, kind: character, hp: 1, threshold: 1, defense: 10}\n  - {id: x, name: B, kind: character, hp: 1, threshold: 1, defense: 10}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.yaml"), []byte(dup), 0o644))
	_, err := Load(dir)
	require.Error(t, err)
}
