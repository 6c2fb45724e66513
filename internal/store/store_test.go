package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holotable/arena/internal/models"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "arena.db"))
	require.NoError(t, err)
	return s
}

func TestUpdateFieldsAudit(t *testing.T) {
	s := openTest(t)

	err := s.UpdateFields("tgt", map[string]any{
		"hp":          48,
		"zones.front": 0,
		"condition":   models.ConditionMinusOne,
	})
	require.NoError(t, err)

	rows, err := s.History("tgt")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// Sorted paths make the trail deterministic.
	assert.Equal(t, "condition", rows[0].Path)
	assert.Equal(t, "hp", rows[1].Path)
	assert.Equal(t, "zones.front", rows[2].Path)
	assert.Equal(t, "48", rows[1].Value)
}

func TestSaveAndLoadCombatant(t *testing.T) {
	s := openTest(t)

	v := &models.Combatant{
		ID: "interceptor-1", Name: "Interceptor", Kind: models.KindVehicle,
		HP: 48, MaxHP: 60, Threshold: 20, BaseDefense: 18,
		Condition: models.ConditionMinusOne,
		Zones:     []*models.ShieldZone{{Name: "front", Current: 0, Max: 30}},
		Subsystems: []*models.Subsystem{
			{Name: "weapons", Status: models.SubsystemDisabled},
		},
	}
	require.NoError(t, s.SaveCombatant(v))

	got, err := s.LoadCombatant("interceptor-1")
	require.NoError(t, err)
	assert.Equal(t, 48, got.HP)
	assert.Equal(t, models.ConditionMinusOne, got.Condition)
	assert.Equal(t, 17, got.Defense, "derived state recomputed on load")
	require.NotNil(t, got.Zone("front"))
	assert.Equal(t, 0, got.Zone("front").Current)
	assert.Equal(t, models.SubsystemDisabled, got.Subsystem("weapons").Status)
}

func TestLoadMissingCombatant(t *testing.T) {
	s := openTest(t)
	_, err := s.LoadCombatant("ghost")
	require.Error(t, err)
}
