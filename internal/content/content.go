// Package content loads combat templates from YAML files and instantiates
// fresh combatants from them.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/holotable/arena/internal/models"
)

// ErrNotFound indicates a template id with no definition.
var ErrNotFound = errors.New("template not found")

// WeaponTemplate is one attack profile as declared in content files.
type WeaponTemplate struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Class          string `yaml:"class" json:"class"`
	AttackBonus    string `yaml:"attack_bonus" json:"attack_bonus"`
	Damage         string `yaml:"damage" json:"damage"`
	Mount          string `yaml:"mount,omitempty" json:"mount,omitempty"`
	IgnoresShields bool   `yaml:"ignores_shields,omitempty" json:"ignores_shields,omitempty"`
	NoThreshold    bool   `yaml:"no_threshold,omitempty" json:"no_threshold,omitempty"`
}

// ZoneTemplate declares a shield zone and its capacity.
type ZoneTemplate struct {
	Name     string `yaml:"name" json:"name"`
	Capacity int    `yaml:"capacity" json:"capacity"`
}

// SubsystemTemplate declares an onboard subsystem.
type SubsystemTemplate struct {
	Name   string `yaml:"name" json:"name"`
	Weight int    `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// CombatantTemplate declares a character, droid or vehicle.
type CombatantTemplate struct {
	ID         string              `yaml:"id" json:"id"`
	Name       string              `yaml:"name" json:"name"`
	Kind       string              `yaml:"kind" json:"kind"`
	HP         int                 `yaml:"hp" json:"hp"`
	Threshold  int                 `yaml:"threshold" json:"threshold"`
	Defense    int                 `yaml:"defense" json:"defense"`
	BonusHP    int                 `yaml:"bonus_hp,omitempty" json:"bonus_hp,omitempty"`
	Pilot      string              `yaml:"pilot,omitempty" json:"pilot,omitempty"`
	PilotSkill int                 `yaml:"pilot_skill,omitempty" json:"pilot_skill,omitempty"`
	Speed      int                 `yaml:"speed,omitempty" json:"speed,omitempty"`
	SizeClass  int                 `yaml:"size_class,omitempty" json:"size_class,omitempty"`
	Zones      []ZoneTemplate      `yaml:"zones,omitempty" json:"zones,omitempty"`
	Subsystems []SubsystemTemplate `yaml:"subsystems,omitempty" json:"subsystems,omitempty"`
	Weapons    []string            `yaml:"weapons,omitempty" json:"weapons,omitempty"`
}

// file is the shape of one content YAML document.
type file struct {
	Combatants []CombatantTemplate `yaml:"combatants"`
	Weapons    []WeaponTemplate    `yaml:"weapons"`
}

// Catalog holds every loaded template, keyed by id.
type Catalog struct {
	combatants map[string]CombatantTemplate
	weapons    map[string]WeaponTemplate
}

// Load reads every .yaml/.yml file in dir into one catalog. Duplicate ids
// across files are an error, not a silent override.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}
	cat := &Catalog{
		combatants: map[string]CombatantTemplate{},
		weapons:    map[string]WeaponTemplate{},
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var f file
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		for _, c := range f.Combatants {
			if _, dup := cat.combatants[c.ID]; dup {
				return nil, fmt.Errorf("duplicate combatant id %q in %s", c.ID, e.Name())
			}
			cat.combatants[c.ID] = c
		}
		for _, w := range f.Weapons {
			if _, dup := cat.weapons[w.ID]; dup {
				return nil, fmt.Errorf("duplicate weapon id %q in %s", w.ID, e.Name())
			}
			cat.weapons[w.ID] = w
		}
	}
	return cat, nil
}

// Combatants lists templates of the given kind, sorted by name. An empty
// kind lists everything.
func (c *Catalog) Combatants(kind string) []CombatantTemplate {
	var out []CombatantTemplate
	for _, t := range c.combatants {
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Weapons lists weapon templates sorted by name.
func (c *Catalog) Weapons() []WeaponTemplate {
	out := make([]WeaponTemplate, 0, len(c.weapons))
	for _, w := range c.weapons {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Weapon builds a weapon from its template.
func (c *Catalog) Weapon(id string) (*models.Weapon, error) {
	t, ok := c.weapons[id]
	if !ok {
		return nil, fmt.Errorf("%w: weapon %q", ErrNotFound, id)
	}
	return &models.Weapon{
		Name:           t.Name,
		Class:          models.WeaponClass(t.Class),
		AttackBonus:    t.AttackBonus,
		Damage:         t.Damage,
		Mount:          t.Mount,
		IgnoresShields: t.IgnoresShields,
		NoThreshold:    t.NoThreshold,
	}, nil
}

// Instantiate builds a fresh combatant from its template. Every call
// returns an independent copy at full strength.
func (c *Catalog) Instantiate(id string) (*models.Combatant, error) {
	t, ok := c.combatants[id]
	if !ok {
		return nil, fmt.Errorf("%w: combatant %q", ErrNotFound, id)
	}
	return Instantiate(t), nil
}

// Instantiate builds a combat-ready combatant from a template.
func Instantiate(t CombatantTemplate) *models.Combatant {
	cb := &models.Combatant{
		ID:          t.ID,
		Name:        t.Name,
		Kind:        models.Kind(t.Kind),
		HP:          t.HP,
		MaxHP:       t.HP,
		Threshold:   t.Threshold,
		BaseDefense: t.Defense,
		BonusHP:     t.BonusHP,
		Pilot:       t.Pilot,
		PilotSkill:  t.PilotSkill,
		Speed:       t.Speed,
		SizeClass:   t.SizeClass,
	}
	for _, z := range t.Zones {
		cb.Zones = append(cb.Zones, &models.ShieldZone{Name: z.Name, Current: z.Capacity, Max: z.Capacity})
	}
	for _, s := range t.Subsystems {
		cb.Subsystems = append(cb.Subsystems, &models.Subsystem{
			Name:   s.Name,
			Status: models.SubsystemFunctional,
			Weight: s.Weight,
		})
	}
	cb.Recalculate()
	return cb
}

// WeaponIDs returns the weapon ids a combatant template declares.
func (c *Catalog) WeaponIDs(combatantID string) ([]string, error) {
	t, ok := c.combatants[combatantID]
	if !ok {
		return nil, fmt.Errorf("%w: combatant %q", ErrNotFound, combatantID)
	}
	return t.Weapons, nil
}
