package models

// ========================= Domain Models =========================
// Minimal shapes for combat resolution. Content templates are mapped into
// these before any resolve call; presentation maps them back out.

// Kind distinguishes the combatant variants the rules care about.
type Kind string

const (
	KindCharacter Kind = "character"
	KindDroid     Kind = "droid"
	KindVehicle   Kind = "vehicle"
)

// Destructible reports whether the kind is wrecked below zero rather than
// merely dying at zero.
func (k Kind) Destructible() bool {
	return k == KindDroid || k == KindVehicle
}

// SubsystemStatus is the functional state of a vehicle subsystem.
type SubsystemStatus string

const (
	SubsystemFunctional SubsystemStatus = "functional"
	SubsystemDisabled   SubsystemStatus = "disabled"
	SubsystemDestroyed  SubsystemStatus = "destroyed"
)

// Downgrade moves the status one step toward destroyed.
func (s SubsystemStatus) Downgrade() SubsystemStatus {
	switch s {
	case SubsystemFunctional:
		return SubsystemDisabled
	default:
		return SubsystemDestroyed
	}
}

// Subsystem is an onboard vehicle component with independent status.
// Weight biases escalation selection; declaration order breaks ties.
type Subsystem struct {
	Name   string          `json:"name"`
	Status SubsystemStatus `json:"status"`
	Weight int             `json:"weight,omitempty"`
}

// ShieldZone is a directional absorption pool on a vehicle.
type ShieldZone struct {
	Name    string `json:"name"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
}

// Combatant is a participant in a resolution call: a character, droid or
// vehicle. Zones and Subsystems are empty for non-vehicles.
type Combatant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
	Threshold int    `json:"threshold"`
	// BonusHP is spent before TempHP, and both before real hit points.
	BonusHP     int           `json:"bonus_hp,omitempty"`
	TempHP      int           `json:"temp_hp,omitempty"`
	Condition   ConditionStep `json:"condition"`
	BaseDefense int           `json:"base_defense"`
	// Vehicle-only fields.
	Pilot      string        `json:"pilot,omitempty"`
	PilotSkill int           `json:"pilot_skill,omitempty"`
	Speed      int           `json:"speed,omitempty"`
	SizeClass  int           `json:"size_class,omitempty"` // 1 huge .. 5 colossal
	Zones      []*ShieldZone `json:"zones,omitempty"`
	Subsystems []*Subsystem  `json:"subsystems,omitempty"`
	Destroyed  bool          `json:"destroyed,omitempty"`
	// Derived: BaseDefense plus condition penalty. Written only by the
	// mutation authority's recalculation pass.
	Defense int `json:"defense"`
}

// Zone looks up a shield zone by name.
func (c *Combatant) Zone(name string) *ShieldZone {
	for _, z := range c.Zones {
		if z.Name == name {
			return z
		}
	}
	return nil
}

// Subsystem looks up an onboard subsystem by name.
func (c *Combatant) Subsystem(name string) *Subsystem {
	for _, s := range c.Subsystems {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Floor is the lowest legal hit-point value for the combatant.
// Characters stop at zero; droids and vehicles can be driven into the
// negative band before the wreck is final.
func (c *Combatant) Floor() int {
	if c.Kind.Destructible() {
		return -c.Threshold
	}
	return 0
}

// Recalculate refreshes derived fields from base state. Only the mutation
// authority calls this, exactly once per applied plan.
func (c *Combatant) Recalculate() {
	c.Defense = c.BaseDefense + c.Condition.Penalty()
}

// WeaponClass classifies the means of attack.
type WeaponClass string

const (
	WeaponMelee   WeaponClass = "melee"
	WeaponRanged  WeaponClass = "ranged"
	WeaponVehicle WeaponClass = "vehicle"
)

// Weapon describes one attack profile. Expressions use dice grammar
// ("2d8+4", "3d10x2", plain integers).
type Weapon struct {
	Name        string      `json:"name"`
	Class       WeaponClass `json:"class"`
	AttackBonus string      `json:"attack_bonus,omitempty"`
	Damage      string      `json:"damage"`
	// Mount names the vehicle subsystem this weapon fires through.
	Mount          string `json:"mount,omitempty"`
	IgnoresShields bool   `json:"ignores_shields,omitempty"`
	NoThreshold    bool   `json:"no_threshold,omitempty"`
}

// CollisionContext carries the inputs to collision damage computation.
type CollisionContext struct {
	AttackerSpeed int  `json:"attacker_speed"`
	TargetSpeed   int  `json:"target_speed"`
	MutualDamage  bool `json:"mutual_damage"`
}

// AttackContext is the input to one resolution call.
type AttackContext struct {
	Attacker *Combatant `json:"attacker"`
	Target   *Combatant `json:"target"`
	Weapon   *Weapon    `json:"weapon,omitempty"`
	// PreRolled carries an attack total rolled outside the pipeline
	// (e.g. at a physical table); nil means the pipeline rolls.
	PreRolled *int `json:"pre_rolled,omitempty"`
	// Zone names the shield facing struck by the attack. Empty selects
	// the first declared zone.
	Zone      string            `json:"zone,omitempty"`
	Collision *CollisionContext `json:"collision,omitempty"`
	// RangeBand is the separation in range bands for dogfights; bands
	// above DogfightRange block the maneuver.
	RangeBand int `json:"range_band,omitempty"`
}

// DamagePacket is the intermediate value between a confirmed hit and its
// application. Constructed and consumed within one resolve call.
type DamagePacket struct {
	Amount         int         `json:"amount"`
	Class          WeaponClass `json:"class"`
	ApplyShields   bool        `json:"apply_shields"`
	CheckThreshold bool        `json:"check_threshold"`
}

// Snapshot is a point-in-time copy of mutable combatant state, embedded in
// resolution results for display and audit.
type Snapshot struct {
	ID         string            `json:"id"`
	HP         int               `json:"hp"`
	BonusHP    int               `json:"bonus_hp,omitempty"`
	TempHP     int               `json:"temp_hp,omitempty"`
	Condition  string            `json:"condition"`
	Defense    int               `json:"defense"`
	Zones      map[string]int    `json:"zones,omitempty"`
	Subsystems map[string]string `json:"subsystems,omitempty"`
	Destroyed  bool              `json:"destroyed,omitempty"`
}

// Snap captures the combatant's current mutable state.
func (c *Combatant) Snap() Snapshot {
	s := Snapshot{
		ID:        c.ID,
		HP:        c.HP,
		BonusHP:   c.BonusHP,
		TempHP:    c.TempHP,
		Condition: c.Condition.String(),
		Defense:   c.Defense,
		Destroyed: c.Destroyed,
	}
	if len(c.Zones) > 0 {
		s.Zones = make(map[string]int, len(c.Zones))
		for _, z := range c.Zones {
			s.Zones[z.Name] = z.Current
		}
	}
	if len(c.Subsystems) > 0 {
		s.Subsystems = make(map[string]string, len(c.Subsystems))
		for _, sub := range c.Subsystems {
			s.Subsystems[sub.Name] = string(sub.Status)
		}
	}
	return s
}
