package models

import "fmt"

// Field paths understood by the mutation authority. Zone and subsystem
// changes use a dotted form: "zones.front", "subsystems.weapons".
const (
	FieldHP        = "hp"
	FieldBonusHP   = "bonus_hp"
	FieldTempHP    = "temp_hp"
	FieldCondition = "condition"
	FieldDestroyed = "destroyed"
	// FieldDefense is derived-only; plans naming it are rejected.
	FieldDefense = "defense"
)

// FieldChange is one proposed write, with the old value kept for audit.
type FieldChange struct {
	Path string `json:"path"`
	From any    `json:"from"`
	To   any    `json:"to"`
}

// MutationPlan accumulates the field-level changes one resolution proposes
// against a single combatant. Phases append to it; only the mutation
// authority applies it. A plan that is never applied costs nothing.
type MutationPlan struct {
	Target  *Combatant    `json:"-"`
	Changes []FieldChange `json:"changes"`
}

// NewPlan starts an empty plan against target.
func NewPlan(target *Combatant) *MutationPlan {
	return &MutationPlan{Target: target}
}

// Empty reports whether the plan proposes no writes.
func (p *MutationPlan) Empty() bool {
	return len(p.Changes) == 0
}

func (p *MutationPlan) add(path string, from, to any) {
	p.Changes = append(p.Changes, FieldChange{Path: path, From: from, To: to})
}

// SetHP proposes a new hit-point value.
func (p *MutationPlan) SetHP(to int) {
	p.add(FieldHP, p.Target.HP, to)
}

// SetBonusHP proposes a new bonus-pool value.
func (p *MutationPlan) SetBonusHP(to int) {
	p.add(FieldBonusHP, p.Target.BonusHP, to)
}

// SetTempHP proposes a new temporary-pool value.
func (p *MutationPlan) SetTempHP(to int) {
	p.add(FieldTempHP, p.Target.TempHP, to)
}

// SetCondition proposes a new condition-track position.
func (p *MutationPlan) SetCondition(to ConditionStep) {
	p.add(FieldCondition, p.Target.Condition, to)
}

// SetDestroyed proposes the destroyed sentinel.
func (p *MutationPlan) SetDestroyed() {
	p.add(FieldDestroyed, p.Target.Destroyed, true)
}

// SetZone proposes a new capacity for a named shield zone.
func (p *MutationPlan) SetZone(name string, to int) {
	from := 0
	if z := p.Target.Zone(name); z != nil {
		from = z.Current
	}
	p.add("zones."+name, from, to)
}

// SetSubsystem proposes a new status for a named subsystem.
func (p *MutationPlan) SetSubsystem(name string, to SubsystemStatus) {
	from := SubsystemStatus("")
	if s := p.Target.Subsystem(name); s != nil {
		from = s.Status
	}
	p.add("subsystems."+name, from, to)
}

// DocumentUpdates flattens the plan into dotted field paths for the
// persistence collaborator, keyed the way document stores expect.
func (p *MutationPlan) DocumentUpdates() map[string]any {
	out := make(map[string]any, len(p.Changes))
	for _, ch := range p.Changes {
		out[ch.Path] = ch.To
	}
	return out
}

func (p *MutationPlan) String() string {
	return fmt.Sprintf("plan(%s: %d changes)", p.Target.ID, len(p.Changes))
}
