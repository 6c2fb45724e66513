package game

import (
	"github.com/holotable/arena/internal/engine"
	"github.com/holotable/arena/internal/models"
)

// Mode selects which fixed phase sequence a resolve call runs.
type Mode string

const (
	ModeCharacterAttack Mode = "character_attack"
	ModeVehicleAttack   Mode = "vehicle_attack"
	ModeDogfight        Mode = "dogfight"
	ModeCollision       Mode = "collision"
)

// Phase names one step of a resolution sequence. The ordered list of
// executed phases is recorded on every result for audit.
type Phase string

const (
	PhaseSubsystemCheck  Phase = "subsystem_check"
	PhaseRoll            Phase = "roll"
	PhaseModifiers       Phase = "modifiers"
	PhaseHitCheck        Phase = "hit_check"
	PhaseDamageRoll      Phase = "damage_roll"
	PhaseShieldAbsorb    Phase = "shield_absorb"
	PhaseDamageApply     Phase = "damage_apply"
	PhaseThresholdCheck  Phase = "threshold_check"
	PhaseEscalate        Phase = "escalate"
	PhaseRangeCheck      Phase = "range_check"
	PhaseOpposedRoll     Phase = "opposed_roll"
	PhaseManeuverEffect  Phase = "maneuver_effect"
	PhaseCollisionDamage Phase = "collision_damage"
	PhaseNotifyCollision Phase = "notify_collision"
	PhaseDisplay         Phase = "display"
)

// DuelOutcome summarizes an opposed pilot contest.
type DuelOutcome struct {
	AttackerCheck engine.CheckResult `json:"attacker_check"`
	DefenderCheck engine.CheckResult `json:"defender_check"`
	WinnerID      string             `json:"winner_id,omitempty"` // empty on tie
	Effect        string             `json:"effect,omitempty"`    // applied to the loser
}

// ResolutionResult captures outcome and logs for one resolve call.
// Logs is the human-readable narration; Phases is the machine audit trail.
type ResolutionResult struct {
	Mode    Mode   `json:"mode"`
	Hit     bool   `json:"hit"`
	Blocked bool   `json:"blocked,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
	Error   string `json:"error,omitempty"`

	AttackRoll *engine.CheckResult `json:"attack_roll,omitempty"`
	DamageRoll int                 `json:"damage_roll,omitempty"`
	Absorbed   int                 `json:"absorbed,omitempty"`
	Applied    int                 `json:"applied,omitempty"`
	// Collision with mutual damage also hurts the rammer.
	AttackerApplied int `json:"attacker_applied,omitempty"`

	ThresholdExceeded bool   `json:"threshold_exceeded,omitempty"`
	Escalated         string `json:"escalated,omitempty"`
	EscalationNoop    bool   `json:"escalation_noop,omitempty"`
	Destroyed         bool   `json:"destroyed,omitempty"`
	// Attacker-side mirrors for mutual-damage collisions.
	AttackerThresholdExceeded bool   `json:"attacker_threshold_exceeded,omitempty"`
	AttackerEscalated         string `json:"attacker_escalated,omitempty"`

	Duel *DuelOutcome `json:"duel,omitempty"`

	Attacker models.Snapshot `json:"attacker"`
	Target   models.Snapshot `json:"target"`

	Phases    []Phase  `json:"phases"`
	Logs      []string `json:"logs"`
	FollowUps []Action `json:"follow_ups,omitempty"`
}

// ExecutedPhase reports whether the named phase ran.
func (r *ResolutionResult) ExecutedPhase(p Phase) bool {
	for _, ph := range r.Phases {
		if ph == p {
			return true
		}
	}
	return false
}
