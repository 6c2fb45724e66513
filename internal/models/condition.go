package models

// ConditionStep is a position on the condition track. The track only moves
// one way during resolution; recovery happens between encounters.
type ConditionStep int

const (
	ConditionNormal ConditionStep = iota
	ConditionMinusOne
	ConditionMinusTwo
	ConditionMinusFive
	ConditionMinusTen
	ConditionDown // incapacitated for the living, disabled for machines
)

var conditionPenalties = [...]int{0, -1, -2, -5, -10, -10}

var conditionNames = [...]string{"normal", "-1", "-2", "-5", "-10", "down"}

// Penalty is the modifier the step applies to defenses and checks.
func (c ConditionStep) Penalty() int {
	if c < ConditionNormal || c > ConditionDown {
		return 0
	}
	return conditionPenalties[c]
}

// Worsen moves one step down the track, saturating at the bottom.
func (c ConditionStep) Worsen() ConditionStep {
	if c >= ConditionDown {
		return ConditionDown
	}
	return c + 1
}

// Down reports whether the combatant has fallen off the end of the track.
func (c ConditionStep) Down() bool {
	return c >= ConditionDown
}

func (c ConditionStep) String() string {
	if c < ConditionNormal || c > ConditionDown {
		return "unknown"
	}
	return conditionNames[c]
}
