package game

import "errors"

// Configuration errors fail fast before any phase runs, or abort the
// pipeline with nothing applied. Blocked actions and misses are results,
// not errors.
var (
	ErrUnknownMode            = errors.New("unknown resolution mode")
	ErrNilCombatant           = errors.New("attacker and target must be set")
	ErrIncompatibleCombatants = errors.New("combatant kind incompatible with mode")
	ErrMissingWeapon          = errors.New("attack context has no weapon")
	ErrUnknownZone            = errors.New("unknown shield zone")
	ErrUnknownSubsystem       = errors.New("unknown subsystem")
	ErrDerivedField           = errors.New("derived-only field cannot be written")
	ErrUnknownField           = errors.New("unknown mutation field path")
	ErrPersist                = errors.New("persistence update rejected")
)
