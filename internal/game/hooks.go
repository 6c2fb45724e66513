package game

import "github.com/holotable/arena/internal/models"

// Checkpoint names a pipeline point where observers are notified.
type Checkpoint string

const (
	CheckpointPreResolution Checkpoint = "pre_resolution"
	CheckpointPostHit       Checkpoint = "post_hit"
)

// Action is a follow-up resolution an observer wants queued, e.g. a
// counter-attack reaction. Observers never reach into the in-flight
// pipeline; their actions come back on the result for the caller to
// submit as fresh top-level Resolve calls.
type Action struct {
	Mode    Mode                  `json:"mode"`
	Context *models.AttackContext `json:"-"`
	Note    string                `json:"note,omitempty"`
}

// Observer is invoked at defined checkpoints with read access to the
// context and the result built so far.
type Observer func(cp Checkpoint, ctx *models.AttackContext, res *ResolutionResult) []Action

func (r *run) notify(cp Checkpoint) {
	for _, obs := range r.res.observers {
		if actions := obs(cp, r.ctx, r.result); len(actions) > 0 {
			r.result.FollowUps = append(r.result.FollowUps, actions...)
		}
	}
}
