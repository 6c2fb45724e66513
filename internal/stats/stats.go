package stats

import (
	"sync"
	"time"

	"github.com/holotable/arena/internal/game"
)

// Summary aggregates one player's resolution outcomes (in-memory).
type Summary struct {
	Resolutions int `json:"resolutions"`
	Hits        int `json:"hits"`
	Misses      int `json:"misses"`
	Blocked     int `json:"blocked"`
	DamageDealt int `json:"damage_dealt"`
	Destroys    int `json:"destroys"`
	DuelWins    int `json:"duel_wins"`
}

// BestAttack is the hardest single hit recorded for a day.
type BestAttack struct {
	Player string    `json:"player"`
	Mode   string    `json:"mode"`
	Damage int       `json:"damage"`
	At     time.Time `json:"at"`
}

var (
	statsMu sync.Mutex
	byUser  = make(map[string]*Summary)
	// Global daily best attack (by date string YYYY-MM-DD UTC)
	dailyBest = make(map[string]BestAttack)
)

// Record folds one resolution result into the player's summary and the
// daily best-attack record.
func Record(player string, res *game.ResolutionResult) {
	if res == nil || res.Failed {
		return
	}
	statsMu.Lock()
	defer statsMu.Unlock()

	s := byUser[player]
	if s == nil {
		s = &Summary{}
		byUser[player] = s
	}
	s.Resolutions++
	switch {
	case res.Blocked:
		s.Blocked++
	case res.Mode == game.ModeDogfight:
		if res.Duel != nil && res.Duel.WinnerID != "" && res.Duel.WinnerID == res.Attacker.ID {
			s.DuelWins++
		}
	case res.Hit:
		s.Hits++
		s.DamageDealt += res.Applied
		if res.Destroyed {
			s.Destroys++
		}
	default:
		s.Misses++
	}

	if res.Hit && res.Applied > 0 {
		key := time.Now().UTC().Format("2006-01-02")
		if cur, ok := dailyBest[key]; !ok || res.Applied > cur.Damage {
			dailyBest[key] = BestAttack{
				Player: player,
				Mode:   string(res.Mode),
				Damage: res.Applied,
				At:     time.Now().UTC(),
			}
		}
	}
}

// Get returns a copy of the player's summary.
func Get(player string) Summary {
	statsMu.Lock()
	defer statsMu.Unlock()
	if s, ok := byUser[player]; ok {
		return *s
	}
	return Summary{}
}

// All returns a copy of every player summary, for leaderboards.
func All() map[string]Summary {
	statsMu.Lock()
	defer statsMu.Unlock()
	out := make(map[string]Summary, len(byUser))
	for k, v := range byUser {
		out[k] = *v
	}
	return out
}

// BestToday returns today's best attack, if any.
func BestToday() (BestAttack, bool) {
	statsMu.Lock()
	defer statsMu.Unlock()
	b, ok := dailyBest[time.Now().UTC().Format("2006-01-02")]
	return b, ok
}
