package stats

// This file contains helpers around daily stats. It complements stats.go.

// Reset clears all in-memory stats.
// Intended for tests and dev convenience.
func Reset() {
	statsMu.Lock()
	defer statsMu.Unlock()
	for k := range byUser {
		delete(byUser, k)
	}
	for k := range dailyBest {
		delete(dailyBest, k)
	}
}
