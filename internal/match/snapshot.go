// internal/match/snapshot.go
//
// Read-only match view served over HTTP and in events.
// Responsibilities:
//   - Copy session state and the guess log under the match lock.
//   - Reveal the secret and winner only once the round has concluded.

package match

import "github.com/robalobadob/numberduel/apps/go-server/internal/game"

// Snapshot is the read-only view a front-end renders: turn indicator,
// attempts counter and guess log. The secret is only present once the
// round has concluded.
type Snapshot struct {
	MatchID      string       `json:"matchId"`
	Generation   uint64       `json:"generation"`
	State        game.State   `json:"state"`
	Turn         game.Player  `json:"turn"`
	AttemptsUsed int          `json:"attemptsUsed"`
	AttemptsLeft int          `json:"attemptsLeft"`
	Min          int          `json:"min"`
	Max          int          `json:"max"`
	MaxAttempts  int          `json:"maxAttempts"`
	Secret       *int         `json:"secret,omitempty"`
	Winner       *game.Player `json:"winner,omitempty"`
	Log          []LogEntry   `json:"log"`
}

func (m *Match) snapshotLocked() Snapshot {
	s := m.session
	cfg := s.Config()
	snap := Snapshot{
		MatchID:      m.id,
		Generation:   s.Generation(),
		State:        s.State(),
		Turn:         s.Turn(),
		AttemptsUsed: s.AttemptsUsed(),
		AttemptsLeft: s.AttemptsLeft(),
		Min:          cfg.Min,
		Max:          cfg.Max,
		MaxAttempts:  cfg.MaxAttempts,
		Log:          append([]LogEntry{}, m.log...),
	}
	if v, ok := s.Secret(); ok {
		snap.Secret = &v
	}
	if s.State() == game.StateWon && len(m.log) > 0 {
		w := m.log[len(m.log)-1].By
		snap.Winner = &w
	}
	return snap
}
