// internal/match/match.go
//
// Match drives one game.Session on behalf of a front-end.
// Responsibilities:
//   - Parse and range-check raw human input before it reaches the session.
//   - Accept human input only while the human holds the turn.
//   - Schedule the computer's move after a think delay and drop it if the
//     round it was scheduled for has ended or been replaced.
//   - Keep the guess log and fan out events to subscribers.
//
// All session access happens under mu, so at most one guess is evaluated at a time.

package match

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberduel/apps/go-server/internal/game"
	"github.com/robalobadob/numberduel/apps/go-server/internal/metrics"
)

// DefaultThinkDelay is how long the computer "thinks" before guessing.
const DefaultThinkDelay = time.Second

const subscriberBuffer = 16

// Scheduler runs f after d and returns a function that cancels it.
// The cancel function reports whether f was still pending.
type Scheduler func(d time.Duration, f func()) (cancel func() bool)

// AfterFunc is the default Scheduler, backed by time.AfterFunc.
func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Match.
type Option func(*Match)

// WithThinkDelay sets the pause before each computer move.
func WithThinkDelay(d time.Duration) Option {
	return func(m *Match) { m.delay = d }
}

// WithScheduler replaces the timer used for computer moves.
func WithScheduler(s Scheduler) Option {
	return func(m *Match) { m.schedule = s }
}

// WithClock overrides time.Now (used for idle tracking).
func WithClock(now func() time.Time) Option {
	return func(m *Match) { m.now = now }
}

// Match is a session plus its presentation-side state.
type Match struct {
	id       string
	mu       sync.Mutex
	session  *game.Session
	delay    time.Duration
	schedule Scheduler
	now      func() time.Time

	cancelPending func() bool
	log           []LogEntry
	subs          map[uint64]chan Event
	nextSub       uint64
	lastActive    time.Time
	closed        bool
}

// New creates a match with no round started.
func New(opts ...Option) *Match {
	m := &Match{
		id:       uuid.NewString(),
		session:  game.NewSession(),
		delay:    DefaultThinkDelay,
		schedule: AfterFunc,
		now:      time.Now,
		subs:     make(map[uint64]chan Event),
	}
	for _, o := range opts {
		o(m)
	}
	m.lastActive = m.now()
	return m
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Start begins a new round with a random secret, abandoning any pending computer move.
func (m *Match) Start(cfg game.Config) (game.RoundHandle, error) {
	return m.start(cfg, nil)
}

// StartWithSecret begins a new round with a fixed secret.
func (m *Match) StartWithSecret(cfg game.Config, secret int) (game.RoundHandle, error) {
	return m.start(cfg, &secret)
}

func (m *Match) start(cfg game.Config, secret *int) (game.RoundHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return game.RoundHandle{}, ErrClosed
	}

	var (
		h   game.RoundHandle
		err error
	)
	if secret != nil {
		h, err = m.session.StartRoundWithSecret(cfg, *secret)
	} else {
		h, err = m.session.StartRound(cfg)
	}
	if err != nil {
		return game.RoundHandle{}, err
	}

	m.cancelPendingLocked()
	m.log = nil
	m.lastActive = m.now()
	metrics.RoundsStarted.Inc()
	log.Info().
		Str("matchId", m.id).
		Uint64("generation", h.Generation).
		Int("min", cfg.Min).Int("max", cfg.Max).Int("maxAttempts", cfg.MaxAttempts).
		Msg("round started")

	m.publishLocked(Event{Type: EventRoundStarted, Round: m.snapshotLocked()})
	return h, nil
}

// SubmitHuman validates raw input and submits it as the human's guess.
// Input is rejected while the round is inactive or the computer holds the turn.
// When the hint passes the turn to the computer, its move is scheduled.
func (m *Match) SubmitHuman(raw string) (game.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return game.Outcome{}, ErrClosed
	}
	if !m.session.Active() {
		metrics.Rejected.WithLabelValues("round_inactive").Inc()
		return game.Outcome{}, game.ErrRoundInactive
	}
	if m.session.Turn() != game.Human {
		metrics.Rejected.WithLabelValues("not_your_turn").Inc()
		return game.Outcome{}, fmt.Errorf("%w: computer is thinking", game.ErrNotYourTurn)
	}
	v, err := game.ParseGuess(raw, m.session.Config())
	if err != nil {
		metrics.Rejected.WithLabelValues(rejectReason(err)).Inc()
		return game.Outcome{}, err
	}

	out, err := m.session.SubmitGuess(v, game.Human)
	if err != nil {
		return game.Outcome{}, err
	}
	m.recordLocked(out)

	if out.Kind == game.OutcomeHint && m.session.Turn() == game.Computer {
		m.scheduleComputerLocked(m.session.Generation())
	}
	return out, nil
}

// scheduleComputerLocked arms the delayed computer move for round gen.
func (m *Match) scheduleComputerLocked(gen uint64) {
	m.cancelPendingLocked()
	m.cancelPending = m.schedule(m.delay, func() { m.computerTurn(gen) })
}

// computerTurn is the delayed callback. It only plays if round gen is still
// the active round and the computer still holds the turn.
func (m *Match) computerTurn(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.session.Generation() != gen || !m.session.Active() || m.session.Turn() != game.Computer {
		metrics.AbandonedMoves.Inc()
		log.Debug().Str("matchId", m.id).Uint64("generation", gen).Msg("computer move abandoned")
		return
	}
	m.cancelPending = nil

	out, err := m.session.PlayComputerTurn()
	if err != nil {
		// Without a computer move the turn never returns to the human.
		m.session.Abort()
		log.Error().Err(err).Str("matchId", m.id).Uint64("generation", gen).Msg("computer move failed, round aborted")
		m.publishLocked(Event{Type: EventRoundAborted, Round: m.snapshotLocked()})
		return
	}
	m.recordLocked(out)
}

func (m *Match) cancelPendingLocked() {
	if m.cancelPending != nil {
		if m.cancelPending() {
			metrics.AbandonedMoves.Inc()
		}
		m.cancelPending = nil
	}
}

// recordLocked appends the outcome to the log, counts it and publishes it.
func (m *Match) recordLocked(out game.Outcome) {
	m.log = append(m.log, newLogEntry(out))
	m.lastActive = m.now()
	metrics.Outcomes.WithLabelValues(string(out.Kind), out.By.String()).Inc()

	ev := log.Info()
	if !out.Terminal() {
		ev = log.Debug()
	}
	ev.Str("matchId", m.id).
		Uint64("generation", m.session.Generation()).
		Stringer("player", out.By).
		Int("guess", out.Guess).
		Str("outcome", string(out.Kind)).
		Int("attemptsLeft", out.AttemptsLeft).
		Msg("guess evaluated")

	o := out
	m.publishLocked(Event{Type: EventOutcome, Outcome: &o, Round: m.snapshotLocked()})
}

// Snapshot returns a copy of the presentation-visible state.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// LastActive returns when the match last started a round or evaluated a guess.
func (m *Match) LastActive() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActive
}

// Close stops any pending computer move and ends all subscriptions.
// Further rounds are refused with ErrClosed.
func (m *Match) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.cancelPendingLocked()
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
}

// ErrClosed is returned for operations on a closed match.
var ErrClosed = errors.New("match closed")

func rejectReason(err error) string {
	switch {
	case errors.Is(err, game.ErrNotANumber):
		return "not_a_number"
	case errors.Is(err, game.ErrOutOfRange):
		return "out_of_range"
	}
	return "other"
}
