// Package session holds per-session rolling state for the analysis
// pipeline: two bounded history windows, alert cooldown bookkeeping, and
// the fallback-advice rotation cursor.
//
// A Session is exclusively locked for the duration of one observation's
// processing via Update, so append and alert evaluation appear atomic to
// overlapping calls on the same session. Different sessions never share a
// lock.
package session

import (
	"sync"
	"time"

	"github.com/cognisync/go-cognisync/pkg/score"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

// Window defaults. The analytic window feeds trend and alert evaluation;
// the display window only serves the UI history endpoint. They are
// intentionally independent.
const (
	DefaultAnalyticWindow = 5
	DefaultDisplayWindow  = 30
)

// Entry pairs one observation with its derived snapshot.
type Entry struct {
	Observation signal.Observation `json:"observation"`
	Snapshot    score.Snapshot     `json:"snapshot"`
}

// Trend holds the signed per-dimension delta between the current snapshot
// and the mean of the prior analytic window.
type Trend struct {
	Engagement float64 `json:"engagement_delta"`
	Stress     float64 `json:"stress_delta"`
	Confidence float64 `json:"confidence_delta"`
}

// State is the mutable per-session payload. It is only reachable through
// Session.Update, which holds the session lock.
type State struct {
	// Analytic is the short trend window, newest last.
	Analytic []Entry

	// Display is the longer UI history window, newest last.
	Display []Entry

	// Calls counts observations processed for this session. Cooldowns
	// are expressed in this unit.
	Calls int

	// Cooldowns maps alert kind to the call index it last fired at.
	Cooldowns map[string]int

	// RotationKey and RotationHits drive the fallback tactic rotation:
	// consecutive hits on the same tactic key advance through its
	// variants.
	RotationKey  string
	RotationHits int

	analyticCap int
	displayCap  int
}

// Append adds an entry to both windows, evicting from the head once a
// window exceeds its capacity.
func (st *State) Append(e Entry) {
	st.Analytic = append(st.Analytic, e)
	if len(st.Analytic) > st.analyticCap {
		st.Analytic = st.Analytic[len(st.Analytic)-st.analyticCap:]
	}
	st.Display = append(st.Display, e)
	if len(st.Display) > st.displayCap {
		st.Display = st.Display[len(st.Display)-st.displayCap:]
	}
}

// Trend compares cur against the mean of the analytic window. An empty
// window yields zero deltas, not an error.
func (st *State) Trend(cur score.Snapshot) Trend {
	if len(st.Analytic) == 0 {
		return Trend{}
	}
	var eng, stress, conf float64
	for _, e := range st.Analytic {
		eng += e.Snapshot.Engagement
		stress += e.Snapshot.Stress
		conf += e.Snapshot.Confidence
	}
	n := float64(len(st.Analytic))
	return Trend{
		Engagement: cur.Engagement - eng/n,
		Stress:     cur.Stress - stress/n,
		Confidence: cur.Confidence - conf/n,
	}
}

// LastSnapshot returns the most recent snapshot, or nil on a fresh session.
func (st *State) LastSnapshot() *score.Snapshot {
	if len(st.Analytic) == 0 {
		return nil
	}
	snap := st.Analytic[len(st.Analytic)-1].Snapshot
	return &snap
}

// RecentEmotions returns up to n most recent emotion labels, oldest first.
func (st *State) RecentEmotions(n int) []signal.Emotion {
	start := len(st.Analytic) - n
	if start < 0 {
		start = 0
	}
	out := make([]signal.Emotion, 0, len(st.Analytic)-start)
	for _, e := range st.Analytic[start:] {
		out = append(out, e.Observation.Emotion)
	}
	return out
}

// SnapshotAgo returns the snapshot n entries back from the newest analytic
// entry, or nil when the window is too short.
func (st *State) SnapshotAgo(n int) *score.Snapshot {
	idx := len(st.Analytic) - 1 - n
	if idx < 0 {
		return nil
	}
	snap := st.Analytic[idx].Snapshot
	return &snap
}

// Session is the per-client rolling state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	state    State
}

func newSession(id string, analyticCap, displayCap int, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
		state: State{
			Cooldowns:   make(map[string]int),
			analyticCap: analyticCap,
			displayCap:  displayCap,
		},
	}
}

// Update runs fn with exclusive access to the session state and marks the
// session as recently used.
func (s *Session) Update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	fn(&s.state)
}

// History returns a copy of the display window, oldest first.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.state.Display))
	copy(out, s.state.Display)
	return out
}

// LastSeen reports when the session last processed an observation.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// reset clears all rolling state, keeping identity. Used when a session's
// history is deemed corrupt; the fault stays contained to this session.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{
		Cooldowns:   make(map[string]int),
		analyticCap: s.state.analyticCap,
		displayCap:  s.state.displayCap,
	}
}
