// Package alert detects discrete behavioral events by comparing the
// current observation and scores against a session's recent history.
//
// Detection policy lives in an ordered table of rules evaluated in fixed
// priority order (attention > stress > engagement > inconsistency), so the
// emitted alert order is reproducible for identical input sequences. Each
// rule is edge- or threshold-triggered against history, never
// level-triggered, and every kind has an independent call-count cooldown.
package alert

import (
	"github.com/cognisync/go-cognisync/pkg/score"
	"github.com/cognisync/go-cognisync/pkg/session"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

// Kind identifies a class of behavioral alert.
type Kind string

// Alert kinds, in emission priority order.
const (
	KindAttentionLost Kind = "attention_lost"
	KindStressSpike   Kind = "stress_spike"
	KindEngagementDrop Kind = "engagement_drop"
	KindInconsistency  Kind = "behavioral_inconsistency"
)

// Severity grades an alert.
type Severity string

// Severity levels.
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one detected behavioral event. Ephemeral: produced per call,
// never stored in session state.
type Alert struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Config holds detection thresholds.
type Config struct {
	// StressHigh is the upward stress crossing that fires stress_spike.
	StressHigh float64

	// StressRearm is the lower hysteresis bound: stress must have been
	// below it before stress_spike can fire again.
	StressRearm float64

	// EngagementDropDelta is the negative engagement delta (vs. the
	// analytic window mean) that fires engagement_drop.
	EngagementDropDelta float64

	// InconsistencyStress is the stress floor for the happy-but-stressed
	// contradiction check.
	InconsistencyStress float64

	// CooldownCalls is the minimum number of calls between firings of
	// the same kind. Calls arrive at a fixed ~1s interval upstream, so
	// call count is the stable unit.
	CooldownCalls int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		StressHigh:          70,
		StressRearm:         60,
		EngagementDropDelta: 15,
		InconsistencyStress: 60,
		CooldownCalls:       3,
	}
}

// evalInput is everything a rule predicate may look at. Predicates must
// tolerate nil Prev and absent audio.
type evalInput struct {
	Obs   signal.Observation
	Cur   score.Snapshot
	Trend session.Trend

	// Prev is the previous snapshot, nil on a fresh session.
	Prev *score.Snapshot

	// PrevAttention is the previous observation's attention, empty on a
	// fresh session.
	PrevAttention signal.Attention
}

type rule struct {
	kind     Kind
	severity Severity
	message  string
	fires    func(in evalInput) bool
}

// Engine evaluates the alert rule table against session state.
type Engine struct {
	cfg   Config
	rules []rule
}

// New creates an alert engine with the given thresholds.
func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg}
	e.rules = []rule{
		{
			kind:     KindAttentionLost,
			severity: SeverityCritical,
			message:  "Attention lost - subject is disengaged",
			fires: func(in evalInput) bool {
				// Edge-triggered: only on the transition into low.
				return in.Obs.Attention == signal.AttentionLow &&
					in.PrevAttention != signal.AttentionLow
			},
		},
		{
			kind:     KindStressSpike,
			severity: SeverityCritical,
			message:  "Stress level spiking",
			fires: func(in evalInput) bool {
				if in.Cur.Stress <= cfg.StressHigh {
					return false
				}
				// Hysteresis: re-arm only after stress dips below the
				// lower bound. A fresh session counts as armed.
				return in.Prev == nil || in.Prev.Stress < cfg.StressRearm
			},
		},
		{
			kind:     KindEngagementDrop,
			severity: SeverityWarning,
			message:  "Engagement dropping significantly",
			fires: func(in evalInput) bool {
				return in.Trend.Engagement < -cfg.EngagementDropDelta
			},
		},
		{
			kind:     KindInconsistency,
			severity: SeverityWarning,
			message:  "Positive expression contradicts elevated stress",
			fires: func(in evalInput) bool {
				// The one cross-signal rule: expression and the
				// independently derived stress score disagree.
				return in.Obs.Emotion == signal.EmotionHappy &&
					in.Cur.Stress >= cfg.InconsistencyStress
			},
		},
	}
	return e
}

// Evaluate runs the rule table for one observation. It must be called
// under the session lock, after st.Calls has been advanced for this call
// and before the new entry is appended (history still describes the prior
// window). Firing rules on cooldown are suppressed without resetting
// their cooldown.
func (e *Engine) Evaluate(st *session.State, obs signal.Observation, cur score.Snapshot) []Alert {
	in := evalInput{
		Obs:   obs,
		Cur:   cur,
		Trend: st.Trend(cur),
		Prev:  st.LastSnapshot(),
	}
	if n := len(st.Analytic); n > 0 {
		in.PrevAttention = st.Analytic[n-1].Observation.Attention
	}

	var alerts []Alert
	for _, r := range e.rules {
		if !r.fires(in) {
			continue
		}
		if last, ok := st.Cooldowns[string(r.kind)]; ok && st.Calls-last < e.cfg.CooldownCalls {
			continue
		}
		st.Cooldowns[string(r.kind)] = st.Calls
		alerts = append(alerts, Alert{
			Kind:     r.kind,
			Severity: r.severity,
			Message:  r.message,
		})
	}
	return alerts
}

// Messages flattens alerts to their display strings, preserving order.
func Messages(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Message)
	}
	return out
}
