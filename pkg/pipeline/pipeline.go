// Package pipeline orchestrates one analysis call: normalize the raw
// signals, score them, evaluate alerts against session history, and
// produce tactical advice.
//
// Scoring, alert evaluation, and the history append happen atomically
// under the session lock. Advice generation can block on an external
// provider, so it runs after the lock is released; its rotation cursor is
// merged back in a second short critical section.
package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cognisync/go-cognisync/pkg/advisor"
	"github.com/cognisync/go-cognisync/pkg/alert"
	"github.com/cognisync/go-cognisync/pkg/hub"
	"github.com/cognisync/go-cognisync/pkg/score"
	"github.com/cognisync/go-cognisync/pkg/session"
	"github.com/cognisync/go-cognisync/pkg/signal"
	"github.com/cognisync/go-cognisync/pkg/store"
)

// Result is the full outcome of one analysis call.
type Result struct {
	SessionID       string   `json:"session_id"`
	Emotion         string   `json:"emotion"`
	Posture         string   `json:"posture"`
	Attention       string   `json:"attention"`
	Movement        string   `json:"movement"`
	EngagementScore float64  `json:"engagement_score"`
	StressScore     float64  `json:"stress_score"`
	ConfidenceScore float64  `json:"confidence_score"`
	Advice          string   `json:"advice"`
	Alerts          []string `json:"alerts"`
	ProcessingMS    float64  `json:"processing_time_ms"`
}

// Pipeline wires the analysis stages together.
type Pipeline struct {
	sessions *session.Manager
	scores   *score.Engine
	alerts   *alert.Engine
	adv      *advisor.Advisor

	st     *store.Store
	feed   *hub.Hub
	logger *slog.Logger
}

// Option configures optional pipeline stages.
type Option func(*Pipeline)

// WithStore enables best-effort persistence of results and alerts.
func WithStore(s *store.Store) Option {
	return func(p *Pipeline) { p.st = s }
}

// WithHub enables live-feed broadcasting of results and alerts.
func WithHub(h *hub.Hub) Option {
	return func(p *Pipeline) { p.feed = h }
}

// New creates a pipeline.
func New(sessions *session.Manager, scores *score.Engine, alerts *alert.Engine, adv *advisor.Advisor, opts ...Option) *Pipeline {
	p := &Pipeline{
		sessions: sessions,
		scores:   scores,
		alerts:   alerts,
		adv:      adv,
		logger:   slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one observation through the full pipeline. An empty
// sessionKey starts a fresh session under a generated ID.
func (p *Pipeline) Process(ctx context.Context, sessionKey string, raw signal.RawSignals) (*Result, error) {
	start := time.Now()
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	obs := signal.Normalize(raw, start)
	sess := p.sessions.Get(sessionKey)

	var (
		snap  score.Snapshot
		fired []alert.Alert
		actx  advisor.Context
		rot   advisor.Rotation
	)
	sess.Update(func(st *session.State) {
		st.Calls++
		snap = p.scores.Compute(obs, st.LastSnapshot())
		fired = p.alerts.Evaluate(st, obs, snap)

		actx = advisor.Context{
			Observation:    obs,
			Snapshot:       snap,
			Trend:          st.Trend(snap),
			Alerts:         fired,
			RecentEmotions: st.RecentEmotions(3),
		}
		// Shift vs. three calls back, current excluded.
		if prior := st.SnapshotAgo(2); prior != nil {
			actx.HasShift = true
			actx.EngagementShift = snap.Engagement - prior.Engagement
			actx.StressShift = snap.Stress - prior.Stress
		}
		rot = advisor.Rotation{Key: st.RotationKey, Hits: st.RotationHits}

		st.Append(session.Entry{Observation: obs, Snapshot: snap})
	})

	advice, rot := p.adv.Advise(ctx, actx, rot)
	sess.Update(func(st *session.State) {
		st.RotationKey = rot.Key
		st.RotationHits = rot.Hits
	})

	result := &Result{
		SessionID:       sessionKey,
		Emotion:         string(obs.Emotion),
		Posture:         string(obs.Posture),
		Attention:       string(obs.Attention),
		Movement:        string(obs.Motion),
		EngagementScore: round1(snap.Engagement),
		StressScore:     round1(snap.Stress),
		ConfidenceScore: round1(snap.Confidence),
		Advice:          advice,
		Alerts:          alert.Messages(fired),
		ProcessingMS:    round1(float64(time.Since(start).Microseconds()) / 1000),
	}

	p.persist(ctx, result, fired)
	p.publish(result, fired)

	return result, nil
}

// History returns the display window for a session, oldest first. The
// second return is false for unknown sessions.
func (p *Pipeline) History(sessionKey string) ([]session.Entry, bool) {
	sess, ok := p.sessions.Peek(sessionKey)
	if !ok {
		return nil, false
	}
	return sess.History(), true
}

// persist writes the call outcome to the event log. Failures are logged
// and never surface to the caller.
func (p *Pipeline) persist(ctx context.Context, res *Result, fired []alert.Alert) {
	if p.st == nil {
		return
	}
	err := p.st.LogAnalysis(ctx, store.AnalysisRecord{
		SessionID:  res.SessionID,
		Emotion:    res.Emotion,
		Posture:    res.Posture,
		Attention:  res.Attention,
		Movement:   res.Movement,
		Engagement: res.EngagementScore,
		Stress:     res.StressScore,
		Confidence: res.ConfidenceScore,
		Advice:     res.Advice,
	})
	if err != nil {
		p.logger.Warn("persist analysis failed", "session_id", res.SessionID, "error", err)
	}
	for _, a := range fired {
		err := p.st.LogAlert(ctx, store.AlertRecord{
			SessionID: res.SessionID,
			Kind:      string(a.Kind),
			Severity:  string(a.Severity),
			Message:   a.Message,
		})
		if err != nil {
			p.logger.Warn("persist alert failed", "session_id", res.SessionID, "kind", a.Kind, "error", err)
		}
	}
}

// publish pushes the call outcome onto the live feed.
func (p *Pipeline) publish(res *Result, fired []alert.Alert) {
	if p.feed == nil {
		return
	}
	if err := p.feed.BroadcastEvent(hub.Event{
		Type:      hub.EventAnalysis,
		SessionID: res.SessionID,
		Data:      res,
	}); err != nil {
		p.logger.Warn("broadcast analysis failed", "error", err)
	}
	for _, a := range fired {
		if err := p.feed.BroadcastEvent(hub.Event{
			Type:      hub.EventAlert,
			SessionID: res.SessionID,
			Data:      a,
		}); err != nil {
			p.logger.Warn("broadcast alert failed", "error", err)
		}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
