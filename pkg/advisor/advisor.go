// Package advisor turns one analyzed observation into a short tactical
// recommendation.
//
// The advisor assembles a read-only Context from the current snapshot,
// trend, alerts, and observation, renders it into a prompt, and asks an
// inference.Provider for advice under a hard timeout. The provider is
// strictly best-effort: on any failure, timeout, or when no provider is
// configured, the advisor falls back to a deterministic tactic table.
// Context construction is idempotent; only the external generator's text
// may vary between calls.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cognisync/go-cognisync/pkg/alert"
	"github.com/cognisync/go-cognisync/pkg/inference"
	"github.com/cognisync/go-cognisync/pkg/score"
	"github.com/cognisync/go-cognisync/pkg/session"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

// SystemPrompt frames the generator as a behavioral intelligence analyst.
const SystemPrompt = `You are CogniSync, an elite real-time behavioral intelligence agent trained in FBI hostage negotiation (Chris Voss), Cialdini's influence principles, emotional intelligence (Goleman), and nonverbal signal analysis (Navarro).

Your task: analyze live multi-modal signals and give ONE sharp, specific, actionable tactical intervention - 1 to 2 sentences max.

RULES:
1. NEVER say generic things like "maintain your approach" or "watch for shifts."
2. Always reference the SPECIFIC signal you're responding to.
3. Suggest a SPECIFIC action: a question to ask, phrase to say, silence to hold, or body language to mirror.
4. If the same state has persisted for multiple frames, suggest a DIFFERENT technique than a basic rapport-builder.
5. Be direct, tactical, think like an intelligence analyst.
6. Reference the trend if something changed across the last 2-3 states.`

// Context is the read-only view handed to the advice generator.
// Never mutated after construction.
type Context struct {
	Observation signal.Observation
	Snapshot    score.Snapshot
	Trend       session.Trend
	Alerts      []alert.Alert

	// RecentEmotions are prior emotion labels, oldest first, excluding
	// the current observation.
	RecentEmotions []signal.Emotion

	// EngagementShift and StressShift compare the current snapshot with
	// the one three calls back. HasShift is false when history is too
	// short.
	EngagementShift float64
	StressShift     float64
	HasShift        bool
}

// Rotation is the per-session cursor through a tactic key's variants.
// Value semantics: the advisor returns an updated copy and the caller
// merges it back into session state.
type Rotation struct {
	Key  string
	Hits int
}

// Config holds advisor tuning.
type Config struct {
	// Timeout bounds one generation call.
	Timeout time.Duration

	// RotationEvery advances to a tactic's next variant after this many
	// consecutive hits on the same key. Zero keeps fallback advice fully
	// deterministic per (alerts, score quadrant) input.
	RotationEvery int
}

// DefaultConfig returns the default advisor tuning.
func DefaultConfig() Config {
	return Config{Timeout: 2 * time.Second}
}

// Advisor generates tactical advice with a deterministic fallback.
type Advisor struct {
	provider inference.Provider
	cfg      Config
	logger   *slog.Logger
}

// New creates an advisor. A nil provider disables generation entirely and
// every call uses the fallback table.
func New(provider inference.Provider, cfg Config) *Advisor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Advisor{
		provider: provider,
		cfg:      cfg,
		logger:   slog.Default().With("component", "advisor"),
	}
}

// BuildPrompt renders the live-signal block for the generator.
// Same Context in, same prompt out.
func BuildPrompt(actx Context) string {
	obs := actx.Observation
	snap := actx.Snapshot

	speed, pauses, tone := signal.SpeechNormal, signal.PausesMinimal, signal.ToneNeutral
	if obs.Audio != nil {
		speed, pauses, tone = obs.Audio.SpeechSpeed, obs.Audio.Pauses, obs.Audio.Tone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LIVE SIGNALS:\n")
	fmt.Fprintf(&b, "Emotion: %s | Posture: %s | Attention: %s | Movement: %s\n",
		obs.Emotion, obs.Posture, obs.Attention, obs.Motion)
	fmt.Fprintf(&b, "Speech: %s | Pauses: %s | Tone: %s\n", speed, pauses, tone)
	fmt.Fprintf(&b, "Engagement: %.0f%% | Stress: %.0f%% | Confidence: %.0f%%",
		snap.Engagement, snap.Stress, snap.Confidence)

	if actx.Trend != (session.Trend{}) {
		fmt.Fprintf(&b, "\nTREND: Engagement %s | Stress %s | Confidence %s",
			signedPercent(actx.Trend.Engagement),
			signedPercent(actx.Trend.Stress),
			signedPercent(actx.Trend.Confidence))
	}

	if len(actx.RecentEmotions) > 0 {
		labels := make([]string, 0, len(actx.RecentEmotions)+1)
		for _, e := range actx.RecentEmotions {
			labels = append(labels, string(e))
		}
		labels = append(labels, string(obs.Emotion))
		fmt.Fprintf(&b, "\nEmotion sequence: %s", strings.Join(labels, " -> "))
	}

	if len(actx.Alerts) > 0 {
		fmt.Fprintf(&b, "\nACTIVE ALERTS: %s", strings.Join(alert.Messages(actx.Alerts), "; "))
	}

	b.WriteString("\n\nProvide ONE tactical intervention (1-2 sentences). Be specific, psychological, actionable.")
	return b.String()
}

func signedPercent(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.0f%%", v)
	}
	return fmt.Sprintf("%.0f%%", v)
}

// Advise produces the tactical recommendation for one call. It never
// returns an empty string and never surfaces generator failures; the
// returned Rotation must be merged back into the session by the caller.
func (a *Advisor) Advise(ctx context.Context, actx Context, rot Rotation) (string, Rotation) {
	if a.provider != nil {
		cctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()

		resp, err := a.provider.Chat(cctx, &inference.ChatRequest{
			Messages: []inference.Message{
				inference.NewSystemMessage(SystemPrompt),
				inference.NewUserMessage(BuildPrompt(actx)),
			},
		})
		if err == nil {
			if text := strings.TrimSpace(resp.Message.Content); text != "" {
				return text, rot
			}
			err = fmt.Errorf("empty completion")
		}
		a.logger.Warn("advice generation failed, using fallback", "error", err)
	}

	return a.fallback(actx, rot)
}

// Fallback returns the deterministic rule-table advice, bypassing the
// generator. Exposed for the transport's generator-disabled mode.
func (a *Advisor) Fallback(actx Context, rot Rotation) (string, Rotation) {
	return a.fallback(actx, rot)
}
