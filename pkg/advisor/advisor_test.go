package advisor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cognisync/go-cognisync/pkg/alert"
	"github.com/cognisync/go-cognisync/pkg/inference"
	"github.com/cognisync/go-cognisync/pkg/score"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

func baseContext() Context {
	return Context{
		Observation: signal.Observation{
			Emotion:   signal.EmotionNeutral,
			Posture:   signal.PostureNeutral,
			Attention: signal.AttentionMedium,
			Motion:    signal.MotionModerate,
		},
		Snapshot: score.Snapshot{Engagement: 50, Stress: 50, Confidence: 50},
	}
}

func TestFallbackDeterministic(t *testing.T) {
	a := New(nil, DefaultConfig())
	actx := baseContext()

	var rot Rotation
	first, rot := a.Fallback(actx, rot)
	for i := 0; i < 10; i++ {
		var got string
		got, rot = a.Fallback(actx, rot)
		if got != first {
			t.Fatalf("Call %d diverged:\n%q\nvs\n%q", i+2, got, first)
		}
	}
	if first == "" {
		t.Fatal("Expected non-empty fallback advice")
	}
}

func TestFallbackAlertPriority(t *testing.T) {
	a := New(nil, DefaultConfig())
	actx := baseContext()
	actx.Alerts = []alert.Alert{
		{Kind: alert.KindStressSpike, Severity: alert.SeverityCritical, Message: "stress"},
		{Kind: alert.KindAttentionLost, Severity: alert.SeverityCritical, Message: "attention"},
	}

	got, _ := a.Fallback(actx, Rotation{})
	if !strings.Contains(got, "Attention has left") {
		t.Errorf("Expected attention tactic to win, got %q", got)
	}
}

func TestFallbackTrendShifts(t *testing.T) {
	a := New(nil, DefaultConfig())

	actx := baseContext()
	actx.HasShift = true
	actx.EngagementShift = -20
	if got, _ := a.Fallback(actx, Rotation{}); !strings.Contains(got, "Engagement dropping") {
		t.Errorf("Expected engagement drop tactic, got %q", got)
	}

	actx = baseContext()
	actx.HasShift = true
	actx.StressShift = 20
	if got, _ := a.Fallback(actx, Rotation{}); !strings.Contains(got, "Stress cascading") {
		t.Errorf("Expected stress spike tactic, got %q", got)
	}

	actx = baseContext()
	actx.HasShift = true
	actx.RecentEmotions = []signal.Emotion{signal.EmotionHappy, signal.EmotionSad, signal.EmotionAngry}
	if got, _ := a.Fallback(actx, Rotation{}); !strings.Contains(got, "Mixed signals") {
		t.Errorf("Expected inconsistency tactic for emotion churn, got %q", got)
	}
}

func TestFallbackLowAttentionUnderStress(t *testing.T) {
	a := New(nil, DefaultConfig())
	actx := baseContext()
	actx.Observation.Attention = signal.AttentionLow
	actx.Snapshot.Stress = 50
	actx.Snapshot.Engagement = 20

	got, _ := a.Fallback(actx, Rotation{})
	if !strings.Contains(got, "Attention lost under stress") {
		t.Errorf("Expected low-attention mid-stress tactic, got %q", got)
	}
}

func TestFallbackAngryHighStress(t *testing.T) {
	a := New(nil, DefaultConfig())
	actx := baseContext()
	actx.Observation.Emotion = signal.EmotionAngry
	actx.Snapshot.Stress = 80
	actx.Snapshot.Engagement = 20

	got, _ := a.Fallback(actx, Rotation{})
	if !strings.Contains(got, "Anger spike") {
		t.Errorf("Expected angry high-stress tactic, got %q", got)
	}
}

func TestFallbackFlowState(t *testing.T) {
	a := New(nil, DefaultConfig())
	actx := baseContext()
	actx.Observation.Emotion = signal.EmotionAngry
	actx.Snapshot.Stress = 20
	actx.Snapshot.Engagement = 80

	got, _ := a.Fallback(actx, Rotation{})
	if !strings.Contains(got, "flow state") {
		t.Errorf("Expected flow state shortcut, got %q", got)
	}
}

func TestFallbackDefaultPool(t *testing.T) {
	a := New(nil, DefaultConfig())
	actx := baseContext()
	actx.Observation.Emotion = signal.EmotionAngry

	got, _ := a.Fallback(actx, Rotation{})
	if got != defaultPool[0] {
		t.Errorf("Expected first baseline tactic, got %q", got)
	}
}

func TestFallbackRotation(t *testing.T) {
	a := New(nil, Config{RotationEvery: 4})
	actx := baseContext()
	actx.Alerts = []alert.Alert{{Kind: alert.KindStressSpike}}

	variants := alertTactics[keyStressSpike]
	var rot Rotation
	var got string
	for i := 0; i < 4; i++ {
		got, rot = a.Fallback(actx, rot)
		if got != variants[0] {
			t.Fatalf("Call %d: expected first variant, got %q", i+1, got)
		}
	}
	got, rot = a.Fallback(actx, rot)
	if got != variants[1] {
		t.Fatalf("Call 5: expected second variant, got %q", got)
	}

	// A different key resets the cursor.
	churn := baseContext()
	churn.Alerts = []alert.Alert{{Kind: alert.KindAttentionLost}}
	_, rot = a.Fallback(churn, rot)

	got, _ = a.Fallback(actx, rot)
	if got != variants[0] {
		t.Errorf("Expected rotation reset after key change, got %q", got)
	}
}

func TestBuildPromptIdempotent(t *testing.T) {
	actx := baseContext()
	actx.Observation.Audio = &signal.Audio{
		SpeechSpeed: signal.SpeechFast,
		Pauses:      signal.PausesFrequent,
		Tone:        signal.ToneStressed,
	}
	actx.Alerts = []alert.Alert{{Kind: alert.KindStressSpike, Message: "Stress spike detected"}}
	actx.RecentEmotions = []signal.Emotion{signal.EmotionHappy, signal.EmotionNeutral}

	first := BuildPrompt(actx)
	if BuildPrompt(actx) != first {
		t.Error("Expected identical prompt for identical context")
	}
	for _, want := range []string{
		"Emotion: neutral",
		"Speech: fast | Pauses: frequent | Tone: stressed",
		"Engagement: 50% | Stress: 50% | Confidence: 50%",
		"ACTIVE ALERTS: Stress spike detected",
		"happy -> neutral -> neutral",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("Prompt missing %q:\n%s", want, first)
		}
	}
}

func TestAdviseUsesProvider(t *testing.T) {
	mock := &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			if len(req.Messages) != 2 || req.Messages[0].Role != inference.RoleSystem {
				t.Errorf("Expected system+user messages, got %d", len(req.Messages))
			}
			return &inference.ChatResponse{
				Message: inference.NewAssistantMessage("  Mirror their last phrase.  "),
			}, nil
		},
	}

	a := New(mock, DefaultConfig())
	got, _ := a.Advise(context.Background(), baseContext(), Rotation{})
	if got != "Mirror their last phrase." {
		t.Errorf("Expected trimmed provider advice, got %q", got)
	}
}

func TestAdviseFallsBackOnProviderError(t *testing.T) {
	mock := &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			return nil, inference.ErrProviderUnavailable
		},
	}

	a := New(mock, DefaultConfig())
	got, _ := a.Advise(context.Background(), baseContext(), Rotation{})
	if got == "" {
		t.Fatal("Expected fallback advice on provider error")
	}
	want, _ := a.Fallback(baseContext(), Rotation{})
	if got != want {
		t.Errorf("Expected fallback text %q, got %q", want, got)
	}
}

func TestAdviseTimeout(t *testing.T) {
	mock := &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	a := New(mock, Config{Timeout: 20 * time.Millisecond})
	start := time.Now()
	got, _ := a.Advise(context.Background(), baseContext(), Rotation{})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Advise blocked for %v, timeout not enforced", elapsed)
	}
	if got == "" {
		t.Fatal("Expected fallback advice after timeout")
	}
}

func TestAdviseNilProvider(t *testing.T) {
	a := New(nil, DefaultConfig())
	got, _ := a.Advise(context.Background(), baseContext(), Rotation{})
	if got == "" {
		t.Fatal("Expected fallback advice without a provider")
	}
}
