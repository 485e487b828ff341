package score

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/cognisync/go-cognisync/pkg/signal"
)

func obsFrom(t *testing.T, raw signal.RawSignals) signal.Observation {
	t.Helper()
	return signal.Normalize(raw, time.Now())
}

func TestComputeStressedSubject(t *testing.T) {
	engine := New(DefaultConfig())
	obs := obsFrom(t, signal.RawSignals{
		Emotion:   "angry",
		Posture:   "slouched",
		Attention: "low",
		Movement:  "still",
		Audio: &signal.RawAudio{
			SpeechSpeed: "fast",
			Pauses:      "none",
			Tone:        "stressed",
		},
	})

	snap := engine.Compute(obs, nil)

	if snap.Stress <= 70 {
		t.Errorf("Expected stress > 70 for angry/stressed subject, got %.1f", snap.Stress)
	}
	if snap.Engagement >= 40 {
		t.Errorf("Expected engagement < 40 for disengaged subject, got %.1f", snap.Engagement)
	}
}

func TestComputeEngagedSubject(t *testing.T) {
	engine := New(DefaultConfig())
	obs := obsFrom(t, signal.RawSignals{
		Emotion:   "happy",
		Posture:   "upright",
		Attention: "high",
		Movement:  "moderate",
	})

	snap := engine.Compute(obs, nil)

	if snap.Engagement <= 70 {
		t.Errorf("Expected engagement > 70, got %.1f", snap.Engagement)
	}
	if snap.Stress >= 30 {
		t.Errorf("Expected stress < 30, got %.1f", snap.Stress)
	}
	if snap.Confidence <= 70 {
		t.Errorf("Expected confidence > 70, got %.1f", snap.Confidence)
	}
}

func TestConfidenceCappedByStress(t *testing.T) {
	engine := New(Config{}) // no smoothing, raw values
	obs := obsFrom(t, signal.RawSignals{
		Emotion:   "angry",
		Posture:   "upright",
		Attention: "high",
		Movement:  "restless",
		Audio: &signal.RawAudio{
			SpeechSpeed: "normal",
			Pauses:      "minimal",
			Tone:        "stressed",
		},
	})

	snap := engine.Compute(obs, nil)

	if snap.Stress != 100 {
		t.Fatalf("Expected stress clamped to 100, got %.1f", snap.Stress)
	}
	// Composed posture would put raw confidence at 85; the stress ceiling
	// (100 - (stress - 70)) must pull it down to 70.
	if snap.Confidence != 70 {
		t.Errorf("Expected confidence capped at 70, got %.1f", snap.Confidence)
	}
}

func TestSmoothingBlendsPrevious(t *testing.T) {
	engine := New(DefaultConfig())
	calm := obsFrom(t, signal.RawSignals{
		Emotion: "happy", Posture: "upright", Attention: "high", Movement: "moderate",
	})
	agitated := obsFrom(t, signal.RawSignals{
		Emotion: "angry", Posture: "slouched", Attention: "low", Movement: "restless",
	})

	first := engine.Compute(calm, nil)
	second := engine.Compute(agitated, &first)
	rawSecond := engine.Compute(agitated, nil)

	if second.Stress >= rawSecond.Stress {
		t.Errorf("Smoothed stress %.1f should sit below raw %.1f after a calm frame",
			second.Stress, rawSecond.Stress)
	}
	if second.Stress <= first.Stress {
		t.Errorf("Smoothed stress %.1f should still rise above prior %.1f",
			second.Stress, first.Stress)
	}
}

func TestSmoothingStableAtSteadyState(t *testing.T) {
	engine := New(DefaultConfig())
	obs := obsFrom(t, signal.RawSignals{
		Emotion: "neutral", Posture: "neutral", Attention: "medium", Movement: "moderate",
	})

	snap := engine.Compute(obs, nil)
	for i := 0; i < 5; i++ {
		next := engine.Compute(obs, &snap)
		if diff := next.Engagement - snap.Engagement; diff > 0.001 || diff < -0.001 {
			t.Fatalf("Identical input should be a fixed point, drifted by %f", diff)
		}
		snap = next
	}
}

func TestMissingAudioDisablesAudioTerms(t *testing.T) {
	engine := New(Config{})
	base := signal.RawSignals{
		Emotion: "neutral", Posture: "neutral", Attention: "medium", Movement: "moderate",
	}
	withSilence := base
	withSilence.Audio = &signal.RawAudio{SpeechSpeed: "silent", Pauses: "minimal", Tone: "neutral"}

	noAudio := engine.Compute(obsFrom(t, base), nil)
	silent := engine.Compute(obsFrom(t, withSilence), nil)

	if silent.Stress <= noAudio.Stress {
		t.Errorf("Audible silence should raise stress over absent audio: %.1f vs %.1f",
			silent.Stress, noAudio.Stress)
	}
}

// All enum combinations, including garbage the normalizer defaults away,
// must land inside [0,100] on every dimension.
func TestScoresAlwaysInRange(t *testing.T) {
	engine := New(DefaultConfig())

	emotions := []string{"happy", "neutral", "sad", "angry", "fearful", "surprised", "disgusted", "bogus", ""}
	postures := []string{"upright", "leaning_forward", "neutral", "slouched", "bogus", ""}
	attentions := []string{"high", "medium", "low", "bogus", ""}
	movements := []string{"still", "moderate", "restless", "active", "bogus", ""}
	speeds := []string{"normal", "fast", "slow", "silent", "bogus"}
	tones := []string{"neutral", "calm", "stressed", "excited", "bogus"}

	rapid.Check(t, func(rt *rapid.T) {
		raw := signal.RawSignals{
			Emotion:           rapid.SampledFrom(emotions).Draw(rt, "emotion"),
			Posture:           rapid.SampledFrom(postures).Draw(rt, "posture"),
			Attention:         rapid.SampledFrom(attentions).Draw(rt, "attention"),
			Movement:          rapid.SampledFrom(movements).Draw(rt, "movement"),
			EmotionConfidence: rapid.Float64Range(-10, 200).Draw(rt, "confidence"),
		}
		if rapid.Bool().Draw(rt, "has_audio") {
			raw.Audio = &signal.RawAudio{
				SpeechSpeed: rapid.SampledFrom(speeds).Draw(rt, "speed"),
				Pauses:      rapid.SampledFrom([]string{"minimal", "frequent", "none", "bogus"}).Draw(rt, "pauses"),
				Tone:        rapid.SampledFrom(tones).Draw(rt, "tone"),
			}
		}

		var prev *Snapshot
		if rapid.Bool().Draw(rt, "has_prev") {
			prev = &Snapshot{
				Engagement: rapid.Float64Range(0, 100).Draw(rt, "prev_eng"),
				Stress:     rapid.Float64Range(0, 100).Draw(rt, "prev_stress"),
				Confidence: rapid.Float64Range(0, 100).Draw(rt, "prev_conf"),
			}
		}

		snap := engine.Compute(signal.Normalize(raw, time.Now()), prev)

		for _, v := range []struct {
			name string
			val  float64
		}{
			{"engagement", snap.Engagement},
			{"stress", snap.Stress},
			{"confidence", snap.Confidence},
		} {
			if v.val < 0 || v.val > 100 {
				rt.Fatalf("%s out of range: %f", v.name, v.val)
			}
		}
	})
}
