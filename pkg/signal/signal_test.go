package signal

import (
	"testing"
	"time"
)

func TestNormalizeDefaults(t *testing.T) {
	now := time.Now()
	obs := Normalize(RawSignals{}, now)

	if obs.Emotion != EmotionNeutral {
		t.Errorf("Expected neutral emotion, got %s", obs.Emotion)
	}
	if obs.Posture != PostureNeutral {
		t.Errorf("Expected neutral posture, got %s", obs.Posture)
	}
	if obs.Attention != AttentionMedium {
		t.Errorf("Expected medium attention, got %s", obs.Attention)
	}
	if obs.Motion != MotionModerate {
		t.Errorf("Expected moderate motion, got %s", obs.Motion)
	}
	if obs.Audio != nil {
		t.Error("Expected nil audio when no audio block provided")
	}
	if !obs.Timestamp.Equal(now) {
		t.Error("Timestamp not preserved")
	}
}

func TestNormalizeUnknownValues(t *testing.T) {
	obs := Normalize(RawSignals{
		Emotion:   "ecstatic",
		Posture:   "horizontal",
		Attention: "hyper",
		Movement:  "vibrating",
	}, time.Now())

	if obs.Emotion != EmotionNeutral || obs.Posture != PostureNeutral ||
		obs.Attention != AttentionMedium || obs.Motion != MotionModerate {
		t.Errorf("Unknown values should map to defaults, got %+v", obs)
	}
}

func TestNormalizeValidValuesPreserved(t *testing.T) {
	obs := Normalize(RawSignals{
		Emotion:           "angry",
		EmotionConfidence: 88.5,
		Posture:           "slouched",
		Attention:         "low",
		Movement:          "still",
		HeadTilt:          "looking_away",
	}, time.Now())

	if obs.Emotion != EmotionAngry {
		t.Errorf("Expected angry, got %s", obs.Emotion)
	}
	if obs.Posture != PostureSlouched {
		t.Errorf("Expected slouched, got %s", obs.Posture)
	}
	if obs.Attention != AttentionLow {
		t.Errorf("Expected low, got %s", obs.Attention)
	}
	if obs.Motion != MotionStill {
		t.Errorf("Expected still, got %s", obs.Motion)
	}
	if obs.EmotionConfidence != 88.5 {
		t.Errorf("Expected confidence 88.5, got %f", obs.EmotionConfidence)
	}
	if obs.HeadTilt != "looking_away" {
		t.Errorf("Head tilt not preserved: %s", obs.HeadTilt)
	}
}

func TestNormalizeActiveAlias(t *testing.T) {
	obs := Normalize(RawSignals{Movement: "active"}, time.Now())
	if obs.Motion != MotionRestless {
		t.Errorf("Expected active to map to restless, got %s", obs.Motion)
	}
}

func TestNormalizeAudio(t *testing.T) {
	obs := Normalize(RawSignals{
		Audio: &RawAudio{SpeechSpeed: "fast", Pauses: "none", Tone: "stressed"},
	}, time.Now())

	if obs.Audio == nil {
		t.Fatal("Expected audio block")
	}
	if obs.Audio.SpeechSpeed != SpeechFast || obs.Audio.Pauses != PausesNone ||
		obs.Audio.Tone != ToneStressed {
		t.Errorf("Audio values not preserved: %+v", obs.Audio)
	}
}

func TestNormalizeAudioUnknownValues(t *testing.T) {
	obs := Normalize(RawSignals{
		Audio: &RawAudio{SpeechSpeed: "warp", Pauses: "some", Tone: "grumpy"},
	}, time.Now())

	if obs.Audio == nil {
		t.Fatal("Expected audio block even with unknown values")
	}
	if obs.Audio.SpeechSpeed != SpeechNormal || obs.Audio.Pauses != PausesMinimal ||
		obs.Audio.Tone != ToneNeutral {
		t.Errorf("Unknown audio values should map to defaults: %+v", obs.Audio)
	}
}

func TestNormalizeConfidenceOutOfRange(t *testing.T) {
	for _, c := range []float64{-5, 150} {
		obs := Normalize(RawSignals{EmotionConfidence: c}, time.Now())
		if obs.EmotionConfidence != 50 {
			t.Errorf("Confidence %f should reset to 50, got %f", c, obs.EmotionConfidence)
		}
	}
}
