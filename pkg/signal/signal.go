// Package signal defines the canonical multi-modal observation consumed by
// the scoring and alerting pipeline, and the normalizer that produces it
// from raw classifier output.
//
// Normalization is fail-open: unknown or missing values map to neutral
// defaults so a degraded upstream classifier never blocks an analysis call.
package signal

import "time"

// Emotion is the facial expression classification.
type Emotion string

// Emotion values.
const (
	EmotionHappy     Emotion = "happy"
	EmotionNeutral   Emotion = "neutral"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionFearful   Emotion = "fearful"
	EmotionSurprised Emotion = "surprised"
	EmotionDisgusted Emotion = "disgusted"
)

// Posture is the body posture classification.
type Posture string

// Posture values.
const (
	PostureUpright        Posture = "upright"
	PostureLeaningForward Posture = "leaning_forward"
	PostureNeutral        Posture = "neutral"
	PostureSlouched       Posture = "slouched"
)

// Attention is the head-pose derived attention estimate.
type Attention string

// Attention values.
const (
	AttentionHigh   Attention = "high"
	AttentionMedium Attention = "medium"
	AttentionLow    Attention = "low"
)

// Motion is the frame-to-frame movement proxy.
type Motion string

// Motion values.
const (
	MotionStill    Motion = "still"
	MotionModerate Motion = "moderate"
	MotionRestless Motion = "restless"
)

// SpeechSpeed is the audio speaking-rate indicator.
type SpeechSpeed string

// SpeechSpeed values.
const (
	SpeechNormal SpeechSpeed = "normal"
	SpeechFast   SpeechSpeed = "fast"
	SpeechSlow   SpeechSpeed = "slow"
	SpeechSilent SpeechSpeed = "silent"
)

// Pauses is the audio pause-frequency indicator.
type Pauses string

// Pauses values.
const (
	PausesMinimal  Pauses = "minimal"
	PausesFrequent Pauses = "frequent"
	PausesNone     Pauses = "none"
)

// Tone is the audio prosody tone indicator.
type Tone string

// Tone values.
const (
	ToneNeutral  Tone = "neutral"
	ToneCalm     Tone = "calm"
	ToneStressed Tone = "stressed"
	ToneExcited  Tone = "excited"
)

// Audio holds the prosody indicators for one call.
// A nil *Audio means no audio was captured, which is distinct from
// audio-present-but-silent.
type Audio struct {
	SpeechSpeed SpeechSpeed `json:"speech_speed"`
	Pauses      Pauses      `json:"pauses"`
	Tone        Tone        `json:"tone_indicator"`
}

// Observation is one normalized multi-modal feature reading.
// Immutable once created; pass by value.
type Observation struct {
	Emotion   Emotion
	Posture   Posture
	Attention Attention
	Motion    Motion
	Audio     *Audio

	// EmotionConfidence is the upstream classifier's own confidence
	// percentage for the emotion label. Display only.
	EmotionConfidence float64

	// HeadTilt is the upstream head-pose label (centered, slight_turn,
	// looking_away). Display only.
	HeadTilt string

	Timestamp time.Time
}

// RawAudio is the unvalidated audio feature block from the extractor.
type RawAudio struct {
	SpeechSpeed string `json:"speech_speed"`
	Pauses      string `json:"pauses"`
	Tone        string `json:"tone_indicator"`
}

// RawSignals is the unvalidated per-frame feature set from the extractors.
type RawSignals struct {
	Emotion           string    `json:"emotion"`
	EmotionConfidence float64   `json:"confidence"`
	Posture           string    `json:"posture"`
	Attention         string    `json:"attention"`
	Movement          string    `json:"movement"`
	HeadTilt          string    `json:"head_tilt"`
	Audio             *RawAudio `json:"audio_features"`
}

var validEmotions = map[Emotion]bool{
	EmotionHappy: true, EmotionNeutral: true, EmotionSad: true,
	EmotionAngry: true, EmotionFearful: true, EmotionSurprised: true,
	EmotionDisgusted: true,
}

var validPostures = map[Posture]bool{
	PostureUpright: true, PostureLeaningForward: true,
	PostureNeutral: true, PostureSlouched: true,
}

var validAttention = map[Attention]bool{
	AttentionHigh: true, AttentionMedium: true, AttentionLow: true,
}

var validMotion = map[Motion]bool{
	MotionStill: true, MotionModerate: true, MotionRestless: true,
}

var validSpeeds = map[SpeechSpeed]bool{
	SpeechNormal: true, SpeechFast: true, SpeechSlow: true, SpeechSilent: true,
}

var validPauses = map[Pauses]bool{
	PausesMinimal: true, PausesFrequent: true, PausesNone: true,
}

var validTones = map[Tone]bool{
	ToneNeutral: true, ToneCalm: true, ToneStressed: true, ToneExcited: true,
}

// Normalize maps raw classifier output to a canonical Observation.
// It never fails: unknown or empty fields take their neutral defaults.
func Normalize(raw RawSignals, now time.Time) Observation {
	obs := Observation{
		Emotion:           Emotion(raw.Emotion),
		Posture:           Posture(raw.Posture),
		Attention:         Attention(raw.Attention),
		Motion:            Motion(raw.Movement),
		EmotionConfidence: raw.EmotionConfidence,
		HeadTilt:          raw.HeadTilt,
		Timestamp:         now,
	}

	if !validEmotions[obs.Emotion] {
		obs.Emotion = EmotionNeutral
	}
	if !validPostures[obs.Posture] {
		obs.Posture = PostureNeutral
	}
	if !validAttention[obs.Attention] {
		obs.Attention = AttentionMedium
	}
	// Some extractors label the restless extreme "active".
	if obs.Motion == "active" {
		obs.Motion = MotionRestless
	}
	if !validMotion[obs.Motion] {
		obs.Motion = MotionModerate
	}
	if obs.EmotionConfidence < 0 || obs.EmotionConfidence > 100 {
		obs.EmotionConfidence = 50
	}

	if raw.Audio != nil {
		obs.Audio = normalizeAudio(*raw.Audio)
	}

	return obs
}

func normalizeAudio(raw RawAudio) *Audio {
	a := &Audio{
		SpeechSpeed: SpeechSpeed(raw.SpeechSpeed),
		Pauses:      Pauses(raw.Pauses),
		Tone:        Tone(raw.Tone),
	}
	if !validSpeeds[a.SpeechSpeed] {
		a.SpeechSpeed = SpeechNormal
	}
	if !validPauses[a.Pauses] {
		a.Pauses = PausesMinimal
	}
	if !validTones[a.Tone] {
		a.Tone = ToneNeutral
	}
	return a
}
