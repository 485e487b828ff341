// Package score derives the three behavioral scores (engagement, stress,
// confidence) from one canonical observation.
//
// Each score starts at a fixed base and accumulates per-category deltas
// from explicit weight tables, then clamps to [0,100]. Smoothing against
// the previous snapshot is enabled by default (weight 0.3 on the new value,
// 0.7 on the prior smoothed value) to suppress single-frame jitter; set
// Config.SmoothingWeight to 0 to disable it.
package score

import (
	"time"

	"github.com/cognisync/go-cognisync/internal/log"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

// Score bases and thresholds.
const (
	engagementBase = 50.0
	stressBase     = 20.0
	confidenceBase = 50.0

	// Above this stress level, confidence is capped: high stress limits
	// perceived confidence even when posture looks composed.
	confidenceCapStress = 70.0

	// DefaultSmoothingWeight is the weight applied to the new raw value
	// when smoothing against the prior smoothed snapshot.
	DefaultSmoothingWeight = 0.3
)

// Snapshot holds the derived scores for one observation.
type Snapshot struct {
	Engagement float64 `json:"engagement_score"`
	Stress     float64 `json:"stress_score"`
	Confidence float64 `json:"confidence_score"`

	// ProcessingMS is filled in by the pipeline once the full call
	// completes; zero until then.
	ProcessingMS float64 `json:"processing_time_ms"`

	Timestamp time.Time `json:"timestamp"`
}

// Config holds score engine tuning.
type Config struct {
	// SmoothingWeight in (0,1] blends the raw score with the previous
	// smoothed snapshot. Zero disables smoothing.
	SmoothingWeight float64
}

// DefaultConfig returns the default engine tuning.
func DefaultConfig() Config {
	return Config{SmoothingWeight: DefaultSmoothingWeight}
}

// Engine computes score snapshots from observations.
type Engine struct {
	cfg Config
}

// New creates a score engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

var attentionEngagement = map[signal.Attention]float64{
	signal.AttentionHigh:   30,
	signal.AttentionMedium: 10,
	signal.AttentionLow:    -20,
}

var emotionEngagement = map[signal.Emotion]float64{
	signal.EmotionHappy:     15,
	signal.EmotionSurprised: 10,
	signal.EmotionNeutral:   0,
	signal.EmotionSad:       -10,
	signal.EmotionAngry:     -5,
	signal.EmotionDisgusted: -15,
	signal.EmotionFearful:   -10,
}

var postureEngagement = map[signal.Posture]float64{
	signal.PostureUpright:        10,
	signal.PostureLeaningForward: 15,
	signal.PostureNeutral:        0,
	signal.PostureSlouched:       -15,
}

var speechEngagement = map[signal.SpeechSpeed]float64{
	signal.SpeechFast:   -5,
	signal.SpeechNormal: 5,
	signal.SpeechSlow:   0,
	signal.SpeechSilent: -10,
}

// Moderate motion reads as attentive presence; both extremes cost.
var motionEngagement = map[signal.Motion]float64{
	signal.MotionModerate: 5,
	signal.MotionStill:    -5,
	signal.MotionRestless: -5,
}

var emotionStress = map[signal.Emotion]float64{
	signal.EmotionFearful:   40,
	signal.EmotionAngry:     35,
	signal.EmotionDisgusted: 25,
	signal.EmotionSad:       20,
	signal.EmotionSurprised: 15,
	signal.EmotionNeutral:   5,
	signal.EmotionHappy:     -10,
}

var toneStress = map[signal.Tone]float64{
	signal.ToneStressed: 25,
	signal.ToneCalm:     -10,
	signal.ToneNeutral:  0,
	signal.ToneExcited:  10,
}

var pauseStress = map[signal.Pauses]float64{
	signal.PausesFrequent: 15,
	signal.PausesMinimal:  0,
	signal.PausesNone:     5,
}

// Silence under observation reads as anxiety, same as rushed speech.
var speechStress = map[signal.SpeechSpeed]float64{
	signal.SpeechFast:   10,
	signal.SpeechSilent: 10,
	signal.SpeechNormal: 0,
	signal.SpeechSlow:   0,
}

var motionStress = map[signal.Motion]float64{
	signal.MotionRestless: 20,
	signal.MotionModerate: 5,
	signal.MotionStill:    -5,
}

var postureConfidence = map[signal.Posture]float64{
	signal.PostureUpright:        20,
	signal.PostureLeaningForward: 15,
	signal.PostureNeutral:        0,
	signal.PostureSlouched:       -20,
}

var emotionConfidence = map[signal.Emotion]float64{
	signal.EmotionHappy:     15,
	signal.EmotionNeutral:   5,
	signal.EmotionSurprised: -5,
	signal.EmotionAngry:     -10,
	signal.EmotionFearful:   -25,
	signal.EmotionSad:       -15,
	signal.EmotionDisgusted: -10,
}

var speechConfidence = map[signal.SpeechSpeed]float64{
	signal.SpeechFast:   -5,
	signal.SpeechNormal: 10,
	signal.SpeechSlow:   -5,
	signal.SpeechSilent: -15,
}

// Compute derives a snapshot from one observation, smoothed against prev
// when smoothing is enabled and prev is non-nil. It always returns a valid
// clamped triple, whatever the observation contains.
func (e *Engine) Compute(obs signal.Observation, prev *Snapshot) Snapshot {
	engagement := engagementBase +
		attentionEngagement[obs.Attention] +
		emotionEngagement[obs.Emotion] +
		postureEngagement[obs.Posture] +
		motionEngagement[obs.Motion]

	stress := stressBase +
		emotionStress[obs.Emotion] +
		motionStress[obs.Motion]

	confidence := confidenceBase +
		attentionEngagement[obs.Attention]*0.5 +
		postureConfidence[obs.Posture] +
		emotionConfidence[obs.Emotion]

	if obs.Audio != nil {
		engagement += speechEngagement[obs.Audio.SpeechSpeed]
		stress += toneStress[obs.Audio.Tone] +
			pauseStress[obs.Audio.Pauses] +
			speechStress[obs.Audio.SpeechSpeed]
		confidence += speechConfidence[obs.Audio.SpeechSpeed]
	}

	// Collapsed or forward-pressed posture while attention is gone reads
	// as discomfort, not relaxation.
	if obs.Attention == signal.AttentionLow &&
		(obs.Posture == signal.PostureSlouched || obs.Posture == signal.PostureLeaningForward) {
		stress += 10
	}

	stress = clamp("stress", stress)

	if stress > confidenceCapStress {
		if cap := 100 - (stress - confidenceCapStress); confidence > cap {
			confidence = cap
		}
	}

	snap := Snapshot{
		Engagement: clamp("engagement", engagement),
		Stress:     stress,
		Confidence: clamp("confidence", confidence),
		Timestamp:  obs.Timestamp,
	}

	if e.cfg.SmoothingWeight > 0 && prev != nil {
		w := e.cfg.SmoothingWeight
		snap.Engagement = clamp("engagement", w*snap.Engagement+(1-w)*prev.Engagement)
		snap.Stress = clamp("stress", w*snap.Stress+(1-w)*prev.Stress)
		snap.Confidence = clamp("confidence", w*snap.Confidence+(1-w)*prev.Confidence)
	}

	return snap
}

// clamp bounds a score to [0,100]. Values outside the band are expected
// for extreme signal combinations; anything wildly out indicates a broken
// weight table and gets logged.
func clamp(dimension string, v float64) float64 {
	if v < 0 {
		if v < -100 {
			log.Warn("score far below range before clamp", "dimension", dimension, "value", v)
		}
		return 0
	}
	if v > 100 {
		if v > 200 {
			log.Warn("score far above range before clamp", "dimension", dimension, "value", v)
		}
		return 100
	}
	return v
}
