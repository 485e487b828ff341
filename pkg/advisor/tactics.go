package advisor

import (
	"github.com/cognisync/go-cognisync/pkg/alert"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

// Score zones used by the fallback table.
const (
	zoneLow  = "low"
	zoneMid  = "mid"
	zoneHigh = "high"
)

func zoneOf(v float64) string {
	switch {
	case v < 35:
		return zoneLow
	case v > 65:
		return zoneHigh
	default:
		return zoneMid
	}
}

// tacticKey addresses one cell of the tactic table:
// (emotion, attention, stress zone, engagement zone).
type tacticKey struct {
	Emotion    signal.Emotion
	Attention  signal.Attention
	Stress     string
	Engagement string
}

func (k tacticKey) id() string {
	return string(k.Emotion) + "|" + string(k.Attention) + "|" + k.Stress + "|" + k.Engagement
}

// Rotation keys for the alert-driven and baseline pools.
const (
	keyAttentionLost  = "__attention_lost__"
	keyEngagementDrop = "__engagement_drop__"
	keyStressSpike    = "__stress_spike__"
	keyInconsistency  = "__inconsistency__"
	keyDefault        = "__default__"
)

// Each entry holds escalating variants for one behavioral state. The first
// variant is the initial response; later ones are used only when rotation
// is enabled and the state persists.
var tactics = map[tacticKey][]string{

	// Low attention.
	{signal.EmotionNeutral, signal.AttentionLow, zoneLow, zoneLow}: {
		"Gaze drifted and engagement collapsed. Pattern interrupt: call their name, hold 3 seconds of silence, then ask ONE question: 'What's actually on your mind right now?'",
		"Still disengaged after the interrupt. Abandon the current frame entirely. Ask: 'If we set aside everything discussed so far, what do YOU think the real issue is?'",
		"Prolonged disengagement with calm signals reads as boredom. Use the Ben Franklin effect: ask them to help you with something small. Requested effort re-activates investment.",
	},
	{signal.EmotionNeutral, signal.AttentionLow, zoneMid, zoneLow}: {
		"Attention lost under stress. They're mentally elsewhere under pressure. Stop all content. Ask: 'What's the one thing that needs to be resolved for you to stay present here?'",
		"Still distracted under stress. Their working memory is saturated. Strip down to ONE sentence, then stay silent. Give their brain space to surface what's blocking them.",
		"Sustained stress-distraction. Name it directly: 'It feels like something outside this conversation is competing for your attention.' Naming the distraction often dissolves it.",
	},
	{signal.EmotionNeutral, signal.AttentionLow, zoneLow, zoneMid}: {
		"Mild attention drift. Deploy the Ben Franklin effect: ask a small favor or genuine opinion to re-activate investment. Effort creates engagement.",
		"Still wandering. Introduce a surprising fact or unexpected reframe to trigger a novelty response and pull focus back.",
		"Try an information gap hook: reveal one piece of information they don't know yet, then pause. The gap creates an itch that re-engages attention automatically.",
	},
	{signal.EmotionNeutral, signal.AttentionLow, zoneMid, zoneMid}: {
		"Attention fracturing under moderate stress. Ask: 'If you had to rank the priorities right now, what comes first?' Decision-making forces re-engagement.",
		"Still split-attention. Strip your message to ONE sentence, hold silence, don't fill it. Let them break the silence. What they say next is your real intelligence.",
		"Still distracted. Reframe by asking for their story from the beginning: narrative mode re-engages the prefrontal cortex.",
	},

	// Neutral, analytical.
	{signal.EmotionNeutral, signal.AttentionHigh, zoneLow, zoneHigh}: {
		"Peak analytical state with focused gaze and calm signals. Introduce your strongest data point and follow with: 'What specific outcome matters most to you?'",
		"Still in analytical mode. Use the 'Columbo technique': ask a deceptively simple question about a complex topic. Their detailed answer reveals exactly what they care about.",
		"Sustained high focus. Deploy your core message and hold silence. Analytically-dominant people perceive silence as confidence, not weakness.",
	},
	{signal.EmotionNeutral, signal.AttentionHigh, zoneLow, zoneMid}: {
		"Low stress, high attention: a clean slate. Deploy 'commitment and consistency': ask a small yes-question first: 'Would you agree that X is the main priority here?'",
		"Still focused and calm. Use authority anchoring: cite a specific credible source before your point. Authority cues double retention in calm attentive listeners.",
		"Sustained attentive baseline. Introduce a contrast: show where things could be different. Contrast drives decisions even when emotional arousal is low.",
	},
	{signal.EmotionNeutral, signal.AttentionMedium, zoneLow, zoneHigh}: {
		"Good engagement with calm physiology, ideal for rapport deepening. Mirror their vocabulary, sentence length, and pace precisely.",
		"Sustained high engagement. Use progressive disclosure, one new piece of information at a time. Scarcity of information increases perceived value.",
		"Long-duration high-engagement state. Ask your most important question now. They are mentally ready to engage at depth.",
	},
	{signal.EmotionNeutral, signal.AttentionMedium, zoneLow, zoneMid}: {
		"Stable moderate engagement, rapport territory. Use strategic mirroring: repeat their last 2-3 words as a question to deepen their explanation and signal deep listening.",
		"Continued stable baseline. Ask: 'How does this connect to what matters most to you?' Open-ended questions build psychological intimacy and increase investment.",
		"Sustained stable state. Deploy a label: 'It seems like you're carefully considering the implications here.' A well-placed label makes them feel deeply understood.",
	},
	{signal.EmotionNeutral, signal.AttentionMedium, zoneMid, zoneMid}: {
		"Moderate stress with partial engagement. Say less, ask more. Questions generate lower cognitive load than statements.",
		"Continued mid-stress. Use a 'no'-oriented question: 'Would it be unreasonable to say you'd prefer to slow down here?' Gives them control and releases pressure.",
		"Persisting mid-stress. Try reframing entirely: introduce a third perspective neither of you has discussed. Novel frames release cognitive tension.",
	},
	{signal.EmotionNeutral, signal.AttentionHigh, zoneMid, zoneHigh}: {
		"High attention plus rising stress means cognitive load is building. Slow your speech 20%, drop pitch, label: 'It seems like you're weighing something carefully...'",
		"High engagement under moderate stress. Ask expansively: 'If pressure weren't a factor at all, what would you do?' Removes the stress frame momentarily.",
		"Sustained stress under high attention. Use the 'accusation audit': name every objection you think they have before they voice it. Anticipating resistance disarms it.",
	},

	// Happy.
	{signal.EmotionHappy, signal.AttentionHigh, zoneLow, zoneHigh}: {
		"Buying signal: smile, upright posture, full attention. This is your close window. Use the assumptive close: 'So the next step would be...' Transition as if agreement is made.",
		"Still at peak positive state. Switch to a choice close: 'Would you prefer to start with X or Y?' Either answer advances things forward.",
		"Sustained happiness plus high engagement. Activate social proof NOW: 'Others in your exact situation chose this path because...' Positive states make social proof far more effective.",
	},
	{signal.EmotionHappy, signal.AttentionHigh, zoneLow, zoneMid}: {
		"Positive affect with focused attention is a likability peak. Activate reciprocity: share something exclusive or personal to cement the connection before your key ask.",
		"Still at likability peak. Express a genuine point of commonality. Perceived similarity is one of the fastest compliance triggers known.",
		"Sustained positive engagement. Tell a relevant success story about someone similar to them. Story activates mirror neurons and bypasses analytical resistance.",
	},
	{signal.EmotionHappy, signal.AttentionMedium, zoneLow, zoneHigh}: {
		"Relaxed happiness with high engagement, perfect for social proof. Reference: 'Others in this situation have found that...' to anchor your proposal in consensus.",
		"Positive state, moderate attention. Ask for their gut reaction: 'What's your instinct on this?' Gut-level questions deepen investment in outcomes.",
		"Sustained positive state. Use future-pacing: 'Imagine six months from now this worked. What changed?' Future projection in a positive state is highly generative.",
	},
	{signal.EmotionHappy, signal.AttentionHigh, zoneMid, zoneHigh}: {
		"Joy with slight stress: excitement or performance anxiety. Channel it: 'If this worked perfectly, what would that look like for you?'",
		"Continued positive arousal. Use 'foot in the door': make your smallest possible ask first. Success with small asks primes compliance for larger ones.",
		"Sustained excited state. Connect to their identity: 'This fits someone who values X, and from everything you've said, that's exactly who you are.'",
	},

	// Surprised.
	{signal.EmotionSurprised, signal.AttentionHigh, zoneLow, zoneHigh}: {
		"Peak curiosity window: elevated brows, wide eyes. Deliver your single strongest point RIGHT NOW while the dopamine spike is active. Hesitation closes this window in seconds.",
		"Still in curiosity state. Stack a second surprise layer: 'And what makes this even more compelling is...' Stacked surprises compound the dopamine response.",
		"Sustained surprise is genuine fascination. Transition to co-creation: 'What would YOU do with this information?' Co-creation in curiosity state is extremely productive.",
	},
	{signal.EmotionSurprised, signal.AttentionHigh, zoneMid, zoneMid}: {
		"Surprise with moderate stress: new information is creating cognitive dissonance. Hold silence for 5 seconds, then ask: 'What's your first reaction to that?'",
		"Still processing. Ask: 'What part of this is most unexpected to you?' Surfaces their actual objection or point of fascination.",
		"Continued surprise-processing. Use an accusation audit: name all the doubts you think they're having. Naming eliminates resistance faster than overcoming it.",
	},
	{signal.EmotionSurprised, signal.AttentionMedium, zoneMid, zoneMid}: {
		"Mild surprise with moderate engagement: processing is happening. Use the accusation audit: preemptively name their concern before they voice it.",
		"Still processing mildly. Ask: 'What would need to be true for this to make complete sense to you?' The question converts surprise into a solvable frame.",
		"Sustained mild surprise. Introduce additional supporting evidence. People in a curiosity state absorb information more quickly than in any other state.",
	},

	// Fearful.
	{signal.EmotionFearful, signal.AttentionLow, zoneHigh, zoneLow}: {
		"Fight-or-flight activated: body withdrawal, speech pauses. STOP all arguments. Label: 'It seems like this feels overwhelming right now.' Then wait silently.",
		"Still in fear state; logic is inaccessible. Offer an off-ramp: 'We don't need to solve this right now. What would make this feel less urgent?'",
		"Prolonged fear. Match your pace to a calm FM DJ voice: very slow, warm, deliberate. Their nervous system will entrain to your calm signals within 90 seconds.",
	},
	{signal.EmotionFearful, signal.AttentionMedium, zoneHigh, zoneLow}: {
		"Stress flooding with partial attention. Ask a 'no'-oriented question: 'Would it be wrong to say you need more time on this?' Restores control.",
		"Fear persisting. Label the internal experience: 'It seems like there's a concern that hasn't been voiced yet.' Creates permission to surface the real objection.",
		"Sustained fear with partial attention. Validate completely BEFORE introducing any counter-information. Validation before information is the negotiation protocol.",
	},
	{signal.EmotionFearful, signal.AttentionLow, zoneHigh, zoneMid}: {
		"Fear state with moderate engagement: they want to engage but feel unsafe. Validate fully: 'That concern makes complete sense given what you've described.'",
		"Still fearful but engaged. Create psychological safety: 'There's no wrong answer here. I'm genuinely trying to understand your perspective.' Safety unlocks re-engagement.",
		"Prolonged fear-engagement mix. Ask: 'What specifically would need to be true for you to feel confident moving forward?' Converts anxiety into a solvable problem.",
	},
	{signal.EmotionFearful, signal.AttentionMedium, zoneMid, zoneMid}: {
		"Mild anxiety, likely buying anxiety rather than rejection. Use 'That's right': summarize their position so accurately they feel completely understood.",
		"Continued mild anxiety. Introduce future certainty: describe a specific positive future involving them. Certainty of outcome reduces anxiety biologically.",
		"Persistent low-grade anxiety. Ask: 'What's the one thing that would eliminate that concern?' Directs their energy toward solutions rather than problems.",
	},

	// Angry.
	{signal.EmotionAngry, signal.AttentionMedium, zoneHigh, zoneLow}: {
		"Anger spike: jaw tension, restless movement. Do NOT match energy. Lower your volume, let them finish, then label: 'It sounds like this has been frustrating for a long time.'",
		"Anger persisting. Use minimal encouragers. Say only 'go on' or 'tell me more'. People cannot sustain anger while feeling genuinely heard.",
		"Sustained anger with low engagement: a core need is unmet. Ask: 'What do you actually need from this situation?' Shift from positions to underlying needs.",
	},
	{signal.EmotionAngry, signal.AttentionLow, zoneHigh, zoneLow}: {
		"Hot anger plus disengagement: they've mentally left. Emergency pivot: 'Help me understand, what would have to change for this to work for you?' Ask ONLY about their perspective.",
		"Still angry and gone. Acknowledge without defending: 'I hear that this is not working. That matters.' Pure acknowledgment without defense.",
		"Prolonged anger-disengagement. Give them power: 'What would you do differently if you were in charge of this?' Positions them as the expert.",
	},
	{signal.EmotionAngry, signal.AttentionMedium, zoneHigh, zoneMid}: {
		"Irritation with partial engagement: they feel unheard. Mirror their last key phrase as a question. Mirroring sharply reduces defensiveness within a minute.",
		"Still irritated but present. Use the power of apology: take responsibility for something, even small, related to their frustration. Accountability deflates anger.",
		"Continued irritation-engagement mix. Ask: 'What's the most important thing I've missed about your position?' Positions them as expert, you as student.",
	},
	{signal.EmotionAngry, signal.AttentionHigh, zoneMid, zoneMid}: {
		"Agitation with attention still present. Channel this energy. Ask a challenge question: 'What's the one thing that would change your mind?' Resistance hides high investment.",
		"Continued engagement under agitation. Name the strength behind their anger: 'The fact you feel this strongly shows how much you care about getting this right.'",
		"Sustained engaged-agitation. Give them a win: 'You're right about X, completely right. Given that, how do we move forward?' Partial agreement creates momentum.",
	},

	// Sad.
	{signal.EmotionSad, signal.AttentionLow, zoneLow, zoneLow}: {
		"Withdrawal state: low energy, downward gaze. Activate reciprocity through vulnerability: share a relevant personal struggle BEFORE asking anything.",
		"Still withdrawn. Ask for their story: 'What happened that brought you to this point?' Listen for 2 full minutes without interjecting.",
		"Prolonged withdrawal. Introduce possibility slowly: 'If things were just 10% better, what would that look like?' Small future-pacing reopens possibility without pressure.",
	},
	{signal.EmotionSad, signal.AttentionMedium, zoneLow, zoneLow}: {
		"Mild sadness with partial attention. Ask for their story: 'What happened that brought you to this point?' People in sadness bond through narrative.",
		"Continued sad, partial engagement. Deepen empathy: 'What's the hardest part of all of this for you?' The hardest part is where the real need lives.",
		"Sustained ambivalent-sad state. Use the miracle question: 'If you woke up tomorrow and the problem was gone, how would you know?' Bypasses resistance and activates motivation.",
	},
	{signal.EmotionSad, signal.AttentionLow, zoneMid, zoneLow}: {
		"Subdued affect signaling low confidence. Use a late night FM DJ voice: slow, warm, measured. Reflect their emotion before any content: 'This clearly matters to you deeply.'",
		"Still subdued. Introduce possibility: 'What would need to change for this to feel different?' Asking about change implies change is possible.",
		"Prolonged subdued state. Ask about the best version of the situation: 'When has this worked well in the past?' Access to positive memory resources often shifts affect.",
	},
	{signal.EmotionSad, signal.AttentionMedium, zoneMid, zoneMid}: {
		"Sadness with moderate engagement reads as ambivalence. Use the contrast principle: paint the gap between where they are and where they could be. Emotion follows vision.",
		"Persistent sadness with partial engagement. Deepen empathy: 'What's the hardest part of all of this for you?' Then listen fully without adding content.",
		"Sustained ambivalent-sad state. Use the miracle question: 'If you woke up and the problem was solved, how would you know?' Activates motivation directly.",
	},

	// Disgusted.
	{signal.EmotionDisgusted, signal.AttentionLow, zoneMid, zoneLow}: {
		"Value mismatch: micro-disgust plus low attention. Pivot immediately: 'I sense that landed differently than intended. What part concerns you most?'",
		"Value mismatch persisting. Don't defend the previous frame. Ask what matters most to them and rebuild your position from their anchor point.",
		"Persistent value misalignment. Use inversion: present the OPPOSITE position and ask them to critique it. They'll often argue themselves into your actual position.",
	},
	{signal.EmotionDisgusted, signal.AttentionMedium, zoneMid, zoneMid}: {
		"Subtle rejection: the framing isn't resonating. Framing reboot: present the same idea through a completely different lens, like individual versus team.",
		"Continued value friction. Use 'the third story': how would a neutral third party see this situation? Outside perspective breaks in-frame deadlocks.",
		"Sustained misalignment. Find ONE point of genuine agreement and anchor everything else to it. Agreement on any shared value creates a psychological bridge.",
	},
}

// Crisis tactics keyed by alert kind.
var alertTactics = map[string][]string{
	keyEngagementDrop: {
		"Engagement dropping fast. Pattern interrupt: ask their opinion directly, or call it out openly: 'I can see we've hit something. What's on your mind?'",
		"Engagement still falling. Abandon your current agenda. Ask: 'What would make this conversation worth your time?' Let their answer restructure everything.",
		"Engagement collapse continuing. Radical transparency: 'I feel like I've lost you somewhere. Where did this stop working?' Meta-commentary often resets the conversation.",
	},
	keyStressSpike: {
		"Stress cascading across all signals. Drop to one sentence, slow your breathing visibly, then give them a choice: 'What feels right to you?' Agency dissolves stress.",
		"Stress still elevated. Remove all demands: 'We don't have to solve this today. What would feel manageable to discuss right now?'",
		"Sustained stress spike. Use the paradoxical injunction: 'Take as long as you need. There's no rush at all.' Removing time pressure often accelerates resolution.",
	},
	keyInconsistency: {
		"Mixed signals: smiling but stress rising. A leakage event. Deploy: 'What aren't we talking about that we should be?' Name the meta-level directly.",
		"Behavioral inconsistency persisting. Ask: 'Your body seems to be saying something your words aren't. What's the real concern here?'",
		"Continued signal contradiction. Try a soft confrontation: 'I notice you say X but I'm getting a different sense. Am I reading that wrong?'",
	},
	keyAttentionLost: {
		"Attention has left: gaze and posture confirm cognitive disengagement. Stop all content. Call their name once, ask: 'What's the most important thing you need from this conversation right now?' Hold 10 seconds of silence.",
		"Still disengaged. Full pattern interrupt: physically reposition, lower your voice to near-whisper, and say only: 'Let me start over.' Novelty and humility together reset attention.",
		"Prolonged disengagement. This conversation needs an exit and restart. Say: 'Let's pause. When would be a better time to continue this?' Graceful exits preserve future access.",
	},
}

// Pool for purely stable baseline readings.
var defaultPool = []string{
	"Stable baseline, all signals calm. Deploy strategic silence: stop talking for 5 seconds and observe micro-reactions. Silence reveals resistance that speech hides.",
	"Neutral baseline. Use the 'summary label': restate their key position verbatim and ask '...is that right?' It triggers the 'That's right' trust response.",
	"Stable environment. Plant a calibrated question: 'What matters most to you in making this decision?' Then listen without interrupting for 90 seconds.",
	"Baseline stable. Apply the scarcity principle: introduce a genuine constraint, time or availability. Scarcity elevates perceived value even in calm states.",
	"Consistent stable signals. Use progressive disclosure: share your second most compelling point now, saving the strongest for when engagement peaks.",
	"Clean baseline. Use behavioral mirroring: match their posture, gesture frequency, and breathing pace. Synchrony builds trust faster than words.",
	"Signals stable. Deploy an I-statement: 'I'm trying to understand your perspective fully before forming my own.' Epistemic humility paradoxically builds authority.",
	"Sustained neutral. Ask a genuine curiosity question, something you actually don't know the answer to about their situation. Authentic curiosity is disarming.",
}

const flowStateAdvice = "You're in the 'flow state' window: emotional safety and cognitive engagement are both high. This is your highest-leverage moment. Make your most important ask or deliver your key message NOW."

// take selects a variant for key and advances the session's rotation
// cursor. With rotation disabled the first variant is always used, so the
// output is a pure function of the key.
func (a *Advisor) take(key string, variants []string, rot Rotation) (string, Rotation) {
	if rot.Key != key {
		rot = Rotation{Key: key}
	}
	idx := 0
	if a.cfg.RotationEvery > 0 {
		idx = (rot.Hits / a.cfg.RotationEvery) % len(variants)
	}
	rot.Hits++
	return variants[idx], rot
}

func hasAlert(alerts []alert.Alert, kind alert.Kind) bool {
	for _, al := range alerts {
		if al.Kind == kind {
			return true
		}
	}
	return false
}

func distinctEmotions(prior []signal.Emotion, cur signal.Emotion) int {
	seen := map[signal.Emotion]struct{}{cur: {}}
	for _, e := range prior {
		seen[e] = struct{}{}
	}
	return len(seen)
}

// fallback is the rule-based advice engine. Selection order: active
// alerts, cross-call trend shifts, hard state overrides, exact then fuzzy
// table lookup, flow-state shortcut, baseline pool.
func (a *Advisor) fallback(actx Context, rot Rotation) (string, Rotation) {
	obs := actx.Observation
	stress := actx.Snapshot.Stress
	engagement := actx.Snapshot.Engagement
	sZone := zoneOf(stress)
	eZone := zoneOf(engagement)

	if hasAlert(actx.Alerts, alert.KindAttentionLost) {
		return a.take(keyAttentionLost, alertTactics[keyAttentionLost], rot)
	}
	if hasAlert(actx.Alerts, alert.KindEngagementDrop) {
		return a.take(keyEngagementDrop, alertTactics[keyEngagementDrop], rot)
	}
	if hasAlert(actx.Alerts, alert.KindStressSpike) {
		return a.take(keyStressSpike, alertTactics[keyStressSpike], rot)
	}
	if hasAlert(actx.Alerts, alert.KindInconsistency) {
		return a.take(keyInconsistency, alertTactics[keyInconsistency], rot)
	}

	if actx.HasShift {
		if actx.EngagementShift < -15 {
			return a.take(keyEngagementDrop, alertTactics[keyEngagementDrop], rot)
		}
		if actx.StressShift > 15 {
			return a.take(keyStressSpike, alertTactics[keyStressSpike], rot)
		}
		if len(actx.RecentEmotions) >= 3 && distinctEmotions(actx.RecentEmotions, obs.Emotion) >= 3 {
			return a.take(keyInconsistency, alertTactics[keyInconsistency], rot)
		}
	}

	// Hard overrides before the table lookup.
	if obs.Attention == signal.AttentionLow {
		key := tacticKey{obs.Emotion, signal.AttentionLow, sZone, eZone}
		if variants, ok := tactics[key]; ok {
			return a.take(key.id(), variants, rot)
		}
		return a.take(keyAttentionLost, alertTactics[keyAttentionLost], rot)
	}
	if stress > 65 {
		key := tacticKey{obs.Emotion, obs.Attention, zoneHigh, eZone}
		if variants, ok := tactics[key]; ok {
			return a.take(key.id(), variants, rot)
		}
		return a.take(keyStressSpike, alertTactics[keyStressSpike], rot)
	}
	if engagement < 30 {
		return a.take(keyEngagementDrop, alertTactics[keyEngagementDrop], rot)
	}

	// Exact lookup, then relax one dimension at a time keeping attention
	// fixed first.
	for _, key := range []tacticKey{
		{obs.Emotion, obs.Attention, sZone, eZone},
		{obs.Emotion, obs.Attention, zoneMid, eZone},
		{obs.Emotion, obs.Attention, sZone, zoneMid},
		{obs.Emotion, obs.Attention, zoneMid, zoneMid},
		{obs.Emotion, signal.AttentionMedium, sZone, eZone},
		{obs.Emotion, signal.AttentionMedium, zoneMid, eZone},
		{obs.Emotion, signal.AttentionMedium, zoneMid, zoneMid},
	} {
		if variants, ok := tactics[key]; ok {
			return a.take(key.id(), variants, rot)
		}
	}

	if engagement > 70 && stress < 35 {
		return flowStateAdvice, rot
	}

	return a.take(keyDefault, defaultPool, rot)
}
