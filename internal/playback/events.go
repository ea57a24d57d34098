package playback

import "github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"

// NoteRef addresses one note by its line and index within that line's
// note slice, the same addressing judge/touch events use on the wire.
type NoteRef struct {
	LineIdx int
	NoteIdx int
}

// JudgeEventKind is the external declaration an upstream judge event
// carries for one note.
type JudgeEventKind int

const (
	JudgePerfect JudgeEventKind = iota
	JudgeGood
	JudgeBad
	JudgeMiss
	JudgeHoldPerfect
	JudgeHoldGood
)

// JudgeEvent is one upstream judge declaration: a player hit or missed a
// specific note at a specific time.
type JudgeEvent struct {
	Note NoteRef
	Time float64
	Kind JudgeEventKind
}

// SceneEventKind discriminates the outcomes a render tick can produce,
// each driving a distinct hit-sound / particle-emission rule (spec
// §4.3.5 steps 6-7).
type SceneEventKind int

const (
	// EventJudged is a note's final outcome when it is judged in one step:
	// any judge event other than HoldPerfect/HoldGood, or autoplay's
	// age-based Miss. A Hold note that runs to its end_time reports
	// EventHoldComplete instead.
	EventJudged SceneEventKind = iota
	// EventHoldStart fires when a Hold note enters the Hold(...) state.
	// It plays a hit-sound like any other judged note but never spawns a
	// particle (spec step 7 lists Judged/HoldTick/HoldComplete only).
	EventHoldStart
	// EventHoldTick fires once per render tick while t has advanced past
	// the hold's next tick time (HOLD_PARTICLE_INTERVAL cadence).
	EventHoldTick
	// EventHoldComplete fires once when a hold note's end_time is reached.
	EventHoldComplete
)

// SceneEvent is one outcome of a render tick's update_judges pass.
type SceneEvent struct {
	Kind      SceneEventKind
	Note      NoteRef
	Time      float64
	Judgement chart.Judgement
	NoteKind  chart.NoteKindTag
	HitSound  chart.HitSoundKind
}

// playsHitSound reports whether this event should trigger its note's
// hit-sound (spec step 6: "skip Miss/Bad and HoldTick").
func (e SceneEvent) playsHitSound() bool {
	if e.Kind == EventHoldTick {
		return false
	}
	if e.Kind == EventJudged && (e.Judgement == chart.Bad || e.Judgement == chart.Miss) {
		return false
	}
	return true
}

// spawnsParticle reports whether this event spawns a tinted particle
// (spec step 7: "Judged, HoldTick, HoldComplete" with Perfect/Good).
func (e SceneEvent) spawnsParticle() bool {
	if e.Judgement != chart.Perfect && e.Judgement != chart.Good {
		return false
	}
	return e.Kind == EventJudged || e.Kind == EventHoldTick || e.Kind == EventHoldComplete
}
